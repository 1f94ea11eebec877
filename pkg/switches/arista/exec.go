package arista

import (
	"fmt"
	"strings"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/processor"
	"github.com/newtron-network/fakeswitches/pkg/switches/core"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

// mode is embedded by every Arista processor.
type mode struct {
	*processor.Base
	core *Core
}

func (m *mode) invalid() {
	m.Write("% Invalid input\n")
}

func (m *mode) incomplete() {
	m.Write("% Incomplete command\n")
}

func (m *mode) endFrom(parent *configMode) {
	m.Done()
	parent.Done()
}

type defaultMode struct {
	mode
}

func newDefault(c *Core) *defaultMode {
	p := &defaultMode{mode{core: c}}
	p.Base = processor.NewBase(func() string { return p.Conf().Name + ">" })

	p.Handle("enable", func([]string) {
		if len(p.Conf().PrivilegedPasswords) == 0 {
			p.MoveTo(newEnabled(c, p))
			return
		}
		p.Write("Password: ")
		p.HideInput()
		p.ContinueTo(func(line string) {
			if core.CheckPassword(p.Conf(), line) {
				p.MoveTo(newEnabled(c, p))
				return
			}
			p.Write("% Access denied\n")
		})
	})
	p.Handle("show", func(args []string) { show(&p.mode, args) })
	p.Handle("exit", func([]string) { p.Done() })
	return p
}

// Init starts auto-enabled sessions in privileged mode.
func (p *defaultMode) Init(ctx *processor.Context) {
	p.Base.Init(ctx)
	if p.Conf().AutoEnabled {
		p.SetSub(newEnabled(p.core, p))
	}
}

type enabledMode struct {
	mode
}

func newEnabled(c *Core, parent *defaultMode) *enabledMode {
	p := &enabledMode{mode{core: c}}
	p.Base = processor.NewBase(func() string { return p.Conf().Name + "#" })

	p.Handle("configure", func(args []string) {
		if len(args) > 0 && !processor.Matches(args[0], "terminal") {
			p.invalid()
			return
		}
		p.MoveTo(newConfig(c))
	})
	p.Handle("show", func(args []string) { show(&p.mode, args) })
	p.Handle("write", func(args []string) {
		if len(args) > 0 && !processor.Matches(args[0], "memory") {
			p.invalid()
			return
		}
		p.WriteLine("Copy completed successfully.")
		p.core.Store.Commit()
	})
	p.Handle("copy", func(args []string) {
		if !processor.MatchesExactly(args, "running-config", "startup-config") {
			p.invalid()
			return
		}
		p.core.Store.Commit()
		p.WriteLine("Copy completed successfully.")
	})
	p.Handle("terminal", func([]string) {})
	p.Handle("disable", func([]string) { p.Done() })
	p.Handle("exit", func([]string) {
		p.Done()
		parent.Done()
	})
	return p
}

func show(p *mode, args []string) {
	conf := p.Conf()
	switch {
	case processor.MatchesAll(args, "vlan"):
		out, errLine := showVlan(conf, args[1:])
		if errLine != "" {
			p.WriteLine(errLine)
			return
		}
		p.Write(out)
	case processor.MatchesAll(args, "interfaces"):
		ports, ok := selectPorts(conf, args[1:])
		if !ok {
			p.invalid()
			return
		}
		p.Write(showInterfaces(ports))
	case processor.MatchesAll(args, "running-config", "interfaces") && len(args) > 2:
		port := resolvePort(conf, strings.Join(args[2:], ""))
		if port == nil {
			p.invalid()
			return
		}
		p.Write(strings.Join(interfaceLines(conf, port), "\n") + "\n")
	case processor.MatchesExactly(args, "running-config"):
		p.Write(runningConfig(conf))
	case processor.MatchesExactly(args, "version"):
		p.Write(showVersion(p.core))
	default:
		p.invalid()
	}
}

// selectPorts returns every port, or the one named by args.
func selectPorts(conf *model.SwitchConfiguration, args []string) ([]*model.Port, bool) {
	if len(args) == 0 {
		return conf.Ports, true
	}
	port := resolvePort(conf, strings.Join(args, ""))
	if port == nil {
		return nil, false
	}
	return []*model.Port{port}, true
}

// vlanSelection resolves "show vlan [N | id N | name X]".
func vlanSelection(conf *model.SwitchConfiguration, args []string) ([]*model.Vlan, string) {
	switch {
	case len(args) == 0:
		return conf.Vlans, ""
	case len(args) == 2 && processor.Matches(args[0], "name"):
		v := conf.GetVlanByName(args[1])
		if v == nil {
			return nil, fmt.Sprintf("%% VLAN %s not found in current VLAN database", args[1])
		}
		return []*model.Vlan{v}, ""
	case len(args) == 2 && processor.Matches(args[0], "id"):
		return vlanSelection(conf, args[1:])
	case len(args) == 1:
		n, ok := util.ParseInt(args[0])
		if !ok || util.ValidateVLANID(n, conf.MaxVlan) != nil {
			return nil, "% Invalid input"
		}
		v := conf.GetVlan(n)
		if v == nil {
			return nil, fmt.Sprintf("%% VLAN %d not found in current VLAN database", n)
		}
		return []*model.Vlan{v}, ""
	}
	return nil, "% Invalid input"
}
