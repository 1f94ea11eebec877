package brocade

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/newtron-network/fakeswitches/pkg/processor"
	"github.com/newtron-network/fakeswitches/pkg/switches/core"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

const tftpTimeout = 30 * time.Second

// mode is embedded by every Brocade processor.
type mode struct {
	*processor.Base
	core *Core
}

// invalid reports tokens as the offending input.
func (m *mode) invalid(tokens ...string) {
	m.Write("Invalid input -> " + strings.Join(tokens, " ") + "\nType ? for a list\n")
}

func (m *mode) incomplete() {
	m.Write("Incomplete command.\n")
}

func (m *mode) prefix() string {
	return "SSH@" + m.Conf().Name
}

type defaultMode struct {
	mode
}

func newDefault(c *Core) *defaultMode {
	p := &defaultMode{mode{core: c}}
	p.Base = processor.NewBase(func() string { return p.prefix() + ">" })

	p.Handle("enable", func([]string) {
		if len(p.Conf().PrivilegedPasswords) == 0 {
			p.MoveTo(newEnabled(c, p))
			return
		}
		p.Write("Password:")
		p.HideInput()
		p.ContinueTo(func(line string) {
			if core.CheckPassword(p.Conf(), line) {
				p.MoveTo(newEnabled(c, p))
				return
			}
			p.WriteLine("Error - Incorrect username or password.")
		})
	})
	p.Handle("show", func(args []string) { show(&p.mode, args) })
	p.Handle("skip_page_display", func([]string) {})
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
	p.Base = processor.NewBase(func() string { return p.prefix() + "#" })

	p.Handle("configure", func(args []string) {
		if len(args) > 0 && !processor.Matches(args[0], "terminal") {
			p.invalid(args...)
			return
		}
		p.MoveTo(newConfig(c))
	})
	p.Handle("show", func(args []string) { show(&p.mode, args) })
	p.Handle("skip_page_display", func([]string) {})
	p.Handle("write", func(args []string) {
		if len(args) > 0 && !processor.Matches(args[0], "memory") {
			p.invalid(args...)
			return
		}
		p.core.Store.Commit()
		p.WriteLine("Write startup-config done.")
	})
	p.Handle("copy", p.copy)
	p.Handle("ncopy", p.ncopy)
	p.Handle("exit", func([]string) {
		p.Done()
		parent.Done()
	})
	return p
}

// copy handles "copy tftp running-config HOST FILE [overwrite]".
func (p *enabledMode) copy(args []string) {
	if len(args) < 4 || !processor.MatchesAll(args, "tftp", "running-config") {
		p.invalid(args...)
		return
	}
	p.copyTFTP(args[2], args[3])
}

// ncopy handles "ncopy tftp HOST FILE running-config".
func (p *enabledMode) ncopy(args []string) {
	if len(args) != 4 || !processor.Matches(args[0], "tftp") || !processor.Matches(args[3], "running-config") {
		p.invalid(args...)
		return
	}
	p.copyTFTP(args[1], args[2])
}

func (p *enabledMode) copyTFTP(host, filename string) {
	var data []byte
	err := fmt.Errorf("no tftp reader configured")
	if reader := p.core.Opts.TFTP; reader != nil {
		ctx, cancel := context.WithTimeout(context.Background(), tftpTimeout)
		defer cancel()
		p.Conf().Unlocked(func() {
			data, err = reader.Read(ctx, host, filename)
		})
	}
	if err != nil {
		p.Logger().Warnf("tftp read of %s from %s failed: %v", filename, host, err)
		p.WriteLine("TFTP: Download to running-config failed - Session timed out")
		return
	}
	p.core.apply(data)
	p.WriteLine("TFTP: Download to running-config done.")
}

func show(p *mode, args []string) {
	conf := p.Conf()
	switch {
	case processor.MatchesAll(args, "running-config", "interface") && len(args) > 2:
		port := resolveInterface(conf, args[2:])
		if port == nil {
			p.invalid(args[2:]...)
			return
		}
		p.Write(strings.Join(interfaceLines(port), "\n") + "\n")
	case processor.MatchesAll(args, "running-config", "vlan") && len(args) == 3:
		n, ok := util.ParseInt(args[2])
		if !ok || conf.GetVlan(n) == nil {
			p.invalid(args[2:]...)
			return
		}
		p.Write(strings.Join(vlanLines(conf, conf.GetVlan(n)), "\n") + "\n")
	case processor.MatchesExactly(args, "running-config"):
		p.Write(runningConfig(conf))
	case processor.MatchesAll(args, "vlan", "ethernet") && len(args) == 3:
		ports, ok := parsePortList(conf, args[1:])
		if !ok || len(ports) != 1 {
			p.invalid(args[1:]...)
			return
		}
		p.Write(showPortVlans(conf, ports[0]))
	case processor.MatchesExactly(args, "vlan"):
		p.Write(showVlans(conf))
	case processor.MatchesAll(args, "vlan") && len(args) == 2:
		n, ok := util.ParseInt(args[1])
		if !ok {
			p.invalid(args[1:]...)
			return
		}
		v := conf.GetVlan(n)
		if v == nil {
			p.WriteLine(fmt.Sprintf("Error: vlan %d is not configured", n))
			return
		}
		p.Write(showVlan(conf, v))
	case processor.MatchesExactly(args, "version"):
		p.Write(showVersion(p.core))
	default:
		p.invalid(args...)
	}
}
