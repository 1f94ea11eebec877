package cisco

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/newtron-network/fakeswitches/pkg/processor"
	"github.com/newtron-network/fakeswitches/pkg/switches/core"
)

const tftpTimeout = 30 * time.Second

// mode is embedded by every Cisco processor.
type mode struct {
	*processor.Base
	core *Core
}

// invalid writes the caret marker under the input following prefix.
func (m *mode) invalid(prefix string) {
	core.CaretAt(m.Context().Terminal, len(m.Prompt())+len(prefix))
}

// endFrom leaves configuration mode from one of its sub-modes.
func (m *mode) endFrom(parent *configMode) {
	m.Done()
	parent.Done()
}

// ===== User EXEC =====

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
			p.Write("% Access denied\n\n")
		})
	})
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

// ===== Privileged EXEC =====

type enabledMode struct {
	mode
	parent *defaultMode
}

func newEnabled(c *Core, parent *defaultMode) *enabledMode {
	p := &enabledMode{mode: mode{core: c}, parent: parent}
	p.Base = processor.NewBase(func() string { return p.Conf().Name + "#" })

	p.Handle("configure", func(args []string) {
		if len(args) > 0 && !processor.Matches(args[0], "terminal") {
			p.invalid("configure ")
			return
		}
		p.WriteLine("Enter configuration commands, one per line.  End with CNTL/Z.")
		p.MoveTo(newConfig(c))
	})
	p.Handle("show", p.show)
	p.Handle("copy", p.copy)
	p.Handle("write", func(args []string) {
		if len(args) > 0 && !processor.Matches(args[0], "memory") {
			p.invalid("write ")
			return
		}
		p.save()
	})
	p.Handle("terminal", func(args []string) {
		if !processor.MatchesAll(args, "length") && !processor.MatchesAll(args, "width") {
			p.invalid("terminal ")
		}
	})
	p.Handle("disable", func([]string) { p.Done() })
	p.Handle("exit", func([]string) {
		p.Done()
		parent.Done()
	})
	return p
}

func (p *enabledMode) save() {
	p.WriteLine("Building configuration...")
	p.core.Store.Commit()
	p.WriteLine("[OK]")
}

func (p *enabledMode) copy(args []string) {
	switch {
	case processor.MatchesExactly(args, "running-config", "startup-config"):
		p.Write("Destination filename [startup-config]? ")
		p.ContinueTo(func(string) { p.save() })
	case len(args) == 2 && strings.HasPrefix(args[0], "tftp://") && processor.Matches(args[1], "running-config"):
		source := args[0]
		p.Write("Destination filename [running-config]? ")
		p.ContinueTo(func(string) { p.copyTFTP(source) })
	default:
		p.invalid("copy ")
	}
}

func (p *enabledMode) copyTFTP(source string) {
	host, filename, _ := strings.Cut(strings.TrimPrefix(source, "tftp://"), "/")
	p.WriteLine("Accessing " + source + "...")

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
		p.Logger().Warnf("tftp read of %s failed: %v", source, err)
		p.WriteLine(fmt.Sprintf("%%Error opening %s (Timed out)", source))
		return
	}

	p.core.apply(data)
	p.WriteLine(fmt.Sprintf("Loading %s from %s (via %s): !", filename, host, "Vlan1"))
	p.WriteLine(fmt.Sprintf("[OK - %d bytes]", len(data)))
	p.WriteLine("")
	p.WriteLine(fmt.Sprintf("%d bytes copied in 0.000 secs", len(data)))
}

func (p *enabledMode) show(args []string) {
	conf := p.Conf()
	switch {
	case processor.MatchesAll(args, "running-config", "interface") && len(args) > 2:
		port := resolvePort(conf, strings.Join(args[2:], ""))
		if port == nil {
			p.invalid("show running-config interface ")
			return
		}
		p.Write(interfaceConfig(conf, port))
	case processor.MatchesAll(args, "running-config", "vlan") && len(args) == 3:
		n, ok := parseVlan(args[2], conf.MaxVlan)
		if !ok {
			p.invalid("show running-config vlan ")
			return
		}
		p.Write(vlanConfig(conf, n))
	case processor.MatchesExactly(args, "running-config"):
		p.Write(runningConfig(conf))
	case processor.MatchesExactly(args, "vlan", "brief"):
		p.Write(showVlan(conf, true))
	case processor.MatchesExactly(args, "vlan"):
		p.Write(showVlan(conf, false))
	case processor.MatchesExactly(args, "ip", "interface", "brief"):
		p.Write(showIPInterfaceBrief(conf))
	case processor.MatchesExactly(args, "version"):
		p.Write(showVersion(p.core))
	default:
		p.invalid("show ")
	}
}
