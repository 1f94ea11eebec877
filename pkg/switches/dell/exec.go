package dell

import (
	"fmt"
	"strings"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/processor"
	"github.com/newtron-network/fakeswitches/pkg/switches/core"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

const (
	defaultPageSize = 24
	morePrompt      = "--More-- or (q)uit"
)

// mode is embedded by every Dell processor.
type mode struct {
	*processor.Base
	core *Core
}

// caret marks token i of args, typed after verb, as invalid.
func (m *mode) caret(verb string, args []string, i int) {
	col := len(m.Prompt()) + len(verb) + 1
	for _, a := range args[:i] {
		col += len(a) + 1
	}
	core.CaretAt(m.Context().Terminal, col)
}

func (m *mode) incomplete() {
	m.WriteLine("% Incomplete command")
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
		p.Write("Password:")
		p.HideInput()
		p.ContinueTo(func(line string) {
			if core.CheckPassword(p.Conf(), line) {
				p.MoveTo(newEnabled(c, p))
				return
			}
			p.WriteLine("Incorrect Password!")
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

type enabledMode struct {
	mode
	pageSize int
}

func newEnabled(c *Core, parent *defaultMode) *enabledMode {
	p := &enabledMode{mode: mode{core: c}, pageSize: defaultPageSize}
	p.Base = processor.NewBase(func() string { return p.Conf().Name + "#" })

	p.Handle("configure", func(args []string) {
		if len(args) > 0 {
			p.caret("configure", args, 0)
			return
		}
		p.MoveTo(newConfig(c))
	})
	p.Handle("show", p.show)
	p.Handle("copy", func(args []string) {
		if !processor.MatchesExactly(args, "running-config", "startup-config") {
			p.caret("copy", args, 0)
			return
		}
		p.confirmSave()
	})
	p.Handle("terminal", func(args []string) {
		if len(args) != 2 || !processor.Matches(args[0], "length") {
			p.caret("terminal", args, 0)
			return
		}
		n, ok := util.ParseInt(args[1])
		if !ok || n > 512 {
			p.caret("terminal", args, 1)
			return
		}
		p.pageSize = n
	})
	p.Handle("exit", func([]string) {
		p.Done()
		parent.Done()
	})
	return p
}

// confirmSave asks before committing; any key but "y" cancels.
func (p *enabledMode) confirmSave() {
	p.Write("\nThis operation may take a few minutes.\n" +
		"Management interfaces will not be available during this time.\n\n" +
		"Are you sure you want to save? (y/n) ")
	p.OnKeystroke(func(key string) {
		p.Write("\n\n")
		if key != "y" && key != "Y" {
			p.WriteLine("Configuration Not Saved!")
			return
		}
		p.core.Store.Commit()
		p.WriteLine("Configuration Saved!")
	})
}

// page writes out a screen at a time unless paging is off.
func (p *enabledMode) page(out string) {
	lines := strings.SplitAfter(out, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if p.pageSize == 0 || len(lines) <= p.pageSize {
		p.Write(out)
		return
	}
	p.Write(strings.Join(lines[:p.pageSize], ""))
	p.more(lines[p.pageSize:])
}

func (p *enabledMode) more(rest []string) {
	p.Write(morePrompt)
	p.OnKeystroke(func(key string) {
		p.Write("\r" + strings.Repeat(" ", len(morePrompt)) + "\r")
		if key == "q" || key == "Q" {
			return
		}
		n := p.pageSize
		if n > len(rest) {
			n = len(rest)
		}
		p.Write(strings.Join(rest[:n], ""))
		if n < len(rest) {
			p.more(rest[n:])
		}
	})
}

func (p *enabledMode) show(args []string) {
	c := p.core
	conf := p.Conf()
	switch {
	case processor.MatchesAll(args, "running-config", "interface") && len(args) > 2:
		port := resolvePort(conf, args[2:])
		if port == nil {
			p.caret("show", args, 2)
			return
		}
		p.page(joinLines(interfaceBody(c, port)))
	case processor.MatchesExactly(args, "running-config"):
		p.page(runningConfig(c))
	case processor.MatchesExactly(args, "vlan"):
		p.page(showVlan(c, conf.Vlans))
	case processor.MatchesAll(args, "vlan", "id") && len(args) == 3:
		n, ok := util.ParseInt(args[2])
		if !ok {
			p.caret("show", args, 2)
			return
		}
		v := conf.GetVlan(n)
		if v == nil {
			p.WriteLine("ERROR: This VLAN does not exist.")
			return
		}
		p.page(showVlan(c, []*model.Vlan{v}))
	case processor.MatchesExactly(args, "interfaces", "status"):
		p.page(showInterfacesStatus(c))
	case processor.MatchesExactly(args, "version"):
		p.Write(fmt.Sprintf("\nSystem Description............................. %s\n", c.dialect.Description))
		p.Write(fmt.Sprintf("System Software Version........................ %s\n\n", c.dialect.Version))
	default:
		p.caret("show", args, 0)
	}
}
