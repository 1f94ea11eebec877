package arista

import (
	"strconv"
	"strings"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/processor"
	"github.com/newtron-network/fakeswitches/pkg/switches/core"
	"github.com/newtron-network/fakeswitches/pkg/transport/eapi"
)

var _ eapi.Runner = (*Core)(nil)

// RunCmds implements eapi.Runner. Every request gets its own processor
// stack, so "enable" and "configure" only last for the batch.
func (c *Core) RunCmds(format string, cmds []eapi.Command) []eapi.Result {
	term := &processor.BufferTerminal{}
	root := newDefault(c)
	root.Init(&processor.Context{
		Conf:     c.Conf,
		Terminal: term,
		Logger:   c.Log.WithField("transport", "eapi"),
	})

	var results []eapi.Result
	for _, cmd := range cmds {
		res := c.runOne(root, term, format, cmd)
		results = append(results, res)
		if res.Failed() {
			break
		}
	}
	return results
}

func (c *Core) runOne(root *defaultMode, term *processor.BufferTerminal, format string, cmd eapi.Command) eapi.Result {
	c.Conf.Lock()
	defer c.Conf.Unlock()

	line := strings.TrimSpace(cmd.Cmd)
	term.Reset()
	processed := root.ProcessCommand(line)
	if processed && cmd.Input != "" && root.Continuing() {
		root.ProcessCommand(cmd.Input)
	}
	out := stripPrompt(term.String())
	if !processed {
		return eapi.Result{Errors: []string{"Invalid input"}}
	}
	if errLine, failed := firstError(out); failed {
		return eapi.Result{Errors: []string{errLine}}
	}
	if format == "text" {
		return eapi.Result{Output: map[string]interface{}{"output": out}}
	}
	if !isShow(line) {
		return eapi.Result{Output: map[string]interface{}{}}
	}
	if structured, ok := c.showJSON(line); ok {
		return eapi.Result{Output: structured}
	}
	return eapi.Result{Unconverted: true}
}

// stripPrompt drops the prompt the processor writes after the output.
func stripPrompt(out string) string {
	return out[:strings.LastIndex(out, "\n")+1]
}

// firstError finds the first "% " error line a command printed. A
// password prompt may precede it on the same line.
func firstError(out string) (string, bool) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimPrefix(line, "Password: ")
		if strings.HasPrefix(line, "% ") {
			return line[2:], true
		}
	}
	return "", false
}

func isShow(line string) bool {
	fields := strings.Fields(line)
	return len(fields) > 0 && processor.Matches(fields[0], "show") && len(fields[0]) >= 2
}

// showJSON renders the show commands that have a structured form.
func (c *Core) showJSON(line string) (map[string]interface{}, bool) {
	args := strings.Fields(line)[1:]
	conf := c.Conf
	switch {
	case processor.MatchesAll(args, "vlan"):
		vlans, errLine := vlanSelection(conf, args[1:])
		if errLine != "" {
			return nil, false
		}
		return vlansJSON(conf, vlans), true
	case processor.MatchesAll(args, "interfaces"):
		ports, ok := selectPorts(conf, args[1:])
		if !ok {
			return nil, false
		}
		return interfacesJSON(ports), true
	case processor.MatchesExactly(args, "version"):
		return map[string]interface{}{
			"modelName":        "vEOS",
			"version":          "4.20.8M",
			"systemMacAddress": "52:54:00:00:00:00",
			"hostname":         conf.Name,
		}, true
	}
	return nil, false
}

func vlansJSON(conf *model.SwitchConfiguration, vlans []*model.Vlan) map[string]interface{} {
	out := map[string]interface{}{}
	for _, v := range vlans {
		members := map[string]interface{}{}
		names := vlanMembers(conf, v)
		for _, port := range conf.GetPhysicalPorts() {
			if containsString(names, core.ShortName(port.Name)) {
				members[port.Name] = map[string]interface{}{"privatePromoted": false}
			}
		}
		out[strconv.Itoa(v.Number)] = map[string]interface{}{
			"name":       vlanName(v),
			"status":     "active",
			"dynamic":    false,
			"interfaces": members,
		}
	}
	return map[string]interface{}{"vlans": out, "sourceDetail": ""}
}

func interfacesJSON(ports []*model.Port) map[string]interface{} {
	out := map[string]interface{}{}
	for _, port := range ports {
		_, status := interfaceStatus(port)
		entry := map[string]interface{}{
			"name":            port.Name,
			"description":     port.Description,
			"interfaceStatus": status,
			"mtu":             1500,
		}
		var addresses []interface{}
		if primary, ok := port.PrimaryIP(); ok {
			secondaries := map[string]interface{}{}
			for _, ip := range port.SecondaryIPs() {
				secondaries[ip.Addr().String()] = map[string]interface{}{"address": ip.Addr().String(), "maskLen": ip.Bits()}
			}
			addresses = append(addresses, map[string]interface{}{
				"primaryIp":        map[string]interface{}{"address": primary.Addr().String(), "maskLen": primary.Bits()},
				"secondaryIps":     secondaries,
				"broadcastAddress": "255.255.255.255",
			})
		}
		if addresses != nil {
			entry["interfaceAddress"] = addresses
		}
		out[port.Name] = entry
	}
	return map[string]interface{}{"interfaces": out}
}
