package arista

import (
	"context"
	"strings"
	"testing"

	"github.com/newtron-network/fakeswitches/internal/testutil"
	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/switches/core"
)

func newSwitch(opts core.Options) *Core {
	if opts.Name == "" {
		opts.Name = "my_arista"
	}
	return New(opts)
}

func configCLI(t *testing.T) (*Core, *testutil.CLI) {
	t.Helper()
	sw := newSwitch(core.Options{AutoEnabled: true})
	cli := testutil.NewCLI(t, sw)
	cli.Run("configure terminal")
	return sw, cli
}

// ===== VLAN Tests =====

func TestShowVlan_AfterCreate(t *testing.T) {
	cli := testutil.NewCLI(t, newSwitch(core.Options{}))
	steps := []struct {
		line   string
		prompt string
	}{
		{"enable", "my_arista#"},
		{"configure terminal", "my_arista(config)#"},
		{"vlan 299", "my_arista(config-vlan-299)#"},
		{"name foo", "my_arista(config-vlan-299)#"},
		{"exit", "my_arista(config)#"},
		{"exit", "my_arista#"},
	}
	for _, s := range steps {
		if got := cli.Run(s.line); got != s.prompt {
			t.Fatalf("%s = %q, want %q", s.line, got, s.prompt)
		}
	}

	got := cli.Run("show vlan 299")
	want := "VLAN  Name                             Status    Ports\n" +
		"----- -------------------------------- --------- -------------------------------\n" +
		"299   foo                              active\n" +
		"\n" +
		"my_arista#"
	if got != want {
		t.Errorf("show vlan 299 =\n%q\nwant\n%q", got, want)
	}
}

func TestShowVlan_DefaultNames(t *testing.T) {
	_, cli := configCLI(t)
	cli.RunAll("vlan 123", "end")
	got := cli.Run("show vlan")
	for _, want := range []string{
		"1     default                          active\n",
		"123   VLAN0123                         active\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("show vlan missing %q in\n%s", want, got)
		}
	}
}

func TestShowVlan_Unknown(t *testing.T) {
	_, cli := configCLI(t)
	cli.Run("end")
	if got := cli.Run("show vlan 1000"); got != "% VLAN 1000 not found in current VLAN database\nmy_arista#" {
		t.Errorf("show vlan 1000 = %q", got)
	}
	if got := cli.Run("show vlan name nope"); !strings.HasPrefix(got, "% VLAN nope not found") {
		t.Errorf("show vlan name nope = %q", got)
	}
}

func TestVlan_Boundaries(t *testing.T) {
	tests := []struct {
		number string
		ok     bool
	}{
		{"-1", false},
		{"0", false},
		{"1", true},
		{"4094", true},
		{"4095", false},
	}
	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			_, cli := configCLI(t)
			got := cli.Run("vlan " + tt.number)
			if tt.ok {
				want := "my_arista(config-vlan-" + tt.number + ")#"
				if got != want {
					t.Errorf("vlan %s = %q, want %q", tt.number, got, want)
				}
				return
			}
			if got != "% Invalid input\nmy_arista(config)#" {
				t.Errorf("vlan %s = %q", tt.number, got)
			}
		})
	}
}

func TestVlan_RangeAndRemove(t *testing.T) {
	sw, cli := configCLI(t)
	cli.RunAll("vlan 10-12", "name shared", "exit")
	for _, n := range []int{10, 11, 12} {
		v := sw.Conf.GetVlan(n)
		if v == nil || v.Name != "shared" {
			t.Fatalf("vlan %d = %+v, want name shared", n, v)
		}
	}
	cli.Run("no vlan 11")
	if sw.Conf.GetVlan(11) != nil {
		t.Error("vlan 11 still present after no vlan")
	}
}

// ===== Interface Tests =====

func TestInterface_Prompts(t *testing.T) {
	tests := []struct {
		line   string
		prompt string
	}{
		{"interface Ethernet1", "my_arista(config-if-Et1)#"},
		{"interface et2", "my_arista(config-if-Et2)#"},
		{"interface vlan 100", "my_arista(config-if-Vl100)#"},
		{"interface Port-Channel3", "my_arista(config-if-Po3)#"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			_, cli := configCLI(t)
			if got := cli.Run(tt.line); got != tt.prompt {
				t.Errorf("%s = %q, want %q", tt.line, got, tt.prompt)
			}
		})
	}
}

func TestInterface_Unknown(t *testing.T) {
	_, cli := configCLI(t)
	if got := cli.Run("interface Ethernet99"); got != "% Invalid input\nmy_arista(config)#" {
		t.Errorf("interface Ethernet99 = %q", got)
	}
}

func TestSwitchport_TrunkAllowed(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{"list", []string{"switchport trunk allowed vlan 10,20-22"}, "   switchport trunk allowed vlan 10,20-22"},
		{"add", []string{"switchport trunk allowed vlan 10", "switchport trunk allowed vlan add 12-13"}, "   switchport trunk allowed vlan 10,12-13"},
		{"remove", []string{"switchport trunk allowed vlan 10-13", "switchport trunk allowed vlan remove 11"}, "   switchport trunk allowed vlan 10,12-13"},
		{"none", []string{"switchport trunk allowed vlan none"}, "   switchport trunk allowed vlan none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cli := configCLI(t)
			cli.Run("interface Ethernet1")
			cli.RunAll(tt.lines...)
			cli.Run("end")
			got := cli.Run("show running-config interfaces Ethernet1")
			if !strings.HasPrefix(got, "interface Ethernet1\n") || !strings.Contains(got, tt.want+"\n") {
				t.Errorf("show running-config interfaces Ethernet1 =\n%s\nwant line %q", got, tt.want)
			}
		})
	}
}

func TestVlanInterface_IPAddresses(t *testing.T) {
	sw, cli := configCLI(t)
	cli.Run("interface vlan 100")

	if got := cli.Run("ip address 10.0.0.2/24 secondary"); !strings.HasPrefix(got, "% Primary address must be assigned before secondary") {
		t.Errorf("secondary first = %q", got)
	}
	cli.RunAll("ip address 10.0.0.1/24", "ip address 10.0.1.1/24 secondary")
	port := sw.Conf.GetVlanPort(100)
	if len(port.Vlan.IPs) != 2 {
		t.Fatalf("IPs = %v, want 2 addresses", port.Vlan.IPs)
	}
	if got := cli.Run("no ip address 10.0.0.1/24"); !strings.HasPrefix(got, "% Primary address cannot be deleted before secondary") {
		t.Errorf("no primary = %q", got)
	}

	cli.RunAll("exit", "interface vlan 200")
	if got := cli.Run("ip address 10.0.0.9/25"); !strings.HasPrefix(got, "% Subnet 10.0.0.0/25 overlaps with existing subnet on interface Vlan100") {
		t.Errorf("overlap = %q", got)
	}
}

func TestVlanInterface_VrfForwardingClearsIPs(t *testing.T) {
	sw, cli := configCLI(t)
	cli.RunAll("vrf definition CUSTOMER", "rd 65000:1", "exit")
	cli.RunAll("interface vlan 100", "ip address 10.0.0.1/24")
	if got := cli.Run("vrf forwarding MISSING"); !strings.HasPrefix(got, "% VRF MISSING does not exist") {
		t.Errorf("vrf forwarding MISSING = %q", got)
	}
	cli.Run("vrf forwarding CUSTOMER")
	port := sw.Conf.GetVlanPort(100)
	if port.VRF != "CUSTOMER" || len(port.Vlan.IPs) != 0 {
		t.Errorf("port = vrf %q ips %v, want CUSTOMER and no IPs", port.VRF, port.Vlan.IPs)
	}
}

func TestSwitchport_RejectedOnVlanInterface(t *testing.T) {
	_, cli := configCLI(t)
	cli.Run("interface vlan 10")
	if got := cli.Run("switchport mode trunk"); got != "% Invalid input\nmy_arista(config-if-Vl10)#" {
		t.Errorf("switchport on SVI = %q", got)
	}
}

func TestVrrp_RejectedKeepsGroup(t *testing.T) {
	sw, cli := configCLI(t)
	cli.RunAll("interface vlan 100", "ip address 10.0.0.1/24",
		"vrrp 1 priority 110", "vrrp 1 timers advertisement 5", "vrrp 1 preempt delay minimum 60")

	for _, line := range []string{
		"vrrp 1 priority x",
		"vrrp 1 timers advertisement x",
		"vrrp 1 preempt delay minimum x",
	} {
		if got := cli.Run(line); got != "% Invalid input\nmy_arista(config-if-Vl100)#" {
			t.Errorf("%s = %q", line, got)
		}
	}

	group := sw.Conf.GetVlanPort(100).GetVRRP("1")
	if group == nil {
		t.Fatal("vrrp group 1 missing")
	}
	if group.Priority != 110 || group.TimersHello != 5 || group.PreemptDelayMinimum != 60 {
		t.Errorf("group = priority %d advertisement %d delay %d, want 110 5 60",
			group.Priority, group.TimersHello, group.PreemptDelayMinimum)
	}
}

// ===== Session Tests =====

func TestUnknownCommand(t *testing.T) {
	_, cli := configCLI(t)
	cli.Run("end")
	if got := cli.Run("shutdown everything"); got != "% Invalid input\nmy_arista#" {
		t.Errorf("unknown = %q", got)
	}
}

func TestEndFromSubMode(t *testing.T) {
	_, cli := configCLI(t)
	cli.Run("interface Ethernet1")
	if got := cli.Run("end"); got != "my_arista#" {
		t.Errorf("end = %q, want %q", got, "my_arista#")
	}
}

func TestWriteMemory_Commits(t *testing.T) {
	sw, cli := configCLI(t)
	commits := 0
	sw.Conf.OnCommit(func(_ *model.SwitchConfiguration) { commits++ })
	cli.Run("end")
	if got := cli.Run("write memory"); got != "Copy completed successfully.\nmy_arista#" {
		t.Errorf("write memory = %q", got)
	}
	cli.Run("copy running-config startup-config")
	if commits != 2 {
		t.Errorf("commits = %d, want 2", commits)
	}
}

// ===== Running Config Tests =====

func TestRunningConfig_RoundTrip(t *testing.T) {
	sw, cli := configCLI(t)
	cli.RunAll(
		"vlan 100", "name servers", "exit",
		"vrf definition CUSTOMER", "rd 65000:1", "exit",
		"interface Ethernet1", "description uplink", "switchport mode trunk", "switchport trunk allowed vlan 100", "exit",
		"interface Ethernet2", "switchport access vlan 100", "shutdown", "channel-group 1 mode active", "exit",
		"interface vlan 100", "vrf forwarding CUSTOMER", "ip address 10.0.0.1/24", "ip address 10.0.1.1/24 secondary",
		"ip helper-address 10.9.9.9", "ip virtual-router address 10.0.0.254", "load-interval 30", "no mpls ip",
		"vrrp 1 ip 10.0.0.253", "vrrp 1 priority 110", "vrrp 1 preempt delay minimum 60", "exit",
		"ip route 0.0.0.0/0 10.0.0.254",
		"end",
	)
	original := string(sw.RenderStartupConfig())

	fresh := newSwitch(core.Options{})
	if err := fresh.ApplyConfig(context.Background(), []byte(original)); err != nil {
		t.Fatalf("ApplyConfig() error = %v", err)
	}
	if replayed := string(fresh.RenderStartupConfig()); replayed != original {
		t.Errorf("replayed configuration differs:\n%s\nwant\n%s", replayed, original)
	}
	for _, want := range []string{
		"vlan 100\n   name servers\n",
		"interface Port-Channel1\n",
		"   channel-group 1 mode active\n",
		"   vrf forwarding CUSTOMER\n   ip address 10.0.0.1/24\n   ip address 10.0.1.1/24 secondary\n",
		"   vrrp 1 preempt delay minimum 60\n",
		"ip route 0.0.0.0/0 10.0.0.254\n",
	} {
		if !strings.Contains(original, want) {
			t.Errorf("running-config missing %q", want)
		}
	}
}
