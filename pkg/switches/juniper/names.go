package juniper

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/newtron-network/fakeswitches/pkg/datastore"
	"github.com/newtron-network/fakeswitches/pkg/netconf"
)

const (
	maxPortNumber    = 47
	maxAggregatedDev = 127
)

type interfaceKind int

const (
	physicalInterface interfaceKind = iota
	aggregatedInterface
	irbInterface
)

var (
	physicalName   = regexp.MustCompile(`^(ge|xe|et)-(\d+)/(\d+)/(\d+)(.*)$`)
	aggregatedName = regexp.MustCompile(`^ae(\d+)(.*)$`)
)

// parseInterfaceName classifies name and checks its numbering the way
// JunOS does when the edit is loaded.
func parseInterfaceName(name string) (interfaceKind, error) {
	path := datastore.EditPath("interfaces")
	if name == "irb" {
		return irbInterface, nil
	}
	if m := physicalName.FindStringSubmatch(name); m != nil {
		if m[5] != "" {
			return 0, netconf.NewInvalidValue(fmt.Sprintf("invalid trailing input '%s' in '%s'", m[5], name), path)
		}
		port, _ := strconv.Atoi(m[4])
		if port < 1 || port > maxPortNumber {
			return 0, netconf.NewInvalidValue(fmt.Sprintf("port value outside range 1..%d for '%d' in '%s'", maxPortNumber, port, name), path)
		}
		return physicalInterface, nil
	}
	if m := aggregatedName.FindStringSubmatch(name); m != nil {
		if m[2] != "" {
			return 0, netconf.NewInvalidValue(fmt.Sprintf("invalid trailing input '%s' in '%s'", m[2], name), path)
		}
		dev, _ := strconv.Atoi(m[1])
		if dev > maxAggregatedDev {
			return 0, netconf.NewInvalidValue(fmt.Sprintf("device value outside range 0..%d for '%d' in '%s'", maxAggregatedDev, dev, name), path)
		}
		return aggregatedInterface, nil
	}
	return 0, netconf.NewInvalidValue(fmt.Sprintf("invalid interface type in '%s'", name), path)
}
