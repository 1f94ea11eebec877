// Package dell10g emulates Dell Networking N-series switches on the Dell
// engine.
package dell10g

import (
	"strings"

	"github.com/newtron-network/fakeswitches/pkg/switches/core"
	"github.com/newtron-network/fakeswitches/pkg/switches/dell"
)

// Generic is the model name.
const Generic = "dell10g_generic"

const portPrefix = "tengigabitethernet "

// Dialect is the N4064F flavour of the Dell CLI.
func Dialect() dell.Dialect {
	short := func(name string) string { return "Te" + strings.TrimPrefix(name, portPrefix) }
	return dell.Dialect{
		Model: Generic,
		Ports: []string{
			portPrefix + "0/0/1", portPrefix + "0/0/2",
			portPrefix + "1/0/1", portPrefix + "1/0/2",
		},
		Label:       short,
		Header:      short,
		TrunkAll:    true,
		Description: "Dell Networking N4064F, 6.3.3.10, Linux 3.7.10-e500mc-fd9b6e53",
		Version:     "6.3.3.10",
	}
}

// New creates an N-series switch.
func New(opts core.Options) *dell.Core {
	return dell.NewWithDialect(Dialect(), opts)
}
