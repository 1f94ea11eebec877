package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newtron-network/fakeswitches/pkg/cli"
	"github.com/newtron-network/fakeswitches/pkg/switches"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the switch models that can be emulated",
	Run: func(cmd *cobra.Command, args []string) {
		t := cli.NewTable(os.Stdout, "MODEL", "VENDOR", "TRANSPORTS", "DESCRIPTION")
		for _, m := range switches.Models() {
			t.Row(m.Name, m.Vendor, strings.Join(m.Transports, ","), m.Description)
		}
		t.Flush()
	},
}
