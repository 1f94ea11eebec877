package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newtron-network/fakeswitches/pkg/cli"
	"github.com/newtron-network/fakeswitches/pkg/settings"
)

func settingNames() string {
	var b strings.Builder
	for _, k := range settings.Keys {
		name := k.Name
		if k.Alias != "" {
			name += " (" + k.Alias + ")"
		}
		fmt.Fprintf(&b, "  %-25s %s\n", name, k.Help)
	}
	return b.String()
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage persistent settings",
	Long: "Defaults for flags, kept in " + settings.DefaultSettingsPath() + ".\n\n" + settingNames() + `
Examples:
  fakeswitch settings show
  fakeswitch settings set model cisco_generic
  fakeswitch settings set config /etc/fakeswitch/switches.yaml
  fakeswitch settings clear`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		fmt.Printf("Settings file: %s\n\n", settings.DefaultSettingsPath())

		t := cli.NewTable(os.Stdout, "SETTING", "VALUE", "")
		for _, k := range settings.Keys {
			switch value := k.Value(s); {
			case k.IsSet(s):
				t.Row(k.Name, value)
			case value != "":
				t.Row(k.Name, value, cli.Dim("(default)"))
			default:
				t.Row(k.Name, cli.Dim("(not set)"))
			}
		}
		t.Flush()
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <setting> <value>",
	Short: "Set a setting value",
	Long:  "Set a persistent setting.\n\n" + settingNames(),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		if !s.Set(args[0], args[1]) {
			return fmt.Errorf("unknown setting %q (see 'fakeswitch settings --help')", args[0])
		}
		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Printf("%s set to %s\n", args[0], args[1])
		return nil
	},
}

var settingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			s = &settings.Settings{}
		}
		s.Clear()
		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Println("Settings cleared.")
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsClearCmd)
}
