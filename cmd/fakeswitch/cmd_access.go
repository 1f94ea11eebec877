package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/newtron-network/fakeswitches/pkg/auth"
	"github.com/newtron-network/fakeswitches/pkg/cli"
	"github.com/newtron-network/fakeswitches/pkg/config"
)

var accessCmd = &cobra.Command{
	Use:   "access <user>",
	Short: "Show what a user may open",
	Long: `Show the permissions the access policy of a definition file grants a user.

Examples:
  fakeswitch access alice --config switches.yaml
  fakeswitch access bob --switch core1`,
	Args:   cobra.ExactArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) { bindFlags(cmd) },
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("config")
		if path == "" {
			path = userSettings.ConfigPath
		}
		if path == "" {
			return fmt.Errorf("no definition file: use --config or 'fakeswitch settings set config <file>'")
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		return printAccess(os.Stdout, auth.NewChecker(&cfg.Access), args[0], viper.GetString("switch"))
	},
}

// printAccess lists every standard permission of user on switchName, or
// globally when switchName is empty.
func printAccess(out io.Writer, checker *auth.Checker, user, switchName string) error {
	switch {
	case checker.Anonymous():
		fmt.Fprintln(out, "No users configured: every transport accepts anonymous logins.")
		return nil
	case checker.IsSuperUser(user):
		fmt.Fprintf(out, "%s is a superuser.\n\n", cli.Bold(user))
	}

	ctx := auth.NewContext().WithSwitch(switchName)
	t := cli.NewTable(out, "CATEGORY", "PERMISSION", "ACCESS")
	for _, cat := range auth.StandardCategories {
		for _, perm := range cat.Permissions {
			state := "ok"
			if err := checker.CheckUser(user, perm, ctx); err != nil {
				var pe *auth.PermissionError
				if !errors.As(err, &pe) {
					return err
				}
				state = "denied"
			}
			t.Row(cat.Name, string(perm), cli.State(state))
		}
	}
	t.Flush()

	var granted []string
	for _, p := range checker.ListPermissionsForUser(user) {
		granted = append(granted, string(p))
	}
	if len(granted) == 0 {
		granted = []string{"none"}
	}
	fmt.Fprintf(out, "\nGlobal grants: %s\n", strings.Join(granted, ", "))
	return nil
}

func init() {
	accessCmd.Flags().StringP("config", "c", "", "Switch definition file (YAML)")
	accessCmd.Flags().String("switch", "", "Check the permissions of this switch")
}
