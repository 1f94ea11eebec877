// Fakeswitch - multi-vendor network switch emulator
//
// Serves emulated Cisco, Arista, Brocade, Dell and Juniper switches over
// SSH, telnet, eAPI and NETCONF so automation can be tested without
// hardware.
//
// Examples:
//
//	fakeswitch serve --model cisco_generic --ssh 2222 --telnet 2323
//	fakeswitch serve --config switches.yaml --redis 127.0.0.1:6379
//	fakeswitch console --model dell_generic
//	fakeswitch models
//
// Every flag can also be set from the environment as FAKESWITCH_<FLAG>,
// for example FAKESWITCH_REDIS=127.0.0.1:6379.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/newtron-network/fakeswitches/pkg/audit"
	"github.com/newtron-network/fakeswitches/pkg/settings"
	"github.com/newtron-network/fakeswitches/pkg/util"
	"github.com/newtron-network/fakeswitches/pkg/version"
)

var userSettings *settings.Settings

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "fakeswitch",
	Short:             "Multi-vendor network switch emulator",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		userSettings, err = settings.Load()
		if err != nil {
			util.Warnf("Could not load settings: %v", err)
			userSettings = &settings.Settings{}
		}

		level := viper.GetString("log-level")
		if viper.GetBool("verbose") {
			level = "debug"
		}
		if err := util.ConfigureLogging(level, viper.GetBool("log-json")); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}

		if isSettingsOrHelp(cmd) {
			return nil
		}
		return initAudit()
	},
}

// initAudit points the default audit logger at the audit file.
func initAudit() error {
	path := viper.GetString("audit-log")
	if path == "" {
		path = userSettings.GetAuditLog()
	}
	logger, err := audit.NewFileLogger(path, audit.RotationConfig{
		MaxSize:    10 * 1024 * 1024, // 10MB
		MaxBackups: 10,
	})
	if err != nil {
		util.Warnf("Could not initialize audit logging: %v", err)
		return nil
	}
	audit.SetDefaultLogger(logger)
	return nil
}

func isSettingsOrHelp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "settings", "help", "version", "models":
			return true
		}
	}
	return false
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Debug logging")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.Bool("log-json", false, "Log in JSON")
	flags.String("audit-log", "", "Audit log file (default ~/.fakeswitch/audit.log)")
	for _, name := range []string{"verbose", "log-level", "log-json", "audit-log"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}

	viper.SetEnvPrefix("fakeswitch")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddGroup(
		&cobra.Group{ID: "run", Title: "Emulation:"},
		&cobra.Group{ID: "meta", Title: "Configuration & Meta:"},
	)
	for _, cmd := range []*cobra.Command{serveCmd, consoleCmd, modelsCmd, startupCmd} {
		cmd.GroupID = "run"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{settingsCmd, auditCmd, accessCmd, versionCmd} {
		cmd.GroupID = "meta"
		rootCmd.AddCommand(cmd)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		if version.Version == "dev" {
			fmt.Println("fakeswitch dev build (use 'make build' for version info)")
			return
		}
		fmt.Println(version.Info())
	},
}
