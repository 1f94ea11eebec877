package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/newtron-network/fakeswitches/pkg/cli"
	"github.com/newtron-network/fakeswitches/pkg/config"
	"github.com/newtron-network/fakeswitches/pkg/store"
)

var startupCmd = &cobra.Command{
	Use:   "startup",
	Short: "Inspect saved startup configurations in Redis",
	Long: `Inspect the startup configurations switches saved to Redis.

Examples:
  fakeswitch startup list --redis 127.0.0.1:6379
  fakeswitch startup show core1 --redis 127.0.0.1:6379
  fakeswitch startup delete core1 --redis 127.0.0.1:6379`,
}

func withStore(cmd *cobra.Command, fn func(st store.Store) error) error {
	addr := viper.GetString("redis")
	if addr == "" {
		return fmt.Errorf("redis address required: use --redis <addr> or FAKESWITCH_REDIS")
	}
	st, err := openStore(cmd.Context(), config.StoreConfig{RedisAddr: addr, RedisDB: viper.GetInt("redis-db")})
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

var startupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved switches",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(st store.Store) error {
			names, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			t := cli.NewTable(os.Stdout, "SWITCH", "MODEL", "SAVED", "SIZE")
			for _, name := range names {
				s, err := st.Load(cmd.Context(), name)
				if err != nil {
					t.Row(name, "-", cli.State("error"), "-")
					continue
				}
				t.Row(name, s.Model, s.SavedAt.Format("2006-01-02 15:04:05"), fmt.Sprintf("%d bytes", len(s.Config)))
			}
			t.Flush()
			return nil
		})
	},
}

var startupShowCmd = &cobra.Command{
	Use:   "show <switch>",
	Short: "Print a saved startup configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(st store.Store) error {
			s, err := st.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("! %s (%s), saved %s\n", s.Switch, s.Model, s.SavedAt.Format("2006-01-02 15:04:05"))
			os.Stdout.Write(s.Config)
			return nil
		})
	},
}

var startupDeleteCmd = &cobra.Command{
	Use:   "delete <switch>",
	Short: "Delete a saved startup configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(st store.Store) error {
			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted startup configuration of %s\n", args[0])
			return nil
		})
	},
}

func init() {
	startupCmd.PersistentFlags().String("redis", "", "Redis address")
	startupCmd.PersistentFlags().Int("redis-db", 0, "Redis database number")
	for _, cmd := range []*cobra.Command{startupListCmd, startupShowCmd, startupDeleteCmd} {
		cmd.PreRun = func(cmd *cobra.Command, args []string) { bindFlags(cmd) }
		startupCmd.AddCommand(cmd)
	}
}
