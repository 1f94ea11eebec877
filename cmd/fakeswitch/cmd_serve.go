package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/newtron-network/fakeswitches/pkg/cli"
	"github.com/newtron-network/fakeswitches/pkg/config"
	"github.com/newtron-network/fakeswitches/pkg/store"
	"github.com/newtron-network/fakeswitches/pkg/util"
	"github.com/newtron-network/fakeswitches/pkg/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run emulated switches",
	Long: `Run one switch described by flags, or every switch of a definition file.

Listeners accept "2222", ":2222" or "10.0.0.1:2222". A bare port binds the
listen host (default 127.0.0.1).

Saved configurations ("write memory", NETCONF commit) go to Redis when
--redis is set and are replayed when the switch starts again.

Examples:
  fakeswitch serve --model cisco_generic --ssh 2222
  fakeswitch serve --model arista_generic --http 8080 --auto-enabled
  fakeswitch serve --model juniper_generic --ssh 830 --commit-delay 2s
  fakeswitch serve --config switches.yaml --redis 127.0.0.1:6379`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := serveConfig()
		if err != nil {
			return err
		}

		st, err := openStore(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		f, err := startFleet(ctx, cfg, st)
		if err != nil {
			return err
		}
		printListeners(f)

		<-ctx.Done()
		fmt.Println("\nShutting down...")
		return f.Shutdown(os.Stdout)
	},
}

// serveConfig loads the definition file, or builds a single switch from
// the flags when none is given.
func serveConfig() (*config.Config, error) {
	path := viper.GetString("config")
	if path == "" {
		path = userSettings.ConfigPath
	}

	var cfg *config.Config
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	} else {
		model := viper.GetString("model")
		if model == "" {
			model = userSettings.DefaultModel
		}
		var err error
		if cfg, err = flagConfig(model); err != nil {
			return nil, err
		}
	}

	if host := viper.GetString("listen-host"); host != "" {
		cfg.ListenHost = host
	} else if cfg.ListenHost == "" {
		cfg.ListenHost = userSettings.GetListenHost()
	}
	if addr := viper.GetString("redis"); addr != "" {
		cfg.Store.RedisAddr = addr
		cfg.Store.RedisDB = viper.GetInt("redis-db")
	}
	return cfg, nil
}

// flagConfig describes the switch given on the command line.
func flagConfig(model string) (*config.Config, error) {
	if model == "" {
		return nil, fmt.Errorf("model required: use --model <model> or --config <file> (see 'fakeswitch models')")
	}
	name := viper.GetString("name")
	if name == "" {
		name = model
	}
	sw := config.SwitchConfig{
		Name:                name,
		Model:               model,
		Hostname:            viper.GetString("hostname"),
		PrivilegedPasswords: viper.GetStringSlice("enable-password"),
		AutoEnabled:         viper.GetBool("auto-enabled"),
		CommitDelay:         viper.GetString("commit-delay"),
		SSH:                 viper.GetString("ssh"),
		Telnet:              viper.GetString("telnet"),
		HTTP:                viper.GetString("http"),
	}
	if sw.SSH == "" && sw.Telnet == "" && sw.HTTP == "" {
		return nil, fmt.Errorf("no listener: use --ssh, --telnet or --http")
	}
	cfg := &config.Config{Switches: []config.SwitchConfig{sw}}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore connects to Redis, or keeps startup configurations in memory.
func openStore(ctx context.Context, sc config.StoreConfig) (store.Store, error) {
	if sc.RedisAddr == "" {
		util.Infof("No --redis given: saved configurations are lost on exit")
		return store.NewMemoryStore(), nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	rs := store.NewRedisStore(sc.RedisAddr, sc.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rs.Ping(pingCtx); err != nil {
		rs.Close()
		return nil, fmt.Errorf("connecting to redis %s: %w", sc.RedisAddr, err)
	}
	return rs, nil
}

func printListeners(f *fleet) {
	fmt.Println(cli.Bold(fmt.Sprintf("fakeswitch %s: %d listener(s)", version.Version, len(f.listeners))))
	t := cli.NewTable(os.Stdout, "SWITCH", "MODEL", "TRANSPORT", "ADDRESS", "STATE")
	for _, l := range f.listeners {
		t.Row(l.Switch, l.Model, l.Transport, l.Addr, cli.State("listening"))
	}
	t.Flush()
}

func init() {
	flags := serveCmd.Flags()
	flags.StringP("config", "c", "", "Switch definition file (YAML)")
	flags.StringP("model", "m", "", "Switch model (see 'fakeswitch models')")
	flags.String("name", "", "Switch name used for saved configurations (default: model)")
	flags.String("hostname", "", "Hostname shown in prompts (default: name)")
	flags.StringSlice("enable-password", nil, "Privileged mode password (repeatable)")
	flags.Bool("auto-enabled", false, "Start CLI sessions in privileged mode")
	flags.String("commit-delay", "", "Delay applied to every commit, e.g. 500ms")
	flags.String("ssh", "", "SSH listener")
	flags.String("telnet", "", "Telnet listener")
	flags.String("http", "", "eAPI listener")
	flags.String("listen-host", "", "Address bare-port listeners bind")
	flags.String("redis", "", "Redis address for startup configurations")
	flags.Int("redis-db", 0, "Redis database number")
	serveCmd.PreRun = func(cmd *cobra.Command, args []string) { bindFlags(cmd) }
}

// bindFlags makes every local flag of cmd readable through viper, and so
// settable as FAKESWITCH_<FLAG>.
func bindFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		viper.BindPFlag(f.Name, f)
	})
}
