package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"os/user"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/newtron-network/fakeswitches/pkg/config"
	"github.com/newtron-network/fakeswitches/pkg/session"
	"github.com/newtron-network/fakeswitches/pkg/switches"
	"github.com/newtron-network/fakeswitches/pkg/transport"
)

const (
	ctrlC = 0x03
	ctrlD = 0x04
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open a local CLI session on an emulated switch",
	Long: `Open a CLI session on a switch in this terminal, without any network
listener. With --redis the saved configuration of the switch is loaded
first and "write memory" persists it.

Ctrl-D ends the session.

Examples:
  fakeswitch console --model cisco_generic
  fakeswitch console --model dell_generic --name lab-dell --redis 127.0.0.1:6379`,
	PreRun: func(cmd *cobra.Command, args []string) { bindFlags(cmd) },
	RunE: func(cmd *cobra.Command, args []string) error {
		model := viper.GetString("model")
		if model == "" {
			model = userSettings.DefaultModel
		}
		if model == "" {
			return fmt.Errorf("model required: use --model <model> (see 'fakeswitch models')")
		}
		name := viper.GetString("name")
		if name == "" {
			name = model
		}

		c, err := switches.New(model, switches.Options{
			Name:        name,
			AutoEnabled: viper.GetBool("auto-enabled"),
		})
		if err != nil {
			return err
		}
		if c.NetconfResponder("") != nil {
			return fmt.Errorf("model %s has no CLI; connect with a NETCONF client to 'serve --ssh'", model)
		}

		st, err := openStore(cmd.Context(), config.StoreConfig{
			RedisAddr: viper.GetString("redis"),
			RedisDB:   viper.GetInt("redis-db"),
		})
		if err != nil {
			return err
		}
		defer st.Close()
		if err := switches.Attach(cmd.Context(), name, c, st); err != nil {
			return err
		}

		username := currentUser()

		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return runLines(c, username, os.Stdin, os.Stdout)
		}
		state, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("raw terminal: %w", err)
		}
		defer term.Restore(fd, state)
		return runRaw(c, username, os.Stdin, os.Stdout)
	},
}

func consoleOptions(username string, echo bool) session.Options {
	return session.Options{Echo: echo, User: username, Transport: "console"}
}

// runRaw feeds keystrokes from a raw terminal.
func runRaw(c switches.Core, username string, in io.Reader, out io.Writer) error {
	sess, err := c.NewSession(transport.NewCRLFWriter(out), consoleOptions(username, true))
	if err != nil {
		return err
	}
	sess.Start()
	defer sess.Close()

	buf := make([]byte, 256)
	for {
		n, err := in.Read(buf)
		data := buf[:n]
		quit := bytes.IndexAny(data, string([]byte{ctrlC, ctrlD}))
		if quit >= 0 {
			data = data[:quit]
		}
		if (len(data) > 0 && !sess.ReceiveBytes(data)) || quit >= 0 {
			io.WriteString(out, "\r\n")
			return nil
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// runLines feeds whole lines, as when commands are piped in.
func runLines(c switches.Core, username string, in io.Reader, out io.Writer) error {
	sess, err := c.NewSession(out, consoleOptions(username, false))
	if err != nil {
		return err
	}
	sess.Start()
	defer sess.Close()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if !sess.Receive(scanner.Text()) {
			break
		}
	}
	fmt.Fprintln(out)
	return scanner.Err()
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return "console"
}

func init() {
	flags := consoleCmd.Flags()
	flags.StringP("model", "m", "", "Switch model (see 'fakeswitch models')")
	flags.String("name", "", "Switch name used for saved configurations (default: model)")
	flags.Bool("auto-enabled", false, "Start in privileged mode")
	flags.String("redis", "", "Redis address for startup configurations")
	flags.Int("redis-db", 0, "Redis database number")
}
