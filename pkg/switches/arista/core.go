// Package arista emulates Arista EOS switches over the CLI and the eAPI
// JSON-RPC endpoint.
package arista

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/processor"
	"github.com/newtron-network/fakeswitches/pkg/session"
	"github.com/newtron-network/fakeswitches/pkg/switches/core"
	"github.com/newtron-network/fakeswitches/pkg/transport/eapi"
)

// Generic is the model name.
const Generic = "arista_generic"

// Core is an Arista switch.
type Core struct {
	*core.Base
}

var _ core.Core = (*Core)(nil)

// New creates an Arista switch with Ethernet1-8.
func New(opts core.Options) *Core {
	c := &Core{Base: core.NewBase(Generic, opts, model.DefaultFactory())}
	for i := 1; i <= 8; i++ {
		c.AddPorts(fmt.Sprintf("Ethernet%d", i))
	}
	return c
}

// UnknownCommand writes the EOS parse error.
func UnknownCommand(w processor.Terminal, _, _ string) {
	w.Write("% Invalid input\n")
}

// NewSession implements core.Core.
func (c *Core) NewSession(out io.Writer, opts session.Options) (*session.Session, error) {
	if opts.UnknownCommand == nil {
		opts.UnknownCommand = UnknownCommand
	}
	return session.New(c.Conf, newDefault(c), out, opts), nil
}

// HTTPHandler serves eAPI.
func (c *Core) HTTPHandler() http.Handler {
	return eapi.NewHandler(c)
}

// ApplyConfig implements core.Core.
func (c *Core) ApplyConfig(_ context.Context, data []byte) error {
	c.Conf.Lock()
	defer c.Conf.Unlock()
	n := core.Replay(c.Conf, newConfig(c), data, core.ReplayOptions{
		IndentedBlocks: true,
		Skip:           func(line string) bool { return line == "end" || strings.HasPrefix(line, "!") },
	})
	c.Log.Debugf("replayed %d configuration lines", n)
	return nil
}

// RenderStartupConfig implements core.Core.
func (c *Core) RenderStartupConfig() []byte {
	return []byte(runningConfig(c.Conf))
}
