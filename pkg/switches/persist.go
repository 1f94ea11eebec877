package switches

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/newtron-network/fakeswitches/pkg/model"
	"github.com/newtron-network/fakeswitches/pkg/store"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

// saveTimeout bounds one startup-config write.
const saveTimeout = 5 * time.Second

// Attach connects a switch to a startup store under name: a saved
// configuration is replayed now, and every later commit is written back.
// The name is the definition name, not the hostname, which can change.
func Attach(ctx context.Context, name string, c Core, st store.Store) error {
	conf := c.Configuration()
	log := util.WithSwitch(name)

	saved, err := st.Load(ctx, name)
	switch {
	case errors.Is(err, util.ErrNotFound):
		log.Debug("no startup configuration saved")
	case err != nil:
		return fmt.Errorf("loading startup config of %s: %w", name, err)
	case saved.Model != "" && saved.Model != c.Model():
		log.Warnf("ignoring startup configuration saved by model %s", saved.Model)
	default:
		if err := c.ApplyConfig(ctx, saved.Config); err != nil {
			return fmt.Errorf("replaying startup config of %s: %w", name, err)
		}
		log.Infof("startup configuration from %s replayed", saved.SavedAt.Format(time.RFC3339))
	}

	conf.OnCommit(func(conf *model.SwitchConfiguration) {
		saveCtx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		err := st.Save(saveCtx, store.Startup{
			Switch: name,
			Model:  c.Model(),
			Config: c.RenderStartupConfig(),
		})
		if err != nil {
			log.Errorf("saving startup config: %v", err)
			return
		}
		log.Info("startup configuration saved")
	})
	return nil
}
