package switches

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/newtron-network/fakeswitches/pkg/store"
	"github.com/newtron-network/fakeswitches/pkg/switches/dell"
	"github.com/newtron-network/fakeswitches/pkg/switches/juniper"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

// ===== Registry Tests =====

func TestModels(t *testing.T) {
	models := Models()
	if len(models) != 10 {
		t.Fatalf("Models() returned %d models, want 10", len(models))
	}
	for i := 1; i < len(models); i++ {
		if models[i-1].Name >= models[i].Name {
			t.Errorf("Models() not sorted: %s before %s", models[i-1].Name, models[i].Name)
		}
	}
}

func TestNew(t *testing.T) {
	for _, info := range Models() {
		t.Run(info.Name, func(t *testing.T) {
			c, err := New(info.Name, Options{Name: "sw1"})
			if err != nil {
				t.Fatalf("New(%q) error = %v", info.Name, err)
			}
			if c.Model() != info.Name {
				t.Errorf("Model() = %q, want %q", c.Model(), info.Name)
			}
			if c.Configuration().Name != "sw1" {
				t.Errorf("Configuration().Name = %q, want sw1", c.Configuration().Name)
			}
			if (c.NetconfResponder("1") != nil) != (info.Vendor == "juniper") {
				t.Errorf("NetconfResponder() presence wrong for %s", info.Name)
			}
			if (c.HTTPHandler() != nil) != (info.Vendor == "arista") {
				t.Errorf("HTTPHandler() presence wrong for %s", info.Name)
			}
		})
	}
}

func TestNew_Unknown(t *testing.T) {
	_, err := New("nortel_generic", Options{})
	if !errors.Is(err, util.ErrNotFound) {
		t.Errorf("New(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestNew_DefaultName(t *testing.T) {
	c, err := New(dell.Generic, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if c.Configuration().Name != "switch" {
		t.Errorf("Configuration().Name = %q, want switch", c.Configuration().Name)
	}
}

func TestLookup(t *testing.T) {
	info, ok := Lookup(juniper.QFXCopperGeneric)
	if !ok {
		t.Fatal("Lookup() did not find the QFX model")
	}
	if len(info.Transports) != 1 || info.Transports[0] != "ssh" {
		t.Errorf("Transports = %v, want [ssh]", info.Transports)
	}
	if _, ok := Lookup("nope"); ok {
		t.Error("Lookup(nope) should fail")
	}
}

func TestRegister_Duplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Register() of a duplicate model should panic")
		}
	}()
	Register(ModelInfo{Name: dell.Generic})
}

// ===== Persistence Tests =====

func TestAttach_SavesOnCommit(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	c, _ := New(dell.Generic, Options{Name: "edge"})
	if err := Attach(ctx, "edge", c, st); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if _, err := st.Load(ctx, "edge"); !errors.Is(err, util.ErrNotFound) {
		t.Fatalf("nothing should be saved before a commit, got %v", err)
	}

	conf := c.Configuration()
	conf.AddVlan(conf.NewVlan(10, ""))
	conf.Lock()
	conf.Commit()
	conf.Unlock()

	saved, err := st.Load(ctx, "edge")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if saved.Model != dell.Generic {
		t.Errorf("Model = %q, want %q", saved.Model, dell.Generic)
	}
	if !strings.Contains(string(saved.Config), "vlan 10") {
		t.Errorf("saved config does not hold vlan 10:\n%s", saved.Config)
	}

	restarted, _ := New(dell.Generic, Options{Name: "edge"})
	if err := Attach(ctx, "edge", restarted, st); err != nil {
		t.Fatalf("Attach() replay error = %v", err)
	}
	if restarted.Configuration().GetVlan(10) == nil {
		t.Error("VLAN 10 not replayed from the startup store")
	}
}

func TestAttach_IgnoresOtherModel(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	if err := st.Save(ctx, store.Startup{Switch: "edge", Model: juniper.Generic, Config: []byte("<configuration/>")}); err != nil {
		t.Fatal(err)
	}

	c, _ := New(dell.Generic, Options{Name: "edge"})
	if err := Attach(ctx, "edge", c, st); err != nil {
		t.Errorf("Attach() error = %v", err)
	}
}
