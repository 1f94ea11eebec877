//go:build integration

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/newtron-network/fakeswitches/internal/testutil"
	"github.com/newtron-network/fakeswitches/pkg/util"
)

const testDB = 9

func TestRedisStore_SaveLoad(t *testing.T) {
	db := testutil.EmptyRedis(t, testDB)

	ctx := context.Background()
	s := NewRedisStore(db.Addr, db.DB)
	defer s.Close()

	if err := s.Save(ctx, Startup{Switch: "my_switch", Model: "brocade_generic", Config: []byte("vlan 1 name DEFAULT-VLAN by port\n")}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	fields := db.HGetAll(redisKey("my_switch"))
	if fields["model"] != "brocade_generic" || fields["saved_at"] == "" {
		t.Errorf("hash fields = %v", fields)
	}

	got, err := s.Load(ctx, "my_switch")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got.Config) != "vlan 1 name DEFAULT-VLAN by port\n" || got.SavedAt.IsZero() {
		t.Errorf("got = %+v", got)
	}

	names, _ := s.List(ctx)
	if len(names) != 1 || names[0] != "my_switch" {
		t.Errorf("List() = %v", names)
	}

	s.Delete(ctx, "my_switch")
	if db.Exists(redisKey("my_switch")) {
		t.Error("hash still present after Delete")
	}
	if _, err := s.Load(ctx, "my_switch"); !errors.Is(err, util.ErrNotFound) {
		t.Errorf("Load() after Delete error = %v", err)
	}
}

func TestRedisStore_LoadWrittenByHand(t *testing.T) {
	db := testutil.EmptyRedis(t, testDB)

	db.HSet(redisKey("old"), map[string]string{
		"config":   "hostname old\n",
		"model":    "cisco_generic",
		"saved_at": "yesterday",
	})

	s := NewRedisStore(db.Addr, db.DB)
	defer s.Close()
	got, err := s.Load(testutil.Context(t), "old")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Model != "cisco_generic" || string(got.Config) != "hostname old\n" {
		t.Errorf("got = %+v", got)
	}
	if !got.SavedAt.IsZero() {
		t.Errorf("SavedAt = %v, want zero for an unparsable timestamp", got.SavedAt)
	}
}
