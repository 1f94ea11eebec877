package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/newtron-network/fakeswitches/pkg/util"
)

// StartupTable is the hash prefix of saved configurations: one hash
// "STARTUP|<switch>" with fields config, model and saved_at.
const StartupTable = "STARTUP"

// RedisStore keeps startup configurations in Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to addr, database db.
func NewRedisStore(addr string, db int) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		}),
	}
}

// Ping checks the connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func redisKey(switchName string) string {
	return StartupTable + "|" + switchName
}

// Save implements Store. The hash is replaced in one MULTI/EXEC.
func (r *RedisStore) Save(ctx context.Context, s Startup) error {
	if s.SavedAt.IsZero() {
		s.SavedAt = time.Now()
	}
	key := redisKey(s.Switch)

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key,
		"config", string(s.Config),
		"model", s.Model,
		"saved_at", s.SavedAt.UTC().Format(time.RFC3339Nano),
	)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return fmt.Errorf("saving startup config of %s: %w", s.Switch, err)
	}
	util.WithSwitch(s.Switch).Debugf("startup config saved to redis (%d bytes)", len(s.Config))
	return nil
}

// Load implements Store.
func (r *RedisStore) Load(ctx context.Context, switchName string) (Startup, error) {
	vals, err := r.client.HGetAll(ctx, redisKey(switchName)).Result()
	if err != nil {
		return Startup{}, fmt.Errorf("reading startup config of %s: %w", switchName, err)
	}
	if len(vals) == 0 {
		return Startup{}, fmt.Errorf("%w: startup config of %s", util.ErrNotFound, switchName)
	}
	s := Startup{
		Switch: switchName,
		Model:  vals["model"],
		Config: []byte(vals["config"]),
	}
	if ts := vals["saved_at"]; ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			s.SavedAt = t
		}
	}
	return s, nil
}

// Delete implements Store.
func (r *RedisStore) Delete(ctx context.Context, switchName string) error {
	return r.client.Del(ctx, redisKey(switchName)).Err()
}

// List implements Store.
func (r *RedisStore) List(ctx context.Context) ([]string, error) {
	keys, err := r.client.Keys(ctx, StartupTable+"|*").Result()
	if err != nil {
		return nil, fmt.Errorf("scanning %s keys: %w", StartupTable, err)
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, strings.TrimPrefix(k, StartupTable+"|"))
	}
	sort.Strings(names)
	return names, nil
}

// Close implements Store.
func (r *RedisStore) Close() error {
	return r.client.Close()
}
