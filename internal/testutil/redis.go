//go:build integration

package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisAddr is FAKESWITCH_TEST_REDIS_ADDR, or the local default.
func RedisAddr() string {
	if addr := os.Getenv("FAKESWITCH_TEST_REDIS_ADDR"); addr != "" {
		return addr
	}
	return "127.0.0.1:6379"
}

// Context times out after 30s and is cancelled when the test ends.
func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// RedisDB gives a test direct access to one database of the test server,
// bypassing the store under test.
type RedisDB struct {
	t      *testing.T
	client *redis.Client
	Addr   string
	DB     int
}

// EmptyRedis skips the test when the server is unreachable. Otherwise it
// flushes database db and returns a handle on it.
func EmptyRedis(t *testing.T, db int) *RedisDB {
	t.Helper()
	addr := RedisAddr()
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	t.Cleanup(func() { client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("test Redis not reachable at %s: %v", addr, err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("flushing db %d: %v", db, err)
	}
	return &RedisDB{t: t, client: client, Addr: addr, DB: db}
}

// HSet writes fields into the hash at key.
func (r *RedisDB) HSet(key string, fields map[string]string) {
	r.t.Helper()
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	if err := r.client.HSet(context.Background(), key, values).Err(); err != nil {
		r.t.Fatalf("HSET %s: %v", key, err)
	}
}

func (r *RedisDB) HGetAll(key string) map[string]string {
	r.t.Helper()
	vals, err := r.client.HGetAll(context.Background(), key).Result()
	if err != nil {
		r.t.Fatalf("HGETALL %s: %v", key, err)
	}
	return vals
}

func (r *RedisDB) Exists(key string) bool {
	r.t.Helper()
	n, err := r.client.Exists(context.Background(), key).Result()
	if err != nil {
		r.t.Fatalf("EXISTS %s: %v", key, err)
	}
	return n > 0
}
