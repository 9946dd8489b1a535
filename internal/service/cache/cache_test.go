package cache

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func newTestCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	c, err := NewFromURL(context.Background(), fmt.Sprintf("redis://%s/0", mr.Addr()), nil)
	if err != nil {
		t.Fatalf("NewFromURL: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

type payload struct {
	Name  string   `json:"name"`
	Moves []string `json:"moves"`
}

func TestSetGetDel(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	in := payload{Name: "game", Moves: []string{"e2e4", "e7e5"}}
	if err := c.Set(ctx, "k", in, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if ttl := mr.TTL("k"); ttl != time.Minute {
		t.Fatalf("ttl = %v, want 1m", ttl)
	}

	var out payload
	if err := c.Get(ctx, "k", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Name != "game" || len(out.Moves) != 2 {
		t.Fatalf("out = %+v", out)
	}

	if err := c.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	var missing payload
	if err := c.Get(ctx, "k", &missing); err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing.Name != "" {
		t.Fatalf("missing key filled dest: %+v", missing)
	}
}

func TestGetCorruptPayload(t *testing.T) {
	c, mr := newTestCache(t)
	if err := mr.Set("bad", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	var out payload
	if err := c.Get(context.Background(), "bad", &out); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestKeys(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	for _, k := range []string{"chess:sessions:a", "chess:sessions:b", "other"} {
		if err := c.Set(ctx, k, payload{Name: k}, 0); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}
	keys, err := c.Keys(ctx, "chess:sessions:*")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "chess:sessions:a" || keys[1] != "chess:sessions:b" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestParseRedisURL(t *testing.T) {
	opts, err := ParseRedisURL("redis://:secret@localhost:6380/3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.Password != "secret" || opts.DB != 3 {
		t.Fatalf("opts = %+v", opts)
	}
	if _, err := ParseRedisURL("http://localhost"); err == nil {
		t.Fatalf("expected scheme error")
	}
	if _, err := ParseRedisURL("redis://localhost/x"); err == nil {
		t.Fatalf("expected db error")
	}
}
