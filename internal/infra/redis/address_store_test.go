package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestAddressStoreSetsAndClearsKey(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewAddressStore(client, time.Hour)
	ctx := context.Background()

	if got, err := store.Load(ctx); err != nil || got != "" {
		t.Fatalf("expected empty load, got %q (%v)", got, err)
	}

	if err := store.Save(ctx, "0xabc"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists(addressKey) {
		t.Fatalf("expected redis key to be set")
	}
	if mr.TTL(addressKey) != time.Hour {
		t.Fatalf("expected ttl, got %v", mr.TTL(addressKey))
	}
	if got, _ := store.Load(ctx); got != "0xabc" {
		t.Fatalf("load = %q", got)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if mr.Exists(addressKey) {
		t.Fatalf("expected redis key to be removed")
	}
}
