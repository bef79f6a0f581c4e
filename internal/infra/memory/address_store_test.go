package memory

import (
	"context"
	"testing"
)

func TestAddressStoreLifecycle(t *testing.T) {
	store := NewAddressStore()
	ctx := context.Background()

	if err := store.Save(ctx, "0xabc"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got, _ := store.Load(ctx); got != "0xabc" {
		t.Fatalf("expected stored address, got %q", got)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got, _ := store.Load(ctx); got != "" {
		t.Fatalf("expected address cleared, got %q", got)
	}
}
