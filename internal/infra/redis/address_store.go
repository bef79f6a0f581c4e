package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const addressKey = "wallet:address"

// AddressStore persists the connected wallet address across runs.
type AddressStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAddressStore builds a store; ttl <= 0 keeps the address until cleared.
func NewAddressStore(client *redis.Client, ttl time.Duration) *AddressStore {
	if ttl < 0 {
		ttl = 0
	}
	return &AddressStore{client: client, ttl: ttl}
}

func (s *AddressStore) Load(ctx context.Context) (string, error) {
	address, err := s.client.Get(ctx, addressKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return address, err
}

func (s *AddressStore) Save(ctx context.Context, address string) error {
	return s.client.Set(ctx, addressKey, address, s.ttl).Err()
}

func (s *AddressStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, addressKey).Err()
}
