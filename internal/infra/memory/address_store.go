package memory

import (
	"context"
	"sync"
)

// AddressStore keeps the last connected wallet address for the life of the process.
type AddressStore struct {
	mu      sync.RWMutex
	address string
}

func NewAddressStore() *AddressStore {
	return &AddressStore{}
}

func (s *AddressStore) Load(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.address, nil
}

func (s *AddressStore) Save(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address = address
	return nil
}

func (s *AddressStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address = ""
	return nil
}
