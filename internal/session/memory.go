package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore keeps values in process memory. Used for single-instance
// deployments and tests. Expired entries are swept in the background, so
// abandoned sessions do not accumulate.
type MemoryStore struct {
	cache *expirable.LRU[string, []byte]
}

// NewMemoryStore returns a store whose entries expire ttl after their last
// save. A zero ttl keeps entries forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{cache: expirable.NewLRU[string, []byte](0, nil, ttl)}
}

func (s *MemoryStore) Load(_ context.Context, sessionID, key string, dst any) (bool, error) {
	k, err := storageKey(sessionID, key)
	if err != nil {
		return false, err
	}
	raw, ok := s.cache.Get(k)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (s *MemoryStore) Save(_ context.Context, sessionID, key string, v any) error {
	k, err := storageKey(sessionID, key)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.cache.Add(k, raw)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID, key string) error {
	k, err := storageKey(sessionID, key)
	if err != nil {
		return err
	}
	s.cache.Remove(k)
	return nil
}

// Len reports how many live entries the store holds.
func (s *MemoryStore) Len() int { return s.cache.Len() }

func (s *MemoryStore) Close() error {
	s.cache.Purge()
	return nil
}
