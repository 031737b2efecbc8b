package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/scouting-oidc/scouting-oidc/internal/auth"
)

// AttemptKeyPrefix namespaces pending attempts in a storage shared with sessions.
const AttemptKeyPrefix = "oidc_attempt:"

// StorageStateStore keeps pending attempts in a fiber storage.
// Consume is atomic within one process only; run several instances with the redis store.
type StorageStateStore struct {
	storage fiber.Storage
	mu      sync.Mutex
}

// NewStorageStateStore returns a store over storage.
func NewStorageStateStore(storage fiber.Storage) *StorageStateStore {
	return &StorageStateStore{storage: storage}
}

// Save implements auth.StateStore.
func (s *StorageStateStore) Save(_ context.Context, sessionID string, attempt *auth.PendingAuthAttempt, ttl time.Duration) error {
	out, err := json.Marshal(attempt)
	if err != nil {
		return err
	}

	return s.storage.Set(AttemptKeyPrefix+sessionID, out, ttl)
}

// Load implements auth.StateStore.
func (s *StorageStateStore) Load(_ context.Context, sessionID string) (*auth.PendingAuthAttempt, error) {
	return s.load(sessionID)
}

// Consume implements auth.StateStore.
func (s *StorageStateStore) Consume(_ context.Context, sessionID string) (*auth.PendingAuthAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	attempt, err := s.load(sessionID)
	if err != nil || attempt == nil {
		return nil, err
	}

	if err = s.storage.Delete(AttemptKeyPrefix + sessionID); err != nil {
		return nil, err
	}

	return attempt, nil
}

// Delete implements auth.StateStore.
func (s *StorageStateStore) Delete(_ context.Context, sessionID string) error {
	return s.storage.Delete(AttemptKeyPrefix + sessionID)
}

func (s *StorageStateStore) load(sessionID string) (*auth.PendingAuthAttempt, error) {
	raw, err := s.storage.Get(AttemptKeyPrefix + sessionID)
	if err != nil {
		return nil, err
	}

	return decodeAttempt(raw)
}

func decodeAttempt(raw []byte) (*auth.PendingAuthAttempt, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	attempt := new(auth.PendingAuthAttempt)
	if err := json.Unmarshal(raw, attempt); err != nil {
		return nil, err
	}

	return attempt, nil
}
