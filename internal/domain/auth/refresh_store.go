package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const refreshKeyPrefix = "refresh:"

// RefreshStore keeps hashed refresh tokens until they expire or are revoked.
type RefreshStore interface {
	Save(ctx context.Context, tokenHash string, userID uuid.UUID, ttl time.Duration) error
	// Take returns the owner of tokenHash and removes it, so each refresh
	// token can be used once.
	Take(ctx context.Context, tokenHash string) (uuid.UUID, error)
	Delete(ctx context.Context, tokenHash string) error
}

// NewRefreshStore returns a Redis store, or a process-local one when Redis
// is not configured.
func NewRefreshStore(client *redis.Client) RefreshStore {
	if client == nil {
		return newMemoryRefreshStore()
	}
	return &redisRefreshStore{client: client}
}

type redisRefreshStore struct {
	client *redis.Client
}

func (s *redisRefreshStore) Save(ctx context.Context, tokenHash string, userID uuid.UUID, ttl time.Duration) error {
	return s.client.Set(ctx, refreshKeyPrefix+tokenHash, userID.String(), ttl).Err()
}

func (s *redisRefreshStore) Take(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	val, err := s.client.GetDel(ctx, refreshKeyPrefix+tokenHash).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrInvalidRefreshToken
		}
		return uuid.Nil, err
	}
	return uuid.Parse(val)
}

func (s *redisRefreshStore) Delete(ctx context.Context, tokenHash string) error {
	return s.client.Del(ctx, refreshKeyPrefix+tokenHash).Err()
}

type memoryRefreshEntry struct {
	userID    uuid.UUID
	expiresAt time.Time
}

type memoryRefreshStore struct {
	mu    sync.Mutex
	items map[string]memoryRefreshEntry
	now   func() time.Time
}

func newMemoryRefreshStore() *memoryRefreshStore {
	return &memoryRefreshStore{items: make(map[string]memoryRefreshEntry), now: time.Now}
}

func (s *memoryRefreshStore) Save(_ context.Context, tokenHash string, userID uuid.UUID, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[tokenHash] = memoryRefreshEntry{userID: userID, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *memoryRefreshStore) Take(_ context.Context, tokenHash string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[tokenHash]
	if !ok {
		return uuid.Nil, ErrInvalidRefreshToken
	}
	delete(s.items, tokenHash)
	if s.now().After(entry.expiresAt) {
		return uuid.Nil, ErrInvalidRefreshToken
	}
	return entry.userID, nil
}

func (s *memoryRefreshStore) Delete(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, tokenHash)
	return nil
}
