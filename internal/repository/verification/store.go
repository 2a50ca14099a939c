// Package verification keeps hashed verification codes and their attempt counters
// in Valkey/Redis. Both keys share the challenge TTL.
package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/nutrisearch/internal/db"
	"github.com/kailas-cloud/nutrisearch/internal/domain"
)

// store is the consumer interface for verification operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	GetDel(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// Store persists challenges under {prefix}{id} and {prefix}{id}:attempts.
type Store struct {
	store  store
	prefix string
}

// New creates a verification store. prefix is e.g. "nutrisearch:verify:".
func New(s store, prefix string) *Store {
	return &Store{store: s, prefix: prefix}
}

// Save stores the code hash of a new challenge.
func (s *Store) Save(ctx context.Context, id, codeHash string, ttl time.Duration) error {
	if err := s.store.SetWithTTL(ctx, s.codeKey(id), []byte(codeHash), ttl); err != nil {
		return fmt.Errorf("verification SET %s: %w", id, err)
	}
	return nil
}

// CodeHash returns the stored hash, or domain.ErrCodeExpired when the challenge is
// unknown or has expired.
func (s *Store) CodeHash(ctx context.Context, id string) (string, error) {
	data, err := s.store.Get(ctx, s.codeKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return "", domain.ErrCodeExpired
		}
		return "", fmt.Errorf("verification GET %s: %w", id, err)
	}
	return string(data), nil
}

// IncrAttempts counts one verification attempt and returns the running total.
func (s *Store) IncrAttempts(ctx context.Context, id string, ttl time.Duration) (int64, error) {
	key := s.attemptsKey(id)
	n, err := s.store.IncrBy(ctx, key, 1)
	if err != nil {
		return 0, fmt.Errorf("verification INCRBY %s: %w", id, err)
	}

	// Set TTL only if the key has no expiry yet (NX, not reset on repeat).
	if err := s.store.Expire(ctx, key, ttl, true); err != nil {
		return 0, fmt.Errorf("verification EXPIRE %s: %w", id, err)
	}
	return n, nil
}

// Consume atomically removes the code of challenge id, then its attempt counter.
// Only one caller can consume a challenge; the others get domain.ErrCodeExpired.
func (s *Store) Consume(ctx context.Context, id string) error {
	if _, err := s.store.GetDel(ctx, s.codeKey(id)); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ErrCodeExpired
		}
		return fmt.Errorf("verification GETDEL %s: %w", id, err)
	}
	if err := s.store.Del(ctx, s.attemptsKey(id)); err != nil {
		return fmt.Errorf("verification DEL %s: %w", id, err)
	}
	return nil
}

// Delete removes a challenge and its attempt counter.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.store.Del(ctx, s.codeKey(id), s.attemptsKey(id)); err != nil {
		return fmt.Errorf("verification DEL %s: %w", id, err)
	}
	return nil
}

func (s *Store) codeKey(id string) string     { return s.prefix + id }
func (s *Store) attemptsKey(id string) string { return s.prefix + id + ":attempts" }
