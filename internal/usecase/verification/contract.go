package verification

import (
	"context"
	"time"

	domverify "github.com/kailas-cloud/nutrisearch/internal/domain/verification"
)

// Repository stores hashed codes and attempt counters with expiry.
type Repository interface {
	Save(ctx context.Context, id, codeHash string, ttl time.Duration) error
	CodeHash(ctx context.Context, id string) (string, error)
	IncrAttempts(ctx context.Context, id string, ttl time.Duration) (int64, error)
	// Consume removes the challenge atomically; a challenge already consumed is
	// domain.ErrCodeExpired.
	Consume(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// Mailer delivers a rendered email.
type Mailer interface {
	Send(ctx context.Context, msg domverify.Message) error
}
