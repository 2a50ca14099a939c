// Package verification issues and checks emailed one-time codes.
package verification

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/nutrisearch/internal/domain"
	domverify "github.com/kailas-cloud/nutrisearch/internal/domain/verification"
	"github.com/kailas-cloud/nutrisearch/internal/logger"
	"github.com/kailas-cloud/nutrisearch/internal/metrics"
)

// Defaults applied when Config leaves a field zero.
const (
	DefaultTTL         = 10 * time.Minute
	DefaultMaxAttempts = 5
)

// mailSource labels mail failures as an upstream outage.
const mailSource = "mail"

var codeSpace = big.NewInt(1_000_000)

// Config holds verification settings.
type Config struct {
	TTL         time.Duration
	MaxAttempts int64
	// Random is the entropy source for codes; nil means crypto/rand.
	Random io.Reader
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// Service issues and verifies codes.
type Service struct {
	repo        Repository
	mailer      Mailer
	ttl         time.Duration
	maxAttempts int64
	random      io.Reader
	now         func() time.Time
	logger      *zap.Logger
}

// New creates a verification service.
func New(repo Repository, mailer Mailer, cfg Config, logger *zap.Logger) *Service {
	s := &Service{
		repo:        repo,
		mailer:      mailer,
		ttl:         cfg.TTL,
		maxAttempts: cfg.MaxAttempts,
		random:      cfg.Random,
		now:         cfg.Now,
		logger:      logger,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = DefaultMaxAttempts
	}
	if s.random == nil {
		s.random = rand.Reader
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Issue creates a challenge for email and mails its code. Only the code's SHA-256
// is stored. If mailing fails the challenge is discarded.
func (s *Service) Issue(ctx context.Context, email, purpose string) (domverify.Challenge, error) {
	addr, err := domverify.ParseEmail(email)
	if err != nil {
		return domverify.Challenge{}, err
	}
	p, err := domverify.ParsePurpose(purpose)
	if err != nil {
		return domverify.Challenge{}, err
	}

	code, err := s.generateCode()
	if err != nil {
		s.count("issue", "error")
		return domverify.Challenge{}, fmt.Errorf("generate code: %w", err)
	}

	id := uuid.NewString()
	expiresAt := s.now().Add(s.ttl)

	if err := s.repo.Save(ctx, id, hashCode(code), s.ttl); err != nil {
		s.count("issue", "error")
		return domverify.Challenge{}, fmt.Errorf("save challenge: %w", err)
	}

	if err := s.mailer.Send(ctx, domverify.NewMessage(addr, p, code, s.ttl)); err != nil {
		s.count("issue", "error")
		if delErr := s.repo.Delete(ctx, id); delErr != nil {
			logger.FromContext(ctx, s.logger).Warn("failed to discard unsent challenge",
				zap.String("challenge_id", id), zap.Error(delErr))
		}
		return domverify.Challenge{}, fmt.Errorf("send code: %w", domain.WrapSourceError(mailSource, err))
	}

	s.count("issue", "ok")
	logger.FromContext(ctx, s.logger).Info("verification code issued",
		zap.String("challenge_id", id), zap.String("purpose", string(p)))

	return domverify.NewChallenge(id, expiresAt), nil
}

// Verify checks code against challenge id. Every check of a live challenge counts
// toward the attempt limit; a correct code consumes the challenge.
func (s *Service) Verify(ctx context.Context, id, code string) error {
	if _, err := uuid.Parse(id); err != nil {
		s.count("verify", "expired")
		return fmt.Errorf("unknown challenge: %w", domain.ErrCodeExpired)
	}
	if err := domverify.ValidateCode(code); err != nil {
		s.count("verify", "invalid")
		return err
	}

	stored, err := s.repo.CodeHash(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrCodeExpired) {
			s.count("verify", "expired")
			return err
		}
		s.count("verify", "error")
		return fmt.Errorf("load challenge: %w", err)
	}

	attempts, err := s.repo.IncrAttempts(ctx, id, s.ttl)
	if err != nil {
		s.count("verify", "error")
		return fmt.Errorf("count attempt: %w", err)
	}
	if attempts > s.maxAttempts {
		s.count("verify", "too_many")
		return domain.ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(hashCode(code)), []byte(stored)) != 1 {
		s.count("verify", "invalid")
		return domain.ErrCodeInvalid
	}

	if err := s.repo.Consume(ctx, id); err != nil {
		if errors.Is(err, domain.ErrCodeExpired) {
			s.count("verify", "expired")
			return fmt.Errorf("challenge already used: %w", err)
		}
		s.count("verify", "error")
		return fmt.Errorf("consume challenge: %w", err)
	}
	s.count("verify", "ok")
	return nil
}

// generateCode returns a uniformly random zero-padded 6-digit code.
func (s *Service) generateCode() (string, error) {
	n, err := rand.Int(s.random, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", domverify.CodeLength, n.Int64()), nil
}

func (s *Service) count(op, outcome string) {
	metrics.VerificationTotal.WithLabelValues(op, outcome).Inc()
}

func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
