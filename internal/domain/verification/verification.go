// Package verification holds the value types of emailed one-time codes.
package verification

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/kailas-cloud/nutrisearch/internal/domain"
)

// CodeLength is the number of decimal digits in a code.
const CodeLength = 6

// Purpose says what a code unlocks; it selects the email template.
type Purpose string

// Known purposes.
const (
	PurposeEmailVerification Purpose = "email_verification"
	PurposePasswordReset     Purpose = "password_reset"
	PurposeMFA               Purpose = "mfa"
)

// ParsePurpose validates a purpose name.
func ParsePurpose(s string) (Purpose, error) {
	switch p := Purpose(strings.TrimSpace(s)); p {
	case PurposeEmailVerification, PurposePasswordReset, PurposeMFA:
		return p, nil
	default:
		return "", domain.Invalidf("unknown purpose %q", s)
	}
}

// ParseEmail validates a single bare address and returns it lowercased.
func ParseEmail(s string) (string, error) {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", domain.Invalidf("invalid email address")
	}
	return strings.ToLower(addr.Address), nil
}

// ValidateCode checks the shape of a submitted code before any store lookup.
func ValidateCode(code string) error {
	if len(code) != CodeLength {
		return fmt.Errorf("code must have %d digits: %w", CodeLength, domain.ErrCodeInvalid)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return fmt.Errorf("code must be numeric: %w", domain.ErrCodeInvalid)
		}
	}
	return nil
}

// Challenge is an issued, not yet verified code.
type Challenge struct {
	id        string
	expiresAt time.Time
}

// NewChallenge creates a Challenge.
func NewChallenge(id string, expiresAt time.Time) Challenge {
	return Challenge{id: id, expiresAt: expiresAt}
}

// ID returns the challenge identifier.
func (c Challenge) ID() string { return c.id }

// ExpiresAt returns when the code stops being accepted.
func (c Challenge) ExpiresAt() time.Time { return c.expiresAt }

// Message is an email carrying a code.
type Message struct {
	To      string
	Subject string
	Body    string
}

// NewMessage renders the email for purpose.
func NewMessage(to string, purpose Purpose, code string, ttl time.Duration) Message {
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	var subject, lead string
	switch purpose {
	case PurposePasswordReset:
		subject, lead = "Password Reset Code", "Your password reset code is"
	case PurposeMFA:
		subject, lead = "Your MFA Code", "Your MFA verification code is"
	default:
		subject, lead = "Verify your email", "Your email verification code is"
	}

	return Message{
		To:      to,
		Subject: subject,
		Body:    fmt.Sprintf("%s: %s\n\nIt expires in %d minutes. If you did not request it, ignore this email.", lead, code, minutes),
	}
}
