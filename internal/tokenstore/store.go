// Package tokenstore binds one-time booking tokens to the exact slot set a
// client was shown. Tokens are ephemeral: they never survive a process
// restart and every consume attempt destroys the binding.
package tokenstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/Domenick1991/leadbooking/internal/domain"
)

const (
	// DefaultTTL bounds how long an offered slot set stays bookable.
	DefaultTTL = 5 * time.Minute

	tokenBytes = 24
)

// Store is the booking token contract. Consume must be atomic per token:
// under concurrent calls at most one may observe the binding.
type Store interface {
	// Issue binds a fresh unguessable token to slots for ttl.
	Issue(ctx context.Context, slots domain.SlotSet, ttl time.Duration) (string, error)
	// Peek returns the bound slot set without consuming, or ok=false when
	// the token is absent or expired.
	Peek(ctx context.Context, token string) (domain.SlotSet, bool, error)
	// Consume removes the binding unconditionally and reports whether the
	// chosen slot was a member of an unexpired binding. A second consume of
	// the same token always reports false.
	Consume(ctx context.Context, token string, chosen time.Time) (bool, error)
	// Revoke discards the binding if present.
	Revoke(ctx context.Context, token string) error
}

type entry struct {
	Slots     []string  `json:"slots"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
