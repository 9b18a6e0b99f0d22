// Package state keeps server-side records of in-flight OAuth authorization attempts
// so a callback can be bound to the flow that started it.
package state

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a state is unknown, expired or already consumed.
var ErrNotFound = errors.New("oauth state not found")

// Entry is one issued state token.
type Entry struct {
	State       string    `json:"state"`
	UserID      string    `json:"user_id"`
	RedirectURI string    `json:"redirect_uri"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Store records issued state tokens. Consume is one-shot: the entry is removed
// whether or not the caller's comparison later succeeds.
type Store interface {
	Save(ctx context.Context, e Entry) error
	Consume(ctx context.Context, state string) (Entry, error)
}
