package store

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("store: no saved session")

// SessionRecord is what survives a restart. The actor is re-derived from the
// token on hydration, so only the token itself is kept.
type SessionRecord struct {
	Token   string    `json:"token"`
	SavedAt time.Time `json:"savedAt"`
}

// SessionStorer defines the persistence operations for the signed-in session.
type SessionStorer interface {
	SaveSession(ctx context.Context, rec SessionRecord) error
	LoadSession(ctx context.Context) (SessionRecord, error) // ErrSessionNotFound when nothing is saved
	DeleteSession(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
