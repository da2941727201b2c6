// Package sync bridges the game aggregate and the shared session store.
// Every mutation is a read-validate-write against a single version of state:
// the adapter re-runs an action against refreshed state whenever a competing
// writer wins the race, so turn and phase legality are always checked
// immediately before commit.
package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/evanofslack/stockpoker/internal/game"
	"github.com/google/uuid"
)

var (
	// ErrSessionNotFound is returned when no session exists for the game ID.
	ErrSessionNotFound = errors.New("game session not found")

	// ErrSessionExists is returned when creating a session that already exists.
	ErrSessionExists = errors.New("game session already exists")

	// ErrVersionConflict is returned when a compare-and-set write loses the
	// race against another client. The caller re-reads and re-validates.
	ErrVersionConflict = errors.New("session version conflict")
)

// Update is the payload broadcast to subscribers after a committed mutation:
// the full session snapshot plus the domain events the mutation produced.
type Update struct {
	Session *game.Session `json:"session"`
	Events  []game.Event  `json:"events,omitempty"`
}

// Unsubscribe tears down a subscription. Safe to call more than once.
type Unsubscribe func()

// SessionStore is the narrow contract against the shared external store.
// Sessions are persisted as independent leaf fields keyed by path
// (rounds/{n}/bets/{uid}, currentPhase, ...) so partial interleavings from
// different clients remain individually valid; multi-field writes are only
// atomic together with the version compare-and-set.
type SessionStore interface {
	// Create persists a brand-new session, failing with ErrSessionExists if
	// the game ID is already taken.
	Create(ctx context.Context, s *game.Session) error

	// Read returns the current session state, or ErrSessionNotFound.
	Read(ctx context.Context, gameID uuid.UUID) (*game.Session, error)

	// WriteFields writes the given leaf fields if and only if the stored
	// version still equals expectedVersion, else ErrVersionConflict.
	WriteFields(ctx context.Context, gameID uuid.UUID, expectedVersion int64, fields map[string]string) error

	// Delete removes the session and all its fields.
	Delete(ctx context.Context, gameID uuid.UUID) error

	// List returns all stored sessions.
	List(ctx context.Context) ([]*game.Session, error)

	// Publish broadcasts an update to all subscribers of the game.
	Publish(ctx context.Context, gameID uuid.UUID, update *Update) error

	// Subscribe registers a callback for updates to the game. The returned
	// handle deterministically tears the subscription down.
	Subscribe(ctx context.Context, gameID uuid.UUID, fn func(*Update)) (Unsubscribe, error)
}

// SyncError marks unexpected store or transport failures, a category
// distinct from the game's own validation errors. Callers that see one
// should surface it rather than treat it as a rejected action.
type SyncError struct {
	Op  string
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

func syncErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &SyncError{Op: op, Err: err}
}
