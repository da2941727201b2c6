package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/evanofslack/stockpoker/internal/game"
	"github.com/google/uuid"
)

const defaultMaxRetries = 3

// Adapter applies game actions against the shared store. Each Apply is a
// read-modify-write on a single version of state: the action is validated
// against the freshest snapshot, the touched leaves are written under a
// version compare-and-set, and on conflict the whole step is re-run so
// turn/phase legality is re-checked right before commit.
type Adapter struct {
	store      SessionStore
	maxRetries int
}

func NewAdapter(store SessionStore) *Adapter {
	return &Adapter{store: store, maxRetries: defaultMaxRetries}
}

// Store exposes the underlying session store for read-side consumers.
func (a *Adapter) Store() SessionStore {
	return a.store
}

// Create persists a new session and announces it to subscribers.
func (a *Adapter) Create(ctx context.Context, s *game.Session) error {
	if err := a.store.Create(ctx, s); err != nil {
		return err
	}
	a.publish(ctx, s)
	s.MarkCommitted()
	return nil
}

// Apply runs action against the latest session state and commits the leaves
// it touched. Validation errors from the action are returned untouched and
// commit nothing; a lost write race is retried against refreshed state up to
// maxRetries times before giving up with ErrVersionConflict.
func (a *Adapter) Apply(ctx context.Context, gameID uuid.UUID, action func(*game.Session) error) (*game.Session, error) {
	for attempt := 0; ; attempt++ {
		s, err := a.store.Read(ctx, gameID)
		if err != nil {
			return nil, err
		}
		expected := s.Version

		if err := action(s); err != nil {
			return nil, err
		}

		changes := s.PendingChanges()
		if len(changes) == 0 {
			// Idempotent no-op (retried fold, repeated set-bet-total).
			return s, nil
		}
		fields, err := encodeChanges(changes)
		if err != nil {
			return nil, syncErr("apply", err)
		}

		err = a.store.WriteFields(ctx, gameID, expected, fields)
		if errors.Is(err, ErrVersionConflict) {
			if attempt >= a.maxRetries {
				return nil, fmt.Errorf("apply after %d attempts: %w", attempt+1, ErrVersionConflict)
			}
			slog.Debug("Session write conflict, retrying against refreshed state",
				"game_id", gameID, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}

		a.publish(ctx, s)
		s.MarkCommitted()
		return s, nil
	}
}

// Delete removes a session from the store.
func (a *Adapter) Delete(ctx context.Context, gameID uuid.UUID) error {
	return a.store.Delete(ctx, gameID)
}

func (a *Adapter) publish(ctx context.Context, s *game.Session) {
	update := &Update{Session: s, Events: s.PendingEvents()}
	if err := a.store.Publish(ctx, s.ID, update); err != nil {
		// Broadcast is best effort; the committed state is authoritative and
		// clients re-read on reconnect.
		slog.Warn("Publishing session update", "game_id", s.ID, "error", err)
	}
}
