package sync

import (
	"context"
	"encoding/json"
	"sort"
	gosync "sync"

	"github.com/evanofslack/stockpoker/internal/game"
	"github.com/google/uuid"
)

// MemoryStore is an in-process SessionStore with the same compare-and-set
// semantics as the Redis store. It backs tests and single-node deployments.
type MemoryStore struct {
	mu      gosync.Mutex
	games   map[uuid.UUID]map[string]string
	subs    map[uuid.UUID]map[int]func(*Update)
	nextSub int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games: make(map[uuid.UUID]map[string]string),
		subs:  make(map[uuid.UUID]map[int]func(*Update)),
	}
}

func (m *MemoryStore) Create(ctx context.Context, s *game.Session) error {
	fields, err := encodeSession(s)
	if err != nil {
		return syncErr("create", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[s.ID]; ok {
		return ErrSessionExists
	}
	m.games[s.ID] = fields
	return nil
}

func (m *MemoryStore) Read(ctx context.Context, gameID uuid.UUID) (*game.Session, error) {
	m.mu.Lock()
	stored, ok := m.games[gameID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	fields := make(map[string]string, len(stored))
	for k, v := range stored {
		fields[k] = v
	}
	m.mu.Unlock()

	s, err := decodeSession(fields)
	if err != nil {
		return nil, syncErr("read", err)
	}
	return s, nil
}

func (m *MemoryStore) WriteFields(ctx context.Context, gameID uuid.UUID, expectedVersion int64, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.games[gameID]
	if !ok {
		return ErrSessionNotFound
	}
	var version int64
	if raw, ok := stored["version"]; ok {
		if err := json.Unmarshal([]byte(raw), &version); err != nil {
			return syncErr("write", err)
		}
	}
	if version != expectedVersion {
		return ErrVersionConflict
	}
	for path, raw := range fields {
		stored[path] = raw
	}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, gameID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, gameID)
	delete(m.subs, gameID)
	return nil
}

func (m *MemoryStore) List(ctx context.Context) ([]*game.Session, error) {
	m.mu.Lock()
	ids := make([]uuid.UUID, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	sessions := make([]*game.Session, 0, len(ids))
	for _, id := range ids {
		s, err := m.Read(ctx, id)
		if err != nil {
			if err == ErrSessionNotFound {
				continue
			}
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func (m *MemoryStore) Publish(ctx context.Context, gameID uuid.UUID, update *Update) error {
	m.mu.Lock()
	fns := make([]func(*Update), 0, len(m.subs[gameID]))
	for _, fn := range m.subs[gameID] {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(update)
	}
	return nil
}

func (m *MemoryStore) Subscribe(ctx context.Context, gameID uuid.UUID, fn func(*Update)) (Unsubscribe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.subs[gameID] == nil {
		m.subs[gameID] = make(map[int]func(*Update))
	}
	id := m.nextSub
	m.nextSub++
	m.subs[gameID][id] = fn

	var once gosync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs[gameID], id)
			m.mu.Unlock()
		})
	}, nil
}
