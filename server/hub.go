package server

import (
	"sync"

	"github.com/evanofslack/stockpoker/internal/services"
	gamesync "github.com/evanofslack/stockpoker/internal/sync"
	"github.com/google/uuid"
)

// Hub maintains the set of active clients and the per-game rooms that fan
// session updates out to them.
type Hub struct {
	games      *services.GameService
	store      gamesync.SessionStore
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client

	mu    sync.Mutex
	rooms map[uuid.UUID]*room
}

func NewHub(games *services.GameService, store gamesync.SessionStore) *Hub {
	return &Hub{
		games:      games,
		store:      store,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[uuid.UUID]*room),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.clients[client] = true
}

func (h *Hub) unregisterClient(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// joinRoom attaches a client to the game's room. A room shuts down when its
// last client leaves, so a lookup can race the teardown; when the room
// refuses the client, fetch a fresh one and try again.
func (h *Hub) joinRoom(gameID uuid.UUID, c *Client) (*room, error) {
	for {
		r, err := h.room(gameID)
		if err != nil {
			return nil, err
		}
		if r.admit(c) {
			return r, nil
		}
	}
}

// room returns the room for a game, creating it and subscribing to the
// game's update feed on first use. A mapped room whose run loop already
// exited is replaced.
func (h *Hub) room(gameID uuid.UUID) (*room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if r, ok := h.rooms[gameID]; ok {
		select {
		case <-r.done:
			delete(h.rooms, gameID)
		default:
			return r, nil
		}
	}

	r := newRoom(h, gameID)
	if err := r.subscribe(); err != nil {
		return nil, err
	}
	go r.run()
	h.rooms[gameID] = r
	return r, nil
}

// dropRoom removes an empty room. Called by the room itself on shutdown.
func (h *Hub) dropRoom(gameID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, gameID)
}
