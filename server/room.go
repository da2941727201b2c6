package server

import (
	"context"
	"encoding/json"
	"log/slog"

	gamesync "github.com/evanofslack/stockpoker/internal/sync"
	"github.com/google/uuid"
)

// room fans out one game's committed updates and chat to the clients watching
// it on this node. Updates arrive through the store subscription, so rooms on
// every node see the same feed.
type room struct {
	gameID      uuid.UUID
	hub         *Hub
	clients     map[*Client]bool
	register    chan *Client
	unregister  chan *Client
	broadcast   chan []byte
	updates     chan *gamesync.Update
	unsubscribe gamesync.Unsubscribe
	done        chan struct{}
}

func newRoom(hub *Hub, gameID uuid.UUID) *room {
	return &room{
		gameID:     gameID,
		hub:        hub,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		updates:    make(chan *gamesync.Update, 16),
		done:       make(chan struct{}),
	}
}

// subscribe attaches the room to the game's update feed before any client is
// admitted, so no committed update can slip past the room.
func (t *room) subscribe() error {
	unsubscribe, err := t.hub.store.Subscribe(context.Background(), t.gameID, t.handleUpdate)
	if err != nil {
		return err
	}
	t.unsubscribe = unsubscribe
	return nil
}

func (t *room) handleUpdate(update *gamesync.Update) {
	select {
	case t.updates <- update:
	case <-t.done:
	}
}

// admit registers a client, reporting whether the room accepted it. A room
// that shut down between lookup and admission refuses, and the caller must
// fetch a fresh room from the hub.
func (t *room) admit(c *Client) bool {
	select {
	case t.register <- c:
		return true
	case <-t.done:
		return false
	}
}

func (t *room) leave(c *Client) {
	select {
	case t.unregister <- c:
	case <-t.done:
	}
}

func (t *room) send(message []byte) {
	select {
	case t.broadcast <- message:
	case <-t.done:
	}
}

func (t *room) run() {
	for {
		select {
		case client := <-t.register:
			t.clients[client] = true
		case client := <-t.unregister:
			if _, ok := t.clients[client]; ok {
				delete(t.clients, client)
			}
			if len(t.clients) == 0 {
				t.shutdown()
				return
			}
		case message := <-t.broadcast:
			t.broadcastToClients(message)
		case update := <-t.updates:
			t.broadcastUpdate(update)
		}
	}
}

func (t *room) shutdown() {
	t.hub.dropRoom(t.gameID)
	close(t.done)
	if t.unsubscribe != nil {
		t.unsubscribe()
	}
}

func (t *room) broadcastToClients(message []byte) {
	for client := range t.clients {
		select {
		case client.send <- message:
		default:
			delete(t.clients, client)
		}
	}
}

// broadcastUpdate sends the committed session snapshot, then the domain
// events the mutation produced.
func (t *room) broadcastUpdate(update *gamesync.Update) {
	snapshot, err := json.Marshal(updateGame{
		base: base{Action: actionUpdateGame},
		Game: update.Session,
	})
	if err != nil {
		slog.Warn("Marshaling game update", "game_id", t.gameID, "error", err)
		return
	}
	t.broadcastToClients(snapshot)

	if len(update.Events) == 0 {
		return
	}
	events, err := json.Marshal(gameEvents{
		base:   base{Action: actionGameEvents},
		Events: update.Events,
	})
	if err != nil {
		slog.Warn("Marshaling game events", "game_id", t.gameID, "error", err)
		return
	}
	t.broadcastToClients(events)
}
