package game

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a game domain event.
type EventType string

const (
	EventGameCreated         EventType = "game.created"
	EventPlayerJoined        EventType = "player.joined"
	EventPlayerLeft          EventType = "player.left"
	EventGameStarted         EventType = "game.started"
	EventStockSelected       EventType = "stock.selected"
	EventPredictionSubmitted EventType = "prediction.submitted"
	EventPlayerBet           EventType = "player.bet"
	EventPlayerFolded        EventType = "player.folded"
	EventPhaseAdvanced       EventType = "phase.advanced"
	EventRoundResolved       EventType = "round.resolved"
	EventNoActivePlayers     EventType = "round.no_active_players"
	EventGameCompleted       EventType = "game.completed"
)

// Event records something that happened to a session. Events are collected on
// the aggregate and broadcast to connected clients after the state change is
// committed.
type Event struct {
	ID        uuid.UUID              `json:"id"`
	Type      EventType              `json:"type"`
	GameID    uuid.UUID              `json:"game_id"`
	Round     int                    `json:"round"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(eventType EventType, gameID uuid.UUID, round int, payload map[string]interface{}) Event {
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		GameID:    gameID,
		Round:     round,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}
