package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn // Websocket connection
	send     chan []byte     // Buffered channel of outbound bytes
	uid      string          // Player UID, set when the client joins a game
	username string
	gameID   uuid.UUID // Game this connection is attached to
	room     *room     // Fan-out room for the attached game
}

func newClient(conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 1024),
	}
}

func (c *Client) disconnect() {
	// Detach from the room before unregistering from the hub to avoid
	// sending on a closed channel.
	if c.room != nil {
		c.room.leave(c)
	}

	c.hub.unregister <- c
	c.conn.Close()
}

// readPump pumps events from the websocket connection to the hub.
//
// The application runs readPump in a per-connection goroutine. The application
// ensures that there is at most one reader on a connection by executing all
// reads from this goroutine.
func (c *Client) readPump() {
	defer func() {
		c.disconnect()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Default().Warn("set read deadline", "error", err)
	}
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Default().Warn("Websocket unexpected close", "error", err)
			}
			break
		}
		if err = c.processEvents(message); err != nil {
			slog.Default().Warn("Process websocket message", "error", err)
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
//
// A goroutine running writePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Default().Warn("Write websocket ping", "error", err)
				return
			}
		}
	}
}

// ServeWs handles websocket requests from the peer.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Default().Warn("Upgrade websocket connection", "error", err)
		return
	}
	client := newClient(conn, hub)

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()
}

func (c *Client) processEvents(rawMessage []byte) error {
	var baseMessage base
	err := json.Unmarshal(rawMessage, &baseMessage)
	if err != nil {
		return err
	}

	if baseMessage.Action == "" {
		return errors.New("deserialize message")
	}

	switch baseMessage.Action {

	case actionJoinGame:
		var join joinGame
		if err := json.Unmarshal(rawMessage, &join); err != nil {
			return err
		}
		handleJoinGame(c, join.GameID, join.UID, join.Username)
		return nil

	case actionLeaveGame:
		handleLeaveGame(c)
		return nil

	case actionSendMessage:
		var message sendMessage
		if err := json.Unmarshal(rawMessage, &message); err != nil {
			return err
		}
		handleSendMessage(c, message.Username, message.Message)
		return nil

	case actionStartGame:
		handleStartGame(c)
		return nil

	case actionSelectStock:
		var stock selectStock
		if err := json.Unmarshal(rawMessage, &stock); err != nil {
			return err
		}
		handleSelectStock(c, stock.StockRef)
		return nil

	case actionSubmitPrediction:
		var prediction submitPrediction
		if err := json.Unmarshal(rawMessage, &prediction); err != nil {
			return err
		}
		handleSubmitPrediction(c, prediction.PriceCents)
		return nil

	case actionPlaceBet:
		var bet placeBet
		if err := json.Unmarshal(rawMessage, &bet); err != nil {
			return err
		}
		handlePlaceBet(c, bet.Amount)
		return nil

	case actionSetBetTotal:
		var bet setBetTotal
		if err := json.Unmarshal(rawMessage, &bet); err != nil {
			return err
		}
		handleSetBetTotal(c, bet.Total)
		return nil

	case actionPlayerFold:
		handleFold(c)
		return nil

	case actionAdvance:
		handleAdvanceInterlude(c)
		return nil

	case actionAnnouncePrice:
		var announce announcePrice
		if err := json.Unmarshal(rawMessage, &announce); err != nil {
			return err
		}
		handleAnnouncePrice(c, announce.PriceCents)
		return nil

	default:
		return errors.New("unexpected message action")
	}
}
