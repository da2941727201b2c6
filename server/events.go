package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/evanofslack/stockpoker/internal/game"
	"github.com/google/uuid"
)

const gameAdminName string = "system"

// safeSend safely sends a message to a client's send channel without panicking on closed channels
func safeSend(c *Client, message []byte) {
	defer func() {
		if r := recover(); r != nil {
			slog.Default().Warn("Attempted to send message to closed channel", "uid", c.uid)
		}
	}()

	select {
	case c.send <- message:
		// Message sent successfully
	default:
		// Channel is full or closed, skip sending
		slog.Default().Warn("Unable to send message to client, channel unavailable", "uid", c.uid)
	}
}

func handleJoinGame(c *Client, gameIDStr, uid, username string) {
	gameID, err := uuid.Parse(gameIDStr)
	if err != nil {
		safeSend(c, createErrorMessage("Invalid game ID"))
		return
	}
	if uid == "" || username == "" {
		safeSend(c, createErrorMessage("uid and username are required"))
		return
	}

	ctx := context.Background()
	s, err := c.hub.games.JoinGame(ctx, gameID, uid, username)
	if errors.Is(err, game.ErrPlayerExists) || errors.Is(err, game.ErrGameStarted) {
		// Reconnecting player, attach without reseating.
		s, err = c.hub.games.GetGame(ctx, gameID)
		if err == nil && s.GetPlayer(uid) == nil {
			safeSend(c, createErrorMessage("Game already started"))
			return
		}
	}
	if err != nil {
		safeSend(c, createErrorMessage(err.Error()))
		return
	}

	room, err := c.hub.joinRoom(gameID, c)
	if err != nil {
		safeSend(c, createErrorMessage("Failed to join game room"))
		return
	}

	c.uid = uid
	c.username = username
	c.gameID = gameID
	c.room = room

	safeSend(c, createUpdatedGame(s, &YourSeat{UID: uid, Username: username}))
	room.send(createNewMessage(gameAdminName, fmt.Sprintf("%s has joined", username)))
}

func handleLeaveGame(c *Client) {
	if c.room == nil {
		return
	}

	// Unseat the player if the game has not started. Once play begins the
	// seat stays, only the connection goes away.
	if _, err := c.hub.games.LeaveGame(context.Background(), c.gameID, c.uid); err != nil {
		slog.Info("Connection left without unseating", "game_id", c.gameID, "uid", c.uid, "reason", err)
	}

	c.room.send(createNewMessage(gameAdminName, fmt.Sprintf("%s has left", c.username)))
	c.room.leave(c)
	c.room = nil
	c.gameID = uuid.Nil
	c.uid = ""
}

func handleSendMessage(c *Client, username string, message string) {
	if c.room == nil {
		safeSend(c, createErrorMessage("Join a game first"))
		return
	}
	c.room.send(createNewMessage(username, message))
}

func handleStartGame(c *Client) {
	runGameAction(c, func(ctx context.Context) error {
		_, err := c.hub.games.StartGame(ctx, c.gameID, c.uid)
		return err
	})
}

func handleSelectStock(c *Client, stockRef string) {
	runGameAction(c, func(ctx context.Context) error {
		_, err := c.hub.games.SelectStock(ctx, c.gameID, c.uid, stockRef)
		return err
	})
}

func handleSubmitPrediction(c *Client, priceCents int64) {
	runGameAction(c, func(ctx context.Context) error {
		_, err := c.hub.games.SubmitPrediction(ctx, c.gameID, c.uid, priceCents)
		return err
	})
}

func handlePlaceBet(c *Client, amount int64) {
	runGameAction(c, func(ctx context.Context) error {
		_, err := c.hub.games.PlaceBet(ctx, c.gameID, c.uid, amount)
		return err
	})
}

func handleSetBetTotal(c *Client, total int64) {
	runGameAction(c, func(ctx context.Context) error {
		_, err := c.hub.games.SetBetTotal(ctx, c.gameID, c.uid, total)
		return err
	})
}

func handleFold(c *Client) {
	runGameAction(c, func(ctx context.Context) error {
		_, err := c.hub.games.Fold(ctx, c.gameID, c.uid)
		return err
	})
}

func handleAdvanceInterlude(c *Client) {
	runGameAction(c, func(ctx context.Context) error {
		_, err := c.hub.games.AdvanceInterlude(ctx, c.gameID, c.uid)
		return err
	})
}

func handleAnnouncePrice(c *Client, priceCents int64) {
	runGameAction(c, func(ctx context.Context) error {
		_, err := c.hub.games.AnnouncePrice(ctx, c.gameID, c.uid, priceCents)
		return err
	})
}

// runGameAction applies a game mutation for an attached client. Committed
// state fans out through the room subscription, so only failures are sent
// back directly.
func runGameAction(c *Client, action func(context.Context) error) {
	if c.room == nil || c.uid == "" {
		safeSend(c, createErrorMessage("Join a game first"))
		return
	}
	if err := action(context.Background()); err != nil {
		safeSend(c, createErrorMessage(err.Error()))
	}
}

func createNewMessage(username string, message string) []byte {
	msg := newMessage{
		base:      base{Action: actionNewMessage},
		Id:        uuid.New().String(),
		Message:   message,
		Username:  username,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		slog.Default().Warn("Marshal chat message", "error", err)
		return nil
	}
	return raw
}

func createUpdatedGame(s *game.Session, you *YourSeat) []byte {
	msg := updateGame{
		base: base{Action: actionUpdateGame},
		Game: s,
		You:  you,
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		slog.Default().Warn("Marshal game snapshot", "error", err)
		return nil
	}
	return raw
}

func createErrorMessage(message string) []byte {
	msg := errorMessage{
		base:    base{Action: actionErrorMessage},
		Message: message,
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil
	}
	return raw
}
