package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/evanofslack/stockpoker/internal/game"
	"github.com/evanofslack/stockpoker/internal/oracle"
	gamesync "github.com/evanofslack/stockpoker/internal/sync"
)

func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	writeJSONResponse(w, statusCode, map[string]string{
		"error": message,
	})
}

// writeGameError maps domain errors to HTTP status codes. Rule violations are
// client errors; store and transport failures are server errors.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gamesync.ErrSessionNotFound):
		writeErrorResponse(w, http.StatusNotFound, "Game not found")
	case errors.Is(err, game.ErrUnknownPlayer):
		writeErrorResponse(w, http.StatusNotFound, "Player not in game")
	case errors.Is(err, game.ErrNotCreator):
		writeErrorResponse(w, http.StatusForbidden, "Only the game creator can do that")
	case errors.Is(err, game.ErrNotYourTurn):
		writeErrorResponse(w, http.StatusConflict, "Not your turn")
	case errors.Is(err, game.ErrDuplicatePrediction):
		writeErrorResponse(w, http.StatusConflict, "Prediction already submitted for this round")
	case errors.Is(err, game.ErrPlayerExists):
		writeErrorResponse(w, http.StatusConflict, "Player already seated")
	case errors.Is(err, game.ErrGameStarted):
		writeErrorResponse(w, http.StatusConflict, "Game already started")
	case errors.Is(err, gamesync.ErrVersionConflict):
		writeErrorResponse(w, http.StatusConflict, "Game state changed, retry the action")
	case errors.Is(err, oracle.ErrPriceNotAnnounced):
		writeErrorResponse(w, http.StatusConflict, "Final price not yet announced")
	case errors.Is(err, game.ErrWrongPhase),
		errors.Is(err, game.ErrNotStarted),
		errors.Is(err, game.ErrGameComplete),
		errors.Is(err, game.ErrNotEnoughPlayers),
		errors.Is(err, game.ErrInvalidBet),
		errors.Is(err, game.ErrInvalidPrice),
		errors.Is(err, game.ErrInvalidStock),
		errors.Is(err, game.ErrBelowHighestBet),
		errors.Is(err, game.ErrInsufficientChips):
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("Unhandled game error", "error", err)
		writeErrorResponse(w, http.StatusInternalServerError, "Internal server error")
	}
}
