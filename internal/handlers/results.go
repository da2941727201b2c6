package handlers

import (
	"net/http"
	"strconv"

	"github.com/evanofslack/stockpoker/internal/services"
	"github.com/go-chi/chi/v5"
)

type ResultsHandler struct {
	results *services.ResultsService
}

func NewResultsHandler(results *services.ResultsService) *ResultsHandler {
	return &ResultsHandler{results: results}
}

func (h *ResultsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/games/{gameID}", h.GetGameRecord)
	r.Get("/players/{playerUID}", h.GetPlayerHistory)

	return r
}

// GetGameRecord returns the durable record of a game with its rounds and
// standings
func (h *ResultsHandler) GetGameRecord(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(w, r)
	if !ok {
		return
	}

	record, err := h.results.GetGameRecord(r.Context(), gameID)
	if err != nil {
		writeErrorResponse(w, http.StatusNotFound, "Game record not found")
		return
	}

	writeJSONResponse(w, http.StatusOK, record)
}

// GetPlayerHistory returns a player's standings across completed games
func (h *ResultsHandler) GetPlayerHistory(w http.ResponseWriter, r *http.Request) {
	playerUID := chi.URLParam(r, "playerUID")
	if playerUID == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Player UID is required")
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	history, err := h.results.GetPlayerHistory(r.Context(), playerUID, limit)
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to fetch player history")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"player_uid": playerUID,
		"results":    history,
	})
}
