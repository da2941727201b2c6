package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/evanofslack/stockpoker/internal/services"
	"github.com/evanofslack/stockpoker/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type GameHandler struct {
	games *services.GameService
}

func NewGameHandler(games *services.GameService) *GameHandler {
	return &GameHandler{games: games}
}

func (h *GameHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListGames)
	r.Post("/", h.CreateGame)
	r.Get("/{gameID}", h.GetGame)
	r.Delete("/{gameID}", h.DeleteGame)
	r.Post("/{gameID}/join", h.JoinGame)
	r.Post("/{gameID}/leave", h.LeaveGame)
	r.Post("/{gameID}/start", h.StartGame)
	r.Post("/{gameID}/stock", h.SelectStock)
	r.Post("/{gameID}/predict", h.SubmitPrediction)
	r.Post("/{gameID}/bet", h.PlaceBet)
	r.Post("/{gameID}/bet-total", h.SetBetTotal)
	r.Post("/{gameID}/fold", h.Fold)
	r.Post("/{gameID}/advance", h.AdvanceInterlude)
	r.Post("/{gameID}/announce", h.AnnouncePrice)
	r.Post("/{gameID}/resolve", h.ResolveWithOracle)

	return r
}

type CreateGameRequest struct {
	UID         string `json:"uid" validate:"required,min=1,max=64"`
	Username    string `json:"username" validate:"required,username,min=2,max=32"`
	TotalRounds int    `json:"total_rounds" validate:"gte=0,lte=10"`
}

type JoinGameRequest struct {
	UID      string `json:"uid" validate:"required,min=1,max=64"`
	Username string `json:"username" validate:"required,username,min=2,max=32"`
}

type ActorRequest struct {
	UID string `json:"uid" validate:"required,min=1,max=64"`
}

type SelectStockRequest struct {
	UID      string `json:"uid" validate:"required,min=1,max=64"`
	StockRef string `json:"stock_ref" validate:"required,stock_ref"`
}

type PredictionRequest struct {
	UID        string `json:"uid" validate:"required,min=1,max=64"`
	PriceCents int64  `json:"price_cents" validate:"required,gt=0"`
}

type BetRequest struct {
	UID    string `json:"uid" validate:"required,min=1,max=64"`
	Amount int64  `json:"amount" validate:"gte=0"`
}

type BetTotalRequest struct {
	UID   string `json:"uid" validate:"required,min=1,max=64"`
	Total int64  `json:"total" validate:"gte=0"`
}

type AnnouncePriceRequest struct {
	UID        string `json:"uid" validate:"required,min=1,max=64"`
	PriceCents int64  `json:"price_cents" validate:"required,gt=0"`
}

// ListGames returns all live game sessions
func (h *GameHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	games, err := h.games.ListGames(r.Context())
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"games": games,
		"count": len(games),
	})
}

// CreateGame creates a new game session owned by the requesting player
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := validation.Validate(req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	s, err := h.games.CreateGame(r.Context(), req.UID, req.Username, req.TotalRounds)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, s)
}

// GetGame returns the current state of a game session
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(w, r)
	if !ok {
		return
	}

	s, err := h.games.GetGame(r.Context(), gameID)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, s)
}

// DeleteGame tears down a game session (creator only)
func (h *GameHandler) DeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(w, r)
	if !ok {
		return
	}

	var req ActorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.games.DeleteGame(r.Context(), gameID, req.UID); err != nil {
		writeGameError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{
		"message": "Game deleted successfully",
	})
}

// JoinGame seats a player in a game that has not started
func (h *GameHandler) JoinGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(w, r)
	if !ok {
		return
	}

	var req JoinGameRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	s, err := h.games.JoinGame(r.Context(), gameID, req.UID, req.Username)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, s)
}

// LeaveGame removes a player from a game that has not started
func (h *GameHandler) LeaveGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(w, r)
	if !ok {
		return
	}

	var req ActorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	s, err := h.games.LeaveGame(r.Context(), gameID, req.UID)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, s)
}

// StartGame begins play (creator only)
func (h *GameHandler) StartGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(w, r)
	if !ok {
		return
	}

	var req ActorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	s, err := h.games.StartGame(r.Context(), gameID, req.UID)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, s)
}

// SelectStock records the creator's stock pick for the current round
func (h *GameHandler) SelectStock(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(w, r)
	if !ok {
		return
	}

	var req SelectStockRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	s, err := h.games.SelectStock(r.Context(), gameID, req.UID, req.StockRef)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, s)
}

// SubmitPrediction records a player's price prediction
func (h *GameHandler) SubmitPrediction(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(w, r)
	if !ok {
		return
	}

	var req PredictionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	s, err := h.games.SubmitPrediction(r.Context(), gameID, req.UID, req.PriceCents)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, s)
}

// PlaceBet adds chips to the player's cumulative bet
func (h *GameHandler) PlaceBet(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(w, r)
	if !ok {
		return
	}

	var req BetRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	s, err := h.games.PlaceBet(r.Context(), gameID, req.UID, req.Amount)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, s)
}

// SetBetTotal raises the player's cumulative bet to a target total. Safe to
// retransmit.
func (h *GameHandler) SetBetTotal(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(w, r)
	if !ok {
		return
	}

	var req BetTotalRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	s, err := h.games.SetBetTotal(r.Context(), gameID, req.UID, req.Total)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, s)
}

// Fold removes the player from the current round
func (h *GameHandler) Fold(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(w, r)
	if !ok {
		return
	}

	var req ActorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	s, err := h.games.Fold(r.Context(), gameID, req.UID)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, s)
}

// AdvanceInterlude moves the game out of a discussion pause
func (h *GameHandler) AdvanceInterlude(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(w, r)
	if !ok {
		return
	}

	var req ActorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	s, err := h.games.AdvanceInterlude(r.Context(), gameID, req.UID)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, s)
}

// AnnouncePrice resolves the current round with the final observed price
// (creator only)
func (h *GameHandler) AnnouncePrice(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(w, r)
	if !ok {
		return
	}

	var req AnnouncePriceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	s, err := h.games.AnnouncePrice(r.Context(), gameID, req.UID, req.PriceCents)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, s)
}

// ResolveWithOracle resolves the current round using the configured price
// oracle
func (h *GameHandler) ResolveWithOracle(w http.ResponseWriter, r *http.Request) {
	gameID, ok := parseGameID(w, r)
	if !ok {
		return
	}

	var req ActorRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	s, err := h.games.ResolveWithOracle(r.Context(), gameID, req.UID)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, s)
}

func parseGameID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	gameID, err := uuid.Parse(chi.URLParam(r, "gameID"))
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid game ID")
		return uuid.Nil, false
	}
	return gameID, true
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	if err := validation.Validate(req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
