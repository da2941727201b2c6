package handlers

import (
	"net/http"

	"github.com/evanofslack/stockpoker/internal/oracle"
	"github.com/go-chi/chi/v5"
)

// OracleHandler feeds final prices into the manual oracle so that games can
// resolve through the resolve endpoint.
type OracleHandler struct {
	oracle *oracle.ManualOracle
}

func NewOracleHandler(manual *oracle.ManualOracle) *OracleHandler {
	return &OracleHandler{oracle: manual}
}

func (h *OracleHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/announce", h.AnnounceFinalPrice)
	r.Get("/price/{stockRef}", h.GetFinalPrice)

	return r
}

type AnnounceFinalPriceRequest struct {
	StockRef   string `json:"stock_ref" validate:"required,stock_ref"`
	PriceCents int64  `json:"price_cents" validate:"required,gt=0"`
}

// AnnounceFinalPrice records the final observed price for a stock reference.
// Every game that selected the stock can resolve against it afterwards.
func (h *OracleHandler) AnnounceFinalPrice(w http.ResponseWriter, r *http.Request) {
	var req AnnounceFinalPriceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	h.oracle.Announce(req.StockRef, req.PriceCents)

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"stock_ref":   req.StockRef,
		"price_cents": req.PriceCents,
	})
}

// GetFinalPrice returns the announced price for a stock reference.
func (h *OracleHandler) GetFinalPrice(w http.ResponseWriter, r *http.Request) {
	stockRef := chi.URLParam(r, "stockRef")

	price, err := h.oracle.GetFinalPrice(r.Context(), stockRef)
	if err != nil {
		writeGameError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"stock_ref":   stockRef,
		"price_cents": price,
	})
}
