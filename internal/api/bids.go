package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/store"
)

// BidsHandler handles bidding endpoints.
type BidsHandler struct {
	DB *sqlx.DB
}

type placeBidRequest struct {
	Amount int64 `json:"amount"`
}

// List handles GET /api/items/{id}/bids.
func (h *BidsHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	bids, err := store.ListBidsByItem(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to list bids", "item", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list bids")
		return
	}
	jsonResponse(w, http.StatusOK, bids)
}

// Place handles POST /api/items/{id}/bids.
func (h *BidsHandler) Place(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req placeBidRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Amount <= 0 {
		jsonError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	bid, err := store.PlaceBid(r.Context(), h.DB, id, claims.UserID, req.Amount, time.Now())
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "item not found")
		return
	case errors.Is(err, model.ErrOwnItem):
		jsonError(w, http.StatusForbidden, err.Error())
		return
	case errors.Is(err, model.ErrBidTooLow), errors.Is(err, model.ErrBiddingClosed):
		jsonError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		slog.Error("failed to place bid", "item", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to place bid")
		return
	}

	slog.Info("bid placed", "item", id, "bidder", claims.Username, "amount", bid.Amount)
	jsonResponse(w, http.StatusCreated, bid)
}
