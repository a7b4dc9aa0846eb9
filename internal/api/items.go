package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null"

	"github.com/erazemk/drazba/internal/imaging"
	"github.com/erazemk/drazba/internal/model"
	"github.com/erazemk/drazba/internal/store"
)

// ItemsHandler handles listing endpoints.
type ItemsHandler struct {
	DB *sqlx.DB
}

type createItemRequest struct {
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	StartingPrice int64      `json:"starting_price"`
	CategoryID    *int64     `json:"category_id"`
	EndsAt        *time.Time `json:"ends_at"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// List handles GET /api/items. Optional status and category_id query
// parameters narrow the result; an absent parameter matches everything.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter model.ItemFilter
	q := r.URL.Query()

	if s := q.Get("status"); s != "" {
		status, err := model.ParseItemStatus(s)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid status")
			return
		}
		filter = filter.WithStatus(status)
	}
	if c := q.Get("category_id"); c != "" {
		id, err := strconv.ParseInt(c, 10, 64)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid category_id")
			return
		}
		filter = filter.WithCategory(id)
	}

	items, err := store.ListItemsByFilters(r.Context(), h.DB, filter)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// ListByStatus handles GET /api/statuses/{status}/items.
func (h *ItemsHandler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := model.ParseItemStatus(r.PathValue("status"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	items, err := store.ListItemsByStatus(r.Context(), h.DB, status)
	if err != nil {
		slog.Error("failed to list items by status", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// ListBySeller handles GET /api/sellers/{id}/items.
func (h *ItemsHandler) ListBySeller(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid seller id")
		return
	}

	items, err := store.ListItemsBySeller(r.Context(), h.DB, sellerID)
	if err != nil {
		slog.Error("failed to list items by seller", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	jsonResponse(w, http.StatusOK, item)
}

// Create handles POST /api/items. The caller becomes the seller and the
// listing waits in PENDING for moderation.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.StartingPrice < 0 {
		jsonError(w, http.StatusBadRequest, "starting_price must not be negative")
		return
	}
	if req.EndsAt != nil && !req.EndsAt.After(time.Now()) {
		jsonError(w, http.StatusBadRequest, "ends_at must be in the future")
		return
	}

	item := model.Item{
		Name:          req.Name,
		Description:   req.Description,
		StartingPrice: req.StartingPrice,
		SellerID:      claims.UserID,
		CategoryID:    null.Int64FromPtr(req.CategoryID),
		EndsAt:        null.TimeFromPtr(req.EndsAt),
	}

	if item.CategoryID.Valid {
		category, err := store.GetCategory(r.Context(), h.DB, item.CategoryID.Int64)
		if err != nil {
			slog.Error("failed to get category", "error", err)
			jsonError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if category == nil {
			jsonError(w, http.StatusBadRequest, "unknown category")
			return
		}
	}

	created, err := store.CreateItem(r.Context(), h.DB, item)
	if err != nil {
		slog.Error("failed to create item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	slog.Info("item listed", "item", created.ID, "seller", claims.Username)
	jsonResponse(w, http.StatusCreated, created)
}

// UpdateStatus handles PUT /api/items/{id}/status.
func (h *ItemsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := model.ParseItemStatus(req.Status)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	err = store.UpdateItemStatus(r.Context(), h.DB, id, status)
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, "item not found")
		return
	case errors.Is(err, model.ErrInvalidTransition):
		jsonError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		slog.Error("failed to update item status", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update item status")
		return
	}

	slog.Info("item status changed", "item", id, "status", status, "by", GetClaims(r.Context()).Username)
	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil || item == nil {
		slog.Error("failed to reload item", "item", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// UploadImage handles PUT /api/items/{id}/image. Only the item's seller or
// an admin may replace the photo.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

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
	if item.SellerID != claims.UserID && claims.Role != model.RoleAdmin {
		jsonError(w, http.StatusForbidden, "not your listing")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file, imaging.MaxDimension)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image must be JPEG, PNG, or WebP")
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, id, photo.Data, photo.MIME); err != nil {
		slog.Error("failed to save image", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"message": "image uploaded",
		"width":   photo.Width,
		"height":  photo.Height,
	})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get image", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}
