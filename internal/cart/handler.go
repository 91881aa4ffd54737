package cart

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/abcretail/storefront/internal/identity"
	"github.com/abcretail/storefront/internal/store"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserID(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	view, err := h.service.Get(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load cart", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserID(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.service.Add(r.Context(), userID, req.ProductID, req.Quantity)
	if errors.Is(err, store.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to add cart item", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, item)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserID(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.service.Update(r.Context(), userID, r.PathValue("id"), req.Quantity)
	if errors.Is(err, store.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "cart item not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to update cart item", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, item)
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserID(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	err := h.service.Remove(r.Context(), userID, r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "cart item not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to remove cart item", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
