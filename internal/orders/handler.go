package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/abcretail/storefront/internal/domain"
	"github.com/abcretail/storefront/internal/identity"
	"github.com/abcretail/storefront/internal/store"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type placeOrderResponse struct {
	Order     *domain.Order `json:"order"`
	Published bool          `json:"published"`
}

// HandlePlace checks out the caller's cart. An empty cart redirects back to
// the cart instead of creating an order.
func (h *Handler) HandlePlace(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserID(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	placement, err := h.service.PlaceOrder(r.Context(), userID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "could not place order")
		return
	}

	if placement.CartEmpty {
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}

	w.Header().Set("Location", "/orders/"+placement.Order.ID)
	h.writeJSON(w, http.StatusCreated, placeOrderResponse{
		Order:     placement.Order,
		Published: placement.Published,
	})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserID(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.service.GetForUser(r.Context(), userID, id)
	if errors.Is(err, store.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

// HandleAdminGet returns any order regardless of its owner.
func (h *Handler) HandleAdminGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.service.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserID(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	orders, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("orders listed", "count", len(orders))
	h.writeJSON(w, http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	switch {
	case errors.Is(err, ErrInvalidStatus):
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, store.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	case err != nil:
		h.logger.Error("failed to update order status", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("order status updated", "order_id", order.ID, "status", order.Status)
	h.writeJSON(w, http.StatusOK, order)
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
