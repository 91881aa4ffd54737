package customers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/abcretail/storefront/internal/storage"
)

const maxContractBytes = 20 << 20

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type registerRequest struct {
	IdentityUserID string `json:"identity_user_id"`
	Email          string `json:"email"`
	DisplayName    string `json:"display_name"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.service.Register(r.Context(), req.IdentityUserID, req.Email, req.DisplayName)
	if err != nil {
		h.writeServiceError(w, "failed to register customer", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, record)
}

// HandleUploadContract accepts a multipart form with a "contract" file.
func (h *Handler) HandleUploadContract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxContractBytes)
	if err := r.ParseMultipartForm(maxContractBytes); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("contract")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "missing contract file")
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "could not read contract file")
		return
	}

	name, err := h.service.UploadContract(r.Context(), header.Filename, content)
	if err != nil {
		h.writeServiceError(w, "failed to upload contract", err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]string{"name": name})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrBackendUnavailable):
		h.logger.Error(msg, "error", err)
		h.writeError(w, http.StatusServiceUnavailable, "storage unavailable")
	case errors.Is(err, storage.ErrBackendRejected):
		h.logger.Error(msg, "error", err)
		h.writeError(w, http.StatusBadGateway, "storage rejected the request")
	default:
		h.logger.Error(msg, "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
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
