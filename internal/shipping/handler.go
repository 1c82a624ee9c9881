package shipping

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

type Handler struct {
	resolver *Resolver
	logger   *slog.Logger
}

func NewHandler(resolver *Resolver, logger *slog.Logger) *Handler {
	return &Handler{resolver: resolver, logger: logger}
}

func (h *Handler) HandleCost(w http.ResponseWriter, r *http.Request) {
	q, err := h.resolver.Quote(r.Context(), r.URL.Query().Get("governorate"))
	if err != nil {
		h.logger.Error("failed to resolve shipping cost", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, q)
}

func (h *Handler) HandleGovernorates(w http.ResponseWriter, r *http.Request) {
	list, err := h.resolver.Governorates(r.Context())
	if err != nil {
		h.logger.Error("failed to list governorates", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, list)
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
