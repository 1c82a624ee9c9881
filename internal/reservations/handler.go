package reservations

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/session"
	"github.com/joao-fontenele/storefront/internal/validation"
)

type Service interface {
	Reserve(ctx context.Context, in ReserveInput) (ReserveResult, error)
	Release(ctx context.Context, id int64) error
	ValidateCart(ctx context.Context, sessionID string, lines []LineInput) (Validation, error)
	ValidateForCheckout(ctx context.Context, sessionID string, lines []LineInput) (CheckoutValidation, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type reserveRequest struct {
	ProductID int64  `json:"product_id" validate:"required"`
	SizeID    *int64 `json:"size_id"`
	Quantity  int    `json:"quantity" validate:"min=1"`
	SessionID string `json:"session_id"`
	UserID    *int64 `json:"user_id"`
}

func (h *Handler) HandleReserve(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeFailure(w, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	if err := validation.Struct(req); err != nil {
		h.writeValidation(w, err)
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = session.IDFromContext(r.Context())
	}

	result, err := h.service.Reserve(r.Context(), ReserveInput{
		SessionID: sessionID,
		UserID:    req.UserID,
		ProductID: req.ProductID,
		SizeID:    req.SizeID,
		Quantity:  req.Quantity,
	})

	var availErr *domain.InsufficientAvailabilityError
	switch {
	case errors.As(err, &availErr):
		h.writeFailure(w, http.StatusBadRequest, "insufficient_stock", map[string]any{
			"available_stock": availErr.Available,
		})
		return
	case errors.Is(err, domain.ErrProductNotFound):
		h.writeFailure(w, http.StatusNotFound, "product_not_found", nil)
		return
	case errors.Is(err, domain.ErrSizeNotFound):
		h.writeFailure(w, http.StatusNotFound, "size_not_found", nil)
		return
	case errors.Is(err, domain.ErrSessionRequired), errors.Is(err, domain.ErrInvalidQuantity):
		h.writeFailure(w, http.StatusBadRequest, "invalid_request", map[string]any{"message": err.Error()})
		return
	case err != nil:
		h.logger.Error("failed to reserve item", "error", err, "product_id", req.ProductID)
		h.writeFailure(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":             true,
		"reservation_id":      result.Reservation.ID,
		"expires_at":          result.Reservation.ExpiresAt,
		"new_available_stock": result.NewAvailable,
	})
}

func (h *Handler) HandleRelease(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("reservation_id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeFailure(w, http.StatusBadRequest, "invalid_reservation_id", nil)
		return
	}

	err = h.service.Release(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrReservationNotFound):
		h.writeFailure(w, http.StatusNotFound, "reservation_not_found", nil)
		return
	case err != nil:
		h.logger.Error("failed to release reservation", "error", err, "reservation_id", id)
		h.writeFailure(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type lineRequest struct {
	ProductID     int64  `json:"product_id" validate:"required"`
	SizeID        *int64 `json:"size_id"`
	Quantity      int    `json:"quantity" validate:"min=1"`
	ReservationID *int64 `json:"reservation_id"`
}

type validateRequest struct {
	Items     []lineRequest `json:"items" validate:"dive"`
	SessionID string        `json:"session_id"`
}

func (req validateRequest) lines() []LineInput {
	lines := make([]LineInput, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, LineInput{
			ProductID:     item.ProductID,
			SizeID:        item.SizeID,
			Quantity:      item.Quantity,
			ReservationID: item.ReservationID,
		})
	}
	return lines
}

func (h *Handler) decodeValidate(w http.ResponseWriter, r *http.Request) (validateRequest, string, bool) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeFailure(w, http.StatusBadRequest, "invalid_request", nil)
		return req, "", false
	}
	if err := validation.Struct(req); err != nil {
		h.writeValidation(w, err)
		return req, "", false
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = session.IDFromContext(r.Context())
	}
	return req, sessionID, true
}

func (h *Handler) HandleValidateStock(w http.ResponseWriter, r *http.Request) {
	req, sessionID, ok := h.decodeValidate(w, r)
	if !ok {
		return
	}

	v, err := h.service.ValidateCart(r.Context(), sessionID, req.lines())
	if err != nil {
		h.logger.Error("failed to validate cart stock", "error", err)
		h.writeFailure(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"items":             nonNil(v.Items),
		"expired_items":     nonNil(v.Expired),
		"unavailable_items": nonNil(v.Unavailable),
		"has_expired_items": v.HasExpired(),
	})
}

func (h *Handler) HandleValidateCheckout(w http.ResponseWriter, r *http.Request) {
	req, sessionID, ok := h.decodeValidate(w, r)
	if !ok {
		return
	}

	cv, err := h.service.ValidateForCheckout(r.Context(), sessionID, req.lines())
	if err != nil {
		h.logger.Error("failed to validate checkout", "error", err)
		h.writeFailure(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	resp := map[string]any{
		"success":      true,
		"can_checkout": cv.CanCheckout(),
	}
	if len(cv.Expired) > 0 {
		resp["expired_items"] = cv.Expired
	}
	if len(cv.Unavailable) > 0 {
		resp["unavailable_items"] = cv.Unavailable
	}
	if len(cv.Renewed) > 0 {
		resp["renewed_reservations"] = cv.Renewed
	}
	if !cv.CanCheckout() {
		resp["message"] = "Some items in your cart are no longer available."
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleCleanupExpired(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.CleanupExpired(r.Context())
	if err != nil {
		h.logger.Error("failed to clean up expired reservations", "error", err)
		h.writeFailure(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":                      true,
		"expired_reservations_cleaned": n,
	})
}

func nonNil(lines []LineStatus) []LineStatus {
	if lines == nil {
		return []LineStatus{}
	}
	return lines
}

func (h *Handler) writeValidation(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		h.writeFailure(w, http.StatusBadRequest, "validation_error", map[string]any{"fields": vErr.Fields})
		return
	}
	h.writeFailure(w, http.StatusBadRequest, "invalid_request", nil)
}

func (h *Handler) writeFailure(w http.ResponseWriter, status int, code string, extra map[string]any) {
	body := map[string]any{"success": false, "error": code}
	for k, v := range extra {
		body[k] = v
	}
	h.writeJSON(w, status, body)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}
