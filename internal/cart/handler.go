package cart

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/session"
	"github.com/joao-fontenele/storefront/internal/validation"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type lineResponse struct {
	ProductID  int64           `json:"product_id"`
	Name       string          `json:"name"`
	SizeID     *int64          `json:"size_id,omitempty"`
	SizeName   string          `json:"size_name,omitempty"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type cartResponse struct {
	Items      []lineResponse  `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Count      int             `json:"count"`
}

func newCartResponse(cart domain.Cart) cartResponse {
	lines := cart.Lines()
	items := make([]lineResponse, 0, len(lines))
	for _, e := range lines {
		items = append(items, lineResponse{
			ProductID:  e.ProductID,
			Name:       e.ProductName,
			SizeID:     e.SizeID,
			SizeName:   e.SizeName,
			Price:      e.Price,
			Quantity:   e.Quantity,
			TotalPrice: e.LineTotal(),
		})
	}
	return cartResponse{Items: items, TotalPrice: cart.Total(), Count: cart.Len()}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.Get(r.Context(), session.IDFromContext(r.Context()))
	if err != nil {
		h.logger.Error("failed to load cart", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, newCartResponse(cart))
}

type addRequest struct {
	ProductID        int64  `json:"product_id" validate:"required"`
	SizeID           *int64 `json:"size_id"`
	Quantity         int    `json:"quantity" validate:"min=1,max=99"`
	OverrideQuantity bool   `json:"override_quantity"`
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	req := addRequest{Quantity: 1}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(req); err != nil {
		h.writeValidation(w, err)
		return
	}

	sessionID := session.IDFromContext(r.Context())
	cart, err := h.service.Add(r.Context(), sessionID, AddInput{
		ProductID: req.ProductID,
		SizeID:    req.SizeID,
		Quantity:  req.Quantity,
		Override:  req.OverrideQuantity,
	})
	switch {
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrSizeNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, domain.ErrProductUnavailable):
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.Error("failed to add to cart", "error", err, "product_id", req.ProductID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart line added", "session_id", sessionID, "product_id", req.ProductID, "quantity", req.Quantity)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Product added to cart",
		"cart":    newCartResponse(cart),
	})
}

type removeRequest struct {
	ProductID int64  `json:"product_id" validate:"required"`
	SizeID    *int64 `json:"size_id"`
}

func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	var req removeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(req); err != nil {
		h.writeValidation(w, err)
		return
	}

	cart, err := h.service.Remove(r.Context(), session.IDFromContext(r.Context()), req.ProductID, req.SizeID)
	if err != nil {
		h.logger.Error("failed to remove from cart", "error", err, "product_id", req.ProductID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Product removed from cart",
		"cart":    newCartResponse(cart),
	})
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), session.IDFromContext(r.Context())); err != nil {
		h.logger.Error("failed to clear cart", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Cart cleared",
	})
}

func (h *Handler) writeValidation(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation_error", "fields": vErr.Fields})
		return
	}
	h.writeError(w, http.StatusBadRequest, err.Error())
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
