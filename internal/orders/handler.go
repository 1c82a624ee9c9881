package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
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
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type orderResponse struct {
	*domain.Order
	StatusDisplay string `json:"status_display"`
}

func newOrderResponse(order *domain.Order) orderResponse {
	return orderResponse{Order: order, StatusDisplay: order.Status.Display()}
}

type orderItemRequest struct {
	ProductID *int64          `json:"product_id"`
	SizeID    *int64          `json:"size_id"`
	Size      string          `json:"size"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity" validate:"min=1"`
}

type createOrderRequest struct {
	FirstName   string             `json:"first_name" validate:"required,max=50"`
	LastName    string             `json:"last_name" validate:"required,max=50"`
	Email       string             `json:"email" validate:"required,email,max=254"`
	Address     string             `json:"address" validate:"required,max=250"`
	City        string             `json:"city" validate:"required,max=100"`
	PostalCode  string             `json:"postal_code" validate:"max=20"`
	Phone       string             `json:"phone" validate:"required,max=20"`
	Governorate string             `json:"governorate" validate:"max=50"`
	State       string             `json:"state" validate:"max=50"`
	Items       []orderItemRequest `json:"items" validate:"dive"`
}

func (req createOrderRequest) input(sessionID string) CreateInput {
	governorate := req.Governorate
	if governorate == "" {
		governorate = req.State
	}

	items := make([]LineInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, LineInput{
			ProductID: item.ProductID,
			SizeID:    item.SizeID,
			SizeName:  item.Size,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}

	return CreateInput{
		SessionID: sessionID,
		Customer: domain.Customer{
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			Email:       req.Email,
			Address:     req.Address,
			City:        req.City,
			PostalCode:  req.PostalCode,
			Phone:       req.Phone,
			Governorate: governorate,
		},
		Items: items,
	}
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(req); err != nil {
		h.writeServiceError(w, err)
		return
	}

	order, err := h.service.Create(r.Context(), req.input(session.IDFromContext(r.Context())))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, newOrderResponse(order))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newOrderResponse(order))
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status" validate:"required"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validation.Struct(req); err != nil {
		h.writeServiceError(w, err)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, newOrderResponse(order))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.List(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, newOrderResponse(&orders[i]))
	}

	h.logger.Info("orders listed", "count", len(orders))
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var (
		vErr     *domain.ValidationError
		stockErr *domain.InsufficientStockError
	)
	switch {
	case errors.As(err, &vErr):
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation_error",
			"fields": vErr.Fields,
		})
	case errors.As(err, &stockErr):
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "Insufficient stock",
			"message": stockErr.UserMessage(),
			"details": map[string]any{
				"product_name":       stockErr.ProductName,
				"size_name":          stockErr.SizeName,
				"requested_quantity": stockErr.Requested,
				"available_quantity": stockErr.Available,
			},
		})
	case errors.Is(err, domain.ErrInsufficientStock):
		h.writeError(w, http.StatusBadRequest, "Insufficient stock")
	case errors.Is(err, domain.ErrEmptyCart):
		h.writeError(w, http.StatusBadRequest, "Cannot create order with empty cart. Please add items to your cart.")
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrSizeNotFound):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidStatus):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		h.writeError(w, http.StatusNotFound, "order not found")
	default:
		h.logger.Error("order request failed", "error", err)
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
