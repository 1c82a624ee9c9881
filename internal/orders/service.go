package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/clock"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
}

type Catalog interface {
	Stock(ctx context.Context, productID int64, sizeID *int64) (domain.StockLevel, error)
	Decrement(ctx context.Context, productID int64, sizeID *int64, quantity int) error
}

type ShippingResolver interface {
	Cost(ctx context.Context, governorate string) (decimal.Decimal, error)
}

type Cart interface {
	Get(ctx context.Context, sessionID string) (domain.Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

type ReservationReleaser interface {
	ReleaseSession(ctx context.Context, sessionID string) (int64, error)
}

// Notifier is called after an order commits. Errors are logged only.
type Notifier interface {
	OrderPlaced(ctx context.Context, order domain.Order) error
	OrderStatusChanged(ctx context.Context, order domain.Order, previous domain.OrderStatus) error
}

type Service struct {
	repo         Repository
	catalog      Catalog
	shipping     ShippingResolver
	cart         Cart
	reservations ReservationReleaser
	notifiers    []Notifier
	clock        clock.Clock
	logger       *slog.Logger
	instruments  *telemetry.Instruments
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifiers = append(s.notifiers, n)
		}
	}
}

func WithReservations(r ReservationReleaser) Option {
	return func(s *Service) {
		s.reservations = r
	}
}

func WithInstruments(i *telemetry.Instruments) Option {
	return func(s *Service) {
		s.instruments = i
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(repo Repository, catalog Catalog, shipping ShippingResolver, cart Cart, clk clock.Clock, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		catalog:  catalog,
		shipping: shipping,
		cart:     cart,
		clock:    clk,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LineInput is one requested order line. Lines without a ProductID are
// custom items: they are priced from the request and skip stock handling.
type LineInput struct {
	ProductID *int64
	SizeID    *int64
	SizeName  string
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

type CreateInput struct {
	SessionID string
	Customer  domain.Customer
	Items     []LineInput
}

// Create places an order from the given lines, or from the session cart when
// none are given. Stock for every line is checked before anything is written,
// and the rows plus the stock decrements commit in one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Order, error) {
	lines := in.Items
	fromCart := false
	if len(lines) == 0 && in.SessionID != "" {
		cart, err := s.cart.Get(ctx, in.SessionID)
		if err != nil {
			return nil, fmt.Errorf("load cart: %w", err)
		}
		lines = linesFromCart(cart)
		fromCart = true
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}
	if err := validateLines(lines); err != nil {
		return nil, err
	}

	shippingCost, err := s.shipping.Cost(ctx, in.Customer.Governorate)
	if err != nil {
		return nil, fmt.Errorf("resolve shipping: %w", err)
	}

	now := s.clock.Now()
	order := &domain.Order{
		ID:           uuid.NewString(),
		Customer:     in.Customer,
		SessionID:    in.SessionID,
		ShippingCost: shippingCost,
		Status:       domain.OrderStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		items, err := s.checkStock(txCtx, lines, fromCart)
		if err != nil {
			return err
		}
		order.Items = items
		order.ComputeTotals()

		if err := s.repo.Create(txCtx, order); err != nil {
			return err
		}

		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			if err := s.catalog.Decrement(txCtx, *item.ProductID, item.SizeID, item.Quantity); err != nil {
				return fmt.Errorf("decrement stock for %s: %w", item.ProductName, err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			s.instruments.OrderRejected(ctx)
		}
		return nil, err
	}

	s.instruments.OrderCreated(ctx)
	s.logger.Info("order created", "order_id", order.ID, "items", len(order.Items), "total", order.Total.String())

	s.afterCommit(ctx, order)
	return order, nil
}

// checkStock validates every line against persistent stock before any row is
// written and returns the snapshotted order items. Catalog lines from a
// request are priced from the catalog; cart lines keep their add-time price.
func (s *Service) checkStock(ctx context.Context, lines []LineInput, fromCart bool) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		item := domain.OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.Name,
			Price:       line.Price,
			Quantity:    line.Quantity,
			SizeID:      line.SizeID,
			SizeName:    line.SizeName,
		}

		if line.ProductID != nil {
			level, err := s.catalog.Stock(ctx, *line.ProductID, line.SizeID)
			if err != nil {
				return nil, err
			}

			sizeName := ""
			if level.SizeLevel {
				sizeName = level.SizeName
			}
			if line.Quantity > level.Total {
				return nil, &domain.InsufficientStockError{
					ProductName: level.ProductName,
					SizeName:    sizeName,
					Requested:   line.Quantity,
					Available:   level.Total,
				}
			}

			item.ProductName = level.ProductName
			if !fromCart {
				item.Price = level.Price
			}
			if level.SizeName != "" {
				item.SizeName = level.SizeName
			}
		}

		items = append(items, item)
	}
	return items, nil
}

func (s *Service) afterCommit(ctx context.Context, order *domain.Order) {
	if order.SessionID != "" {
		if err := s.cart.Clear(ctx, order.SessionID); err != nil {
			s.logger.Warn("failed to clear cart after order", "error", err, "order_id", order.ID)
		}
		if s.reservations != nil {
			if _, err := s.reservations.ReleaseSession(ctx, order.SessionID); err != nil {
				s.logger.Warn("failed to release reservations after order", "error", err, "order_id", order.ID)
			}
		}
	}

	for _, n := range s.notifiers {
		if err := n.OrderPlaced(ctx, *order); err != nil {
			s.logger.Error("failed to dispatch order placed notification", "error", err, "order_id", order.ID)
		}
	}
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	return s.repo.List(ctx)
}

// UpdateStatus moves an order to status and notifies when it changed.
func (s *Service) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidStatus
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}

	order, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrOrderNotFound
	}

	s.logger.Info("order status updated", "order_id", id, "from", current.Status, "to", status)
	for _, n := range s.notifiers {
		if err := n.OrderStatusChanged(ctx, *order, current.Status); err != nil {
			s.logger.Error("failed to dispatch status notification", "error", err, "order_id", id)
		}
	}
	return order, nil
}

func linesFromCart(cart domain.Cart) []LineInput {
	entries := cart.Lines()
	lines := make([]LineInput, 0, len(entries))
	for _, e := range entries {
		productID := e.ProductID
		lines = append(lines, LineInput{
			ProductID: &productID,
			SizeID:    e.SizeID,
			SizeName:  e.SizeName,
			Name:      e.ProductName,
			Price:     e.Price,
			Quantity:  e.Quantity,
		})
	}
	return lines
}

func validateLines(lines []LineInput) error {
	fields := map[string]string{}
	for i, line := range lines {
		if line.Quantity <= 0 {
			fields[fmt.Sprintf("items[%d].quantity", i)] = "Ensure this value is greater than or equal to 1."
		}
		if line.ProductID == nil {
			if strings.TrimSpace(line.Name) == "" {
				fields[fmt.Sprintf("items[%d].name", i)] = "This field is required."
			}
			if line.Price.IsNegative() {
				fields[fmt.Sprintf("items[%d].price", i)] = "Ensure this value is greater than or equal to 0."
			}
		}
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
