package messaging

import (
	"context"
	"time"

	"github.com/joao-fontenele/storefront/internal/domain"
)

const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusChanged = "order.status_changed"
)

type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// OrderEvents publishes order lifecycle events. The worker turns them into
// emails and mailing-list updates.
type OrderEvents struct {
	created       Publisher
	statusChanged Publisher
}

func NewOrderEvents(created, statusChanged Publisher) *OrderEvents {
	return &OrderEvents{created: created, statusChanged: statusChanged}
}

func (e *OrderEvents) OrderPlaced(ctx context.Context, order domain.Order) error {
	return e.created.Publish(ctx, order.ID, domain.OrderCreatedEvent{
		Order:     order,
		Timestamp: time.Now().UTC(),
	})
}

func (e *OrderEvents) OrderStatusChanged(ctx context.Context, order domain.Order, previous domain.OrderStatus) error {
	return e.statusChanged.Publish(ctx, order.ID, domain.OrderStatusChangedEvent{
		Order:          order,
		PreviousStatus: previous,
		Timestamp:      time.Now().UTC(),
	})
}
