package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/joao-fontenele/storefront/internal/communications"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/email"
)

type Sender interface {
	Send(ctx context.Context, msg email.Message) error
}

type EmailList interface {
	Record(ctx context.Context, address, name, source string) (domain.EmailListEntry, error)
}

// NotificationHandler sends order emails and records customers on the
// mailing list. Delivery failures are logged and never returned, so a broken
// mail relay cannot stall the consumer or fail an order.
type NotificationHandler struct {
	sender          Sender
	emails          EmailList
	adminRecipients []string
	logger          *slog.Logger
}

func NewNotificationHandler(sender Sender, emails EmailList, adminRecipients []string, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		sender:          sender,
		emails:          emails,
		adminRecipients: adminRecipients,
		logger:          logger,
	}
}

func (h *NotificationHandler) HandleOrderCreated(ctx context.Context, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("dropping malformed order created event", "error", err)
		return nil
	}
	return h.OrderPlaced(ctx, event.Order)
}

func (h *NotificationHandler) HandleOrderStatusChanged(ctx context.Context, payload []byte) error {
	var event domain.OrderStatusChangedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.Error("dropping malformed order status event", "error", err)
		return nil
	}
	return h.OrderStatusChanged(ctx, event.Order, event.PreviousStatus)
}

func (h *NotificationHandler) OrderPlaced(ctx context.Context, order domain.Order) error {
	h.logger.Info("processing order placed", "order_id", order.ID, "items", len(order.Items))

	if h.emails != nil {
		if _, err := h.emails.Record(ctx, order.Email, order.FullName(), communications.SourceOrder); err != nil {
			h.logger.Error("failed to record order email", "error", err, "order_id", order.ID)
		}
	}

	h.send(ctx, order.ID, "order confirmation", email.OrderConfirmation(order))
	if len(h.adminRecipients) > 0 {
		h.send(ctx, order.ID, "admin new order", email.AdminNewOrder(order, h.adminRecipients))
	}
	return nil
}

func (h *NotificationHandler) OrderStatusChanged(ctx context.Context, order domain.Order, previous domain.OrderStatus) error {
	h.logger.Info("processing order status change", "order_id", order.ID, "from", previous, "to", order.Status)

	h.send(ctx, order.ID, "status update", email.StatusUpdate(order))
	if len(h.adminRecipients) > 0 {
		h.send(ctx, order.ID, "admin status update", email.AdminStatusUpdate(order, previous, h.adminRecipients))
	}
	return nil
}

func (h *NotificationHandler) send(ctx context.Context, orderID, kind string, msg email.Message) {
	if err := h.sender.Send(ctx, msg); err != nil {
		h.logger.Error("failed to send email", "error", fmt.Errorf("%s: %w", kind, err), "order_id", orderID)
		return
	}
	h.logger.Info("email sent", "kind", kind, "order_id", orderID)
}
