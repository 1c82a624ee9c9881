package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/email"
)

type fakeSender struct {
	sent []email.Message
	err  error
}

func (s *fakeSender) Send(_ context.Context, msg email.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type fakeEmailList struct {
	recorded []string
}

func (l *fakeEmailList) Record(_ context.Context, address, _, source string) (domain.EmailListEntry, error) {
	l.recorded = append(l.recorded, address+":"+source)
	return domain.EmailListEntry{Email: address}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotificationHandler_HandleOrderCreated(t *testing.T) {
	order := domain.Order{
		ID:       "order-1",
		Customer: domain.Customer{FirstName: "Ali", Email: "ali@example.com"},
		Status:   domain.OrderStatusPending,
	}
	payload, _ := json.Marshal(domain.OrderCreatedEvent{Order: order})

	t.Run("sends customer and admin emails", func(t *testing.T) {
		sender := &fakeSender{}
		list := &fakeEmailList{}
		h := NewNotificationHandler(sender, list, []string{"ops@example.com"}, testLogger())

		if err := h.HandleOrderCreated(context.Background(), payload); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(sender.sent) != 2 {
			t.Fatalf("expected 2 emails, got %d", len(sender.sent))
		}
		if sender.sent[0].To[0] != "ali@example.com" || sender.sent[1].To[0] != "ops@example.com" {
			t.Errorf("unexpected recipients: %v / %v", sender.sent[0].To, sender.sent[1].To)
		}
		if len(list.recorded) != 1 || list.recorded[0] != "ali@example.com:order" {
			t.Errorf("unexpected email list calls: %v", list.recorded)
		}
	})

	t.Run("skips admin email without recipients", func(t *testing.T) {
		sender := &fakeSender{}
		h := NewNotificationHandler(sender, nil, nil, testLogger())

		_ = h.HandleOrderCreated(context.Background(), payload)
		if len(sender.sent) != 1 {
			t.Errorf("expected 1 email, got %d", len(sender.sent))
		}
	})

	t.Run("delivery failures are swallowed", func(t *testing.T) {
		h := NewNotificationHandler(&fakeSender{err: errors.New("smtp down")}, nil, []string{"ops@example.com"}, testLogger())

		if err := h.HandleOrderCreated(context.Background(), payload); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	})

	t.Run("malformed payload is dropped", func(t *testing.T) {
		sender := &fakeSender{}
		h := NewNotificationHandler(sender, nil, nil, testLogger())

		if err := h.HandleOrderCreated(context.Background(), []byte("{")); err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
		if len(sender.sent) != 0 {
			t.Error("expected no emails")
		}
	})
}

func TestNotificationHandler_HandleOrderStatusChanged(t *testing.T) {
	sender := &fakeSender{}
	h := NewNotificationHandler(sender, nil, []string{"ops@example.com"}, testLogger())

	payload, _ := json.Marshal(domain.OrderStatusChangedEvent{
		Order: domain.Order{
			ID:       "order-2",
			Customer: domain.Customer{Email: "sara@example.com"},
			Status:   domain.OrderStatusDelivered,
		},
		PreviousStatus: domain.OrderStatusShipped,
	})

	if err := h.HandleOrderStatusChanged(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(sender.sent))
	}
	if sender.sent[1].Subject != "Order #order-2 status: Delivered" {
		t.Errorf("unexpected admin subject: %s", sender.sent[1].Subject)
	}
}
