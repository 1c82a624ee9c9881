package email

import (
	"fmt"
	"strings"

	"github.com/joao-fontenele/storefront/internal/domain"
)

func OrderConfirmation(order domain.Order) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThank you for your order #%s.\n\n", order.FullName(), order.ID)
	writeItems(&b, order)
	fmt.Fprintf(&b, "\nWe will ship to: %s\n", shippingAddress(order))

	return Message{
		To:      []string{order.Email},
		Subject: "Order Confirmation - Order #" + order.ID,
		Body:    b.String(),
	}
}

func AdminNewOrder(order domain.Order, recipients []string) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "New order #%s from %s <%s>, phone %s.\n\n", order.ID, order.FullName(), order.Email, order.Phone)
	writeItems(&b, order)
	fmt.Fprintf(&b, "\nShip to: %s\n", shippingAddress(order))

	return Message{
		To:      recipients,
		Subject: fmt.Sprintf("New Order #%s - %s", order.ID, order.FullName()),
		Body:    b.String(),
	}
}

func StatusUpdate(order domain.Order) Message {
	return Message{
		To:      []string{order.Email},
		Subject: "Order Status Update - Order #" + order.ID,
		Body: fmt.Sprintf("Hi %s,\n\nYour order #%s is now %s.\n",
			order.FullName(), order.ID, strings.ToLower(order.Status.Display())),
	}
}

func AdminStatusUpdate(order domain.Order, previous domain.OrderStatus, recipients []string) Message {
	return Message{
		To:      recipients,
		Subject: fmt.Sprintf("Order #%s status: %s", order.ID, order.Status.Display()),
		Body: fmt.Sprintf("Order #%s for %s moved from %s to %s.\n",
			order.ID, order.FullName(), previous.Display(), order.Status.Display()),
	}
}

func writeItems(b *strings.Builder, order domain.Order) {
	for _, item := range order.Items {
		name := item.ProductName
		if item.SizeName != "" {
			name += " (Size: " + item.SizeName + ")"
		}
		fmt.Fprintf(b, "  %d x %s @ %s = %s\n", item.Quantity, name, item.Price.StringFixed(2), item.Cost().StringFixed(2))
	}
	fmt.Fprintf(b, "\nSubtotal: %s\nShipping: %s\nTotal: %s\n",
		order.Subtotal.StringFixed(2), order.ShippingCost.StringFixed(2), order.Total.StringFixed(2))
}

func shippingAddress(order domain.Order) string {
	parts := []string{order.Address, order.City, order.Governorate, order.PostalCode}
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}
