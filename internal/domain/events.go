package domain

import "time"

type OrderCreatedEvent struct {
	Order     Order     `json:"order"`
	Timestamp time.Time `json:"timestamp"`
}

type OrderStatusChangedEvent struct {
	Order          Order       `json:"order"`
	PreviousStatus OrderStatus `json:"previous_status"`
	Timestamp      time.Time   `json:"timestamp"`
}
