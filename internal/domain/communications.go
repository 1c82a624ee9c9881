package domain

import "time"

// EmailListEntry aggregates every interaction seen for one address.
type EmailListEntry struct {
	ID                int64     `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	Sources           []string  `json:"sources"`
	SubscriptionCount int       `json:"subscription_count"`
	MessageCount      int       `json:"message_count"`
	OrderCount        int       `json:"order_count"`
	Active            bool      `json:"is_active"`
	FirstSeen         time.Time `json:"first_seen"`
	LastActivity      time.Time `json:"last_activity"`
}
