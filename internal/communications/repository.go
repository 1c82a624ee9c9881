// Package communications keeps the consolidated mailing list fed by
// orders, subscriptions and contact messages.
package communications

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/postgres"
)

const (
	SourceOrder        = "order"
	SourceSubscription = "subscription"
	SourceMessage      = "message"
)

var ErrEmailRequired = errors.New("email is required")

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Record upserts the address, appending source if it is new and bumping the
// counter that matches it. An existing non-empty name is kept.
func (r *Repository) Record(ctx context.Context, email, name, source string) (domain.EmailListEntry, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.EmailListEntry{}, ErrEmailRequired
	}

	var subscriptions, messages, orders int
	switch source {
	case SourceSubscription:
		subscriptions = 1
	case SourceMessage:
		messages = 1
	case SourceOrder:
		orders = 1
	}

	sources := []string{}
	if source != "" {
		sources = append(sources, source)
	}

	var e domain.EmailListEntry
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO email_list (email, name, sources, subscription_count, message_count, order_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE SET
			name = CASE WHEN email_list.name = '' THEN EXCLUDED.name ELSE email_list.name END,
			sources = CASE
				WHEN EXCLUDED.sources <@ email_list.sources THEN email_list.sources
				ELSE email_list.sources || EXCLUDED.sources
			END,
			subscription_count = email_list.subscription_count + EXCLUDED.subscription_count,
			message_count = email_list.message_count + EXCLUDED.message_count,
			order_count = email_list.order_count + EXCLUDED.order_count,
			is_active = TRUE,
			last_activity = NOW()
		RETURNING id, email, name, sources, subscription_count, message_count, order_count,
		          is_active, first_seen, last_activity
	`, email, strings.TrimSpace(name), pq.Array(sources), subscriptions, messages, orders).Scan(
		&e.ID, &e.Email, &e.Name, pq.Array(&e.Sources),
		&e.SubscriptionCount, &e.MessageCount, &e.OrderCount,
		&e.Active, &e.FirstSeen, &e.LastActivity,
	)
	if err != nil {
		return domain.EmailListEntry{}, err
	}
	return e, nil
}

func (r *Repository) Get(ctx context.Context, email string) (*domain.EmailListEntry, error) {
	var e domain.EmailListEntry
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, email, name, sources, subscription_count, message_count, order_count,
		       is_active, first_seen, last_activity
		FROM email_list
		WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(email))).Scan(
		&e.ID, &e.Email, &e.Name, pq.Array(&e.Sources),
		&e.SubscriptionCount, &e.MessageCount, &e.OrderCount,
		&e.Active, &e.FirstSeen, &e.LastActivity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
