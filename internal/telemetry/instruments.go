package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// Instruments are the storefront business counters. A nil *Instruments is
// valid and records nothing.
type Instruments struct {
	reservationsGranted metric.Int64Counter
	reservationsDenied  metric.Int64Counter
	reservationsExpired metric.Int64Counter
	reservationsRenewed metric.Int64Counter
	ordersCreated       metric.Int64Counter
	ordersRejected      metric.Int64Counter
}

func NewInstruments(meter metric.Meter) (*Instruments, error) {
	var (
		i   Instruments
		err error
	)

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&i.reservationsGranted, "storefront.reservations.granted", "Reservations created or refreshed"},
		{&i.reservationsDenied, "storefront.reservations.denied", "Reservation attempts refused for lack of stock"},
		{&i.reservationsExpired, "storefront.reservations.expired", "Reservations deactivated by the expiry sweep"},
		{&i.reservationsRenewed, "storefront.reservations.renewed", "Lapsed reservations renewed at checkout"},
		{&i.ordersCreated, "storefront.orders.created", "Orders committed"},
		{&i.ordersRejected, "storefront.orders.rejected", "Orders refused for insufficient stock"},
	}

	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
	}
	return &i, nil
}

func (i *Instruments) ReservationGranted(ctx context.Context) {
	if i != nil {
		i.reservationsGranted.Add(ctx, 1)
	}
}

func (i *Instruments) ReservationDenied(ctx context.Context) {
	if i != nil {
		i.reservationsDenied.Add(ctx, 1)
	}
}

func (i *Instruments) ReservationsExpired(ctx context.Context, n int64) {
	if i != nil && n > 0 {
		i.reservationsExpired.Add(ctx, n)
	}
}

func (i *Instruments) ReservationRenewed(ctx context.Context) {
	if i != nil {
		i.reservationsRenewed.Add(ctx, 1)
	}
}

func (i *Instruments) OrderCreated(ctx context.Context) {
	if i != nil {
		i.ordersCreated.Add(ctx, 1)
	}
}

func (i *Instruments) OrderRejected(ctx context.Context) {
	if i != nil {
		i.ordersRejected.Add(ctx, 1)
	}
}
