package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestInstruments(t *testing.T) {
	ctx := context.Background()

	t.Run("nil instruments are a no-op", func(t *testing.T) {
		var i *Instruments
		i.ReservationGranted(ctx)
		i.ReservationsExpired(ctx, 3)
		i.OrderCreated(ctx)
	})

	t.Run("records counters", func(t *testing.T) {
		reader := metric.NewManualReader()
		provider := metric.NewMeterProvider(metric.WithReader(reader))

		i, err := NewInstruments(provider.Meter("test"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		i.ReservationGranted(ctx)
		i.ReservationGranted(ctx)
		i.ReservationsExpired(ctx, 4)

		var rm metricdata.ResourceMetrics
		if err := reader.Collect(ctx, &rm); err != nil {
			t.Fatalf("collect failed: %v", err)
		}

		got := map[string]int64{}
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok {
					continue
				}
				for _, dp := range sum.DataPoints {
					got[m.Name] += dp.Value
				}
			}
		}

		if got["storefront.reservations.granted"] != 2 {
			t.Errorf("expected 2 granted, got %d", got["storefront.reservations.granted"])
		}
		if got["storefront.reservations.expired"] != 4 {
			t.Errorf("expected 4 expired, got %d", got["storefront.reservations.expired"])
		}
	})
}
