package booking

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Alijeyrad/consulto_backend/internal/repo"
)

const meterName = "github.com/Alijeyrad/consulto_backend/internal/service/booking"

type metrics struct {
	bookings    metric.Int64Counter
	transitions metric.Int64Counter
	refundTotal metric.Int64Counter
}

func newMetrics() *metrics {
	meter := otel.Meter(meterName)

	bookings, _ := meter.Int64Counter(
		"booking_created_count",
		metric.WithDescription("Bookings created with a paid session fee"),
		metric.WithUnit("{booking}"),
	)
	transitions, _ := meter.Int64Counter(
		"booking_transition_count",
		metric.WithDescription("Booking status transitions"),
		metric.WithUnit("{transition}"),
	)
	refundTotal, _ := meter.Int64Counter(
		"booking_refund_amount",
		metric.WithDescription("Refunded amount in minor currency units"),
		metric.WithUnit("{unit}"),
	)

	return &metrics{bookings: bookings, transitions: transitions, refundTotal: refundTotal}
}

func (m *metrics) created(ctx context.Context) {
	m.bookings.Add(ctx, 1)
}

func (m *metrics) transitioned(ctx context.Context, to repo.BookingStatus) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(to))))
}

func (m *metrics) refunded(ctx context.Context, amount int64) {
	m.refundTotal.Add(ctx, amount)
}
