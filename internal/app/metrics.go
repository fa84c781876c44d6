package app

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/storefront/internal/domain/cart"
)

// cartMetrics records cart events. Its Listen method is a cart.Listener.
type cartMetrics struct {
	events metric.Int64Counter
	total  metric.Float64Gauge
	items  metric.Int64Gauge
}

func newCartMetrics(mp metric.MeterProvider) (*cartMetrics, error) {
	meter := mp.Meter("github.com/xenking/storefront/internal/app")

	events, err := meter.Int64Counter("storefront.cart.events",
		metric.WithDescription("Cart mutations by kind"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "events counter")
	}
	total, err := meter.Float64Gauge("storefront.cart.total",
		metric.WithDescription("Cart total after the last mutation"),
		metric.WithUnit("{USD}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "total gauge")
	}
	items, err := meter.Int64Gauge("storefront.cart.items",
		metric.WithDescription("Cart entries after the last mutation"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "items gauge")
	}
	return &cartMetrics{events: events, total: total, items: items}, nil
}

func (m *cartMetrics) Listen(ctx context.Context, ev cart.Event) error {
	m.events.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(ev.Kind))))
	m.total.Record(ctx, ev.Total.InexactFloat64())
	m.items.Record(ctx, int64(ev.Count))
	return nil
}
