package operations

import (
	"go.opentelemetry.io/otel/metric"
)

type metrics struct {
	movements   metric.Int64Counter
	sales       metric.Int64Counter
	revenue     metric.Float64Counter
	transitions metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	var (
		m   metrics
		err error
	)
	m.movements, err = meter.Int64Counter("stock.movements",
		metric.WithDescription("Units moved in or out of stock by direction"),
		metric.WithUnit("{unit}"))
	if err != nil {
		return nil, err
	}
	m.sales, err = meter.Int64Counter("recipe.sales",
		metric.WithDescription("The number of recipes sold"),
		metric.WithUnit("{sale}"))
	if err != nil {
		return nil, err
	}
	m.revenue, err = meter.Float64Counter("recipe.revenue",
		metric.WithDescription("Revenue booked by sales"))
	if err != nil {
		return nil, err
	}
	m.transitions, err = meter.Int64Counter("procurement.transitions",
		metric.WithDescription("Procurement request state changes by target status"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}
	return &m, nil
}
