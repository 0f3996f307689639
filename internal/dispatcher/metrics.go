package dispatcher

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/poseidonvest/globe/internal/dispatcher"

// metrics are recorded on the global meter, a no-op until a provider is set.
type metrics struct {
	processed metric.Int64Counter
	dropped   metric.Int64Counter
	deferred  metric.Int64Counter
}

func newMetrics(depth func(observe func(command string, n int))) (*metrics, error) {
	m := otel.Meter(instrumentationName)
	var (
		out metrics
		err error
	)

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&out.processed, "dispatcher.events.processed", "Commands whose handler has run"},
		{&out.dropped, "dispatcher.events.dropped", "Commands rejected by a full queue"},
		{&out.deferred, "dispatcher.events.deferred", "Commands handed to the frame loop"},
	}
	for _, c := range counters {
		if *c.dst, err = m.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, fmt.Errorf("creating %s counter: %w", c.name, err)
		}
	}

	gauge, err := m.Int64ObservableGauge("dispatcher.queue.size",
		metric.WithDescription("Commands waiting in a buffered handler"))
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}
	_, err = m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		depth(func(command string, n int) {
			o.ObserveInt64(gauge, int64(n), commandAttr(command))
		})
		return nil
	}, gauge)
	if err != nil {
		return nil, fmt.Errorf("registering queue size callback: %w", err)
	}
	return &out, nil
}

func commandAttr(command string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("command", command))
}

func inc(c metric.Int64Counter, command string) {
	c.Add(context.Background(), 1, commandAttr(command))
}
