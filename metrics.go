package diffmerge

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
)

// engineMetrics holds the counters an Engine records.
type engineMetrics struct {
	bisectFallbacks metric.Int64Counter
	patchesApplied  metric.Int64Counter
	patchesFailed   metric.Int64Counter
	mergeRegions    metric.Int64Counter
}

func newEngineMetrics(m metric.Meter, log *slog.Logger) *engineMetrics {
	counter := func(name, desc, unit string) metric.Int64Counter {
		c, err := m.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		if err != nil {
			log.Warn("creating counter", "name", name, "error", err)
			return noopmetric.Int64Counter{}
		}
		return c
	}
	return &engineMetrics{
		bisectFallbacks: counter("diffmerge.bisect.fallbacks",
			"Bisections that hit the deadline and fell back to delete+insert", "{fallback}"),
		patchesApplied: counter("diffmerge.patch.applied",
			"Patches applied successfully", "{patch}"),
		patchesFailed: counter("diffmerge.patch.failed",
			"Patches that could not be located or matched too poorly", "{patch}"),
		mergeRegions: counter("diffmerge.merge.regions",
			"Three-way merge regions emitted, by kind", "{region}"),
	}
}

func (m *engineMetrics) bisectFallback() {
	m.bisectFallbacks.Add(context.Background(), 1)
}

func (m *engineMetrics) patchResult(applied bool) {
	if applied {
		m.patchesApplied.Add(context.Background(), 1)
		return
	}
	m.patchesFailed.Add(context.Background(), 1)
}

func (m *engineMetrics) region(kind RegionKind) {
	m.mergeRegions.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("kind", kind.String())))
}
