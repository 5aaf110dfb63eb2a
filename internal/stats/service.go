package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/gymbuddy/internal/telemetry/metrics"
	"github.com/2beens/gymbuddy/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

type Service struct {
	store          Store
	engine         *Engine
	metricsManager *metrics.Manager
}

func NewService(store Store, engine *Engine, metricsManager *metrics.Manager) *Service {
	return &Service{
		store:          store,
		engine:         engine,
		metricsManager: metricsManager,
	}
}

func (s *Service) Stats(ctx context.Context, userID int, now time.Time) (_ *Stats, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.stats.compute")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	snapshot, err := s.store.Snapshot(ctx, userID)
	if err != nil {
		s.metricsManager.CounterStatsComputed.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("snapshot user %d: %w", userID, err)
	}

	start := time.Now()
	stats, err := s.engine.Compute(snapshot.Records, snapshot.Templates, snapshot.WeightSamples, now)
	s.metricsManager.HistStatsComputeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			s.metricsManager.CounterStatsComputed.WithLabelValues("invalid").Inc()
		} else {
			s.metricsManager.CounterStatsComputed.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	s.metricsManager.CounterStatsComputed.WithLabelValues("ok").Inc()
	return stats, nil
}
