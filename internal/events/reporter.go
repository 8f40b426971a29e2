package events

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartridge/replay/internal/metrics"
	"github.com/cartridge/replay/internal/storage"
)

// Reporter periodically snapshots the buffer and publishes the result
type Reporter struct {
	backend   storage.Backend
	publisher Publisher
	metrics   *metrics.Collector
	interval  time.Duration
	logger    zerolog.Logger
}

// NewReporter creates a new stats reporter
func NewReporter(backend storage.Backend, publisher Publisher, collector *metrics.Collector, interval time.Duration, logger zerolog.Logger) *Reporter {
	return &Reporter{
		backend:   backend,
		publisher: publisher,
		metrics:   collector,
		interval:  interval,
		logger:    logger,
	}
}

// Start runs the reporting loop until ctx is cancelled
func (r *Reporter) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info().
		Dur("interval", r.interval).
		Msg("Starting stats reporter")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("Stats reporter stopped")
			return nil
		case <-ticker.C:
			if err := r.Report(ctx); err != nil {
				r.logger.Error().Err(err).Msg("Failed to report buffer stats")
			}
		}
	}
}

// Report publishes a single snapshot.
func (r *Reporter) Report(ctx context.Context) error {
	stats, err := r.backend.GetStats(ctx)
	if err != nil {
		return err
	}

	event := BufferStatsEvent{
		ReportedAt:     time.Now().UTC(),
		Size:           stats.TotalTransitions,
		Capacity:       stats.Capacity,
		TotalPriority:  stats.TotalPriority,
		MaxPriority:    stats.MaxPriority,
		Beta:           stats.Beta,
		UnsampledCount: stats.UnsampledCount,
		StorageBytes:   stats.StorageBytes,
	}
	if stats.Capacity > 0 {
		event.Fill = float64(stats.TotalTransitions) / float64(stats.Capacity)
	}

	r.metrics.BufferSnapshot(event.Size, event.Capacity, event.TotalPriority, event.Beta)
	return r.publisher.PublishBufferStats(ctx, event)
}
