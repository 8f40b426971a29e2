package metrics

import (
	"time"

	"github.com/rs/zerolog"
)

// Collector emits replay metrics as structured log events
type Collector struct {
	logger zerolog.Logger
}

func NewCollector(logger zerolog.Logger) *Collector {
	return &Collector{
		logger: logger,
	}
}

// Track ingestion metrics
func (c *Collector) TransitionsStored(stored, failed int) {
	event := c.logger.Debug()
	if failed > 0 {
		event = c.logger.Warn()
	}
	event.
		Str("metric", "transitions_stored").
		Int("stored", stored).
		Int("failed", failed).
		Msg("Transitions stored metric")
}

// Track sampling metrics
func (c *Collector) BatchSampled(batchSize int, duration time.Duration) {
	c.logger.Debug().
		Str("metric", "batch_sampled").
		Int("batch_size", batchSize).
		Dur("duration", duration).
		Msg("Batch sampled metric")
}

// Track priority feedback
func (c *Collector) PrioritiesUpdated(updated, skipped int) {
	c.logger.Debug().
		Str("metric", "priorities_updated").
		Int("updated", updated).
		Int("skipped", skipped).
		Msg("Priorities updated metric")
}

// Track API request metrics
func (c *Collector) APIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	c.logger.Info().
		Str("metric", "api_request").
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status_code", statusCode).
		Dur("duration", duration).
		Msg("API request metric")
}

// Track periodic buffer snapshots
func (c *Collector) BufferSnapshot(size, capacity uint64, totalPriority, beta float64) {
	c.logger.Info().
		Str("metric", "buffer_snapshot").
		Uint64("size", size).
		Uint64("capacity", capacity).
		Float64("total_priority", totalPriority).
		Float64("beta", beta).
		Msg("Buffer snapshot metric")
}
