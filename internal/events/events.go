package events

import (
	"context"
	"time"
)

// Publisher is implemented by downstream fan-out mechanisms.
type Publisher interface {
	PublishBufferStats(ctx context.Context, payload BufferStatsEvent) error
}

// BufferStatsEvent is a periodic snapshot of the replay buffer.
type BufferStatsEvent struct {
	ReportedAt     time.Time `json:"reported_at"`
	Size           uint64    `json:"size"`
	Capacity       uint64    `json:"capacity"`
	Fill           float64   `json:"fill"`
	TotalPriority  float64   `json:"total_priority"`
	MaxPriority    float64   `json:"max_priority"`
	Beta           float64   `json:"beta"`
	UnsampledCount uint64    `json:"unsampled_count"`
	StorageBytes   uint64    `json:"storage_bytes"`
}

// Full reports whether every slot is occupied, i.e. inserts now evict.
func (e BufferStatsEvent) Full() bool {
	return e.Capacity > 0 && e.Size >= e.Capacity
}

// NoopPublisher discards events; useful for tests.
type NoopPublisher struct{}

// PublishBufferStats satisfies Publisher.
func (NoopPublisher) PublishBufferStats(context.Context, BufferStatsEvent) error { return nil }
