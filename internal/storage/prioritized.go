package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/uuid"

	"github.com/cartridge/replay/pkg/per"
)

// transitionOverhead approximates per-transition bookkeeping in StorageBytes.
const transitionOverhead = 100

// PrioritizedBackend implements a fixed-capacity prioritized replay buffer.
// New transitions overwrite the oldest once the buffer is full.
type PrioritizedBackend struct {
	mu      sync.Mutex
	replay  *per.Replay[Transition]
	ids     []string       // slot -> TransitionID
	slots   map[string]int // TransitionID -> slot
	sampled *roaring.Bitmap
	closed  bool
}

// NewPrioritizedBackend creates a new prioritized storage backend
func NewPrioritizedBackend(cfg per.Config, src per.Source) (*PrioritizedBackend, error) {
	replay, err := per.New[Transition](cfg, src)
	if err != nil {
		return nil, fmt.Errorf("create replay buffer: %w", err)
	}

	return &PrioritizedBackend{
		replay:  replay,
		ids:     make([]string, replay.Capacity()),
		slots:   make(map[string]int, replay.Capacity()),
		sampled: roaring.New(),
	}, nil
}

// Store implements Backend.Store
func (b *PrioritizedBackend) Store(ctx context.Context, transition *Transition) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	b.store(transition)
	return nil
}

func (b *PrioritizedBackend) store(transition *Transition) {
	// Generate ID if not provided
	if transition.ID == "" {
		transition.ID = uuid.New().String()
	}

	// Set timestamp if not provided
	if transition.Timestamp.IsZero() {
		transition.Timestamp = time.Now()
	}

	if prev, ok := b.slots[transition.ID]; ok {
		b.ids[prev] = ""
	}

	slot := b.replay.Insert(*transition)
	if evicted := b.ids[slot]; evicted != "" {
		delete(b.slots, evicted)
	}
	b.ids[slot] = transition.ID
	b.slots[transition.ID] = slot
	b.sampled.Remove(uint32(slot))
}

// StoreBatch implements Backend.StoreBatch
func (b *PrioritizedBackend) StoreBatch(ctx context.Context, transitions []*Transition) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	ids := make([]string, len(transitions))
	for i, transition := range transitions {
		if transition == nil {
			return ids[:i], fmt.Errorf("transition %d is nil", i)
		}
		b.store(transition)
		ids[i] = transition.ID
	}

	return ids, nil
}

// Sample implements Backend.Sample
func (b *PrioritizedBackend) Sample(ctx context.Context, batchSize int) (*Batch, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	if batchSize <= 0 {
		return nil, ErrInvalidBatchSize
	}
	n := b.replay.Len()
	if batchSize > n {
		return nil, fmt.Errorf("%w: requested %d, have %d", ErrNotEnoughTransitions, batchSize, n)
	}

	drawn := b.replay.SampleBatch(batchSize)

	batch := &Batch{
		Transitions: make([]*Transition, batchSize),
		Weights:     make([]float32, batchSize),
		Priorities:  make([]float64, batchSize),
		TreeIndices: make([]int, batchSize),
		Population:  n,
	}
	for i, s := range drawn.Samples {
		item := b.replay.Item(s.DataIndex)
		batch.Transitions[i] = &item
		batch.Weights[i] = float32(drawn.Weights[i])
		batch.Priorities[i] = s.Priority
		batch.TreeIndices[i] = s.TreeIndex
		b.sampled.Add(uint32(s.DataIndex))
	}

	return batch, nil
}

// ReportErrors implements Backend.ReportErrors. Transitions that have been
// overwritten since they were sampled are skipped.
func (b *PrioritizedBackend) ReportErrors(ctx context.Context, transitionIDs []string, errs []float32) (int, error) {
	if len(transitionIDs) != len(errs) {
		return 0, fmt.Errorf("%w: %d IDs vs %d errors", ErrLengthMismatch, len(transitionIDs), len(errs))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	values := make([]float64, 0, len(errs))
	leaves := make([]int, 0, len(errs))
	for i, id := range transitionIDs {
		slot, ok := b.slots[id]
		if !ok {
			continue
		}
		values = append(values, float64(errs[i]))
		leaves = append(leaves, b.replay.LeafIndex(slot))
	}

	b.replay.ReportErrors(values, leaves)
	return len(leaves), nil
}

// GetStats implements Backend.GetStats
func (b *PrioritizedBackend) GetStats(ctx context.Context) (*Stats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	n := b.replay.Len()
	stats := &Stats{
		TotalTransitions: uint64(n),
		Capacity:         uint64(b.replay.Capacity()),
		TotalPriority:    b.replay.Total(),
		MaxPriority:      b.replay.MaxPriority(),
		Beta:             b.replay.Beta(),
		UnsampledCount:   uint64(n) - b.sampled.GetCardinality(),
	}

	var oldest, newest time.Time
	for slot := 0; slot < n; slot++ {
		t := b.replay.Item(slot)
		stats.StorageBytes += uint64(len(t.State) + len(t.Action) + len(t.NextState) +
			len(t.Observation) + len(t.NextObservation) + transitionOverhead)

		if oldest.IsZero() || t.Timestamp.Before(oldest) {
			oldest = t.Timestamp
		}
		if newest.IsZero() || t.Timestamp.After(newest) {
			newest = t.Timestamp
		}
	}
	if n > 0 {
		stats.OldestTimestamp = &oldest
		stats.NewestTimestamp = &newest
	}

	return stats, nil
}

// Close implements Backend.Close
func (b *PrioritizedBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.slots = nil
	b.ids = nil
	b.sampled.Clear()

	return nil
}
