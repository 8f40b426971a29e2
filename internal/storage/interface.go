package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidBatchSize indicates a sample request for zero transitions.
	ErrInvalidBatchSize = errors.New("batch size must be positive")
	// ErrNotEnoughTransitions indicates a batch larger than the buffer population.
	ErrNotEnoughTransitions = errors.New("not enough transitions")
	// ErrLengthMismatch indicates parallel slices of different lengths.
	ErrLengthMismatch = errors.New("mismatched lengths")
	// ErrClosed indicates the backend has been closed.
	ErrClosed = errors.New("backend closed")
)

// Transition represents a single experience transition
type Transition struct {
	ID              string            `json:"id"`
	EnvID           string            `json:"env_id"`
	EpisodeID       string            `json:"episode_id"`
	StepNumber      uint32            `json:"step_number"`
	State           []byte            `json:"state"`
	Action          []byte            `json:"action"`
	NextState       []byte            `json:"next_state"`
	Observation     []byte            `json:"observation"`
	NextObservation []byte            `json:"next_observation"`
	Reward          float32           `json:"reward"`
	Done            bool              `json:"done"`
	Timestamp       time.Time         `json:"timestamp"`
	Metadata        map[string]string `json:"metadata"`
}

// Batch is a prioritized sample of transitions. All slices are parallel.
type Batch struct {
	Transitions []*Transition
	Weights     []float32
	Priorities  []float64
	TreeIndices []int

	// Population is the number of stored transitions the batch was drawn from.
	Population int
}

// Stats represents replay buffer statistics
type Stats struct {
	TotalTransitions uint64
	Capacity         uint64
	TotalPriority    float64
	MaxPriority      float64
	Beta             float64
	UnsampledCount   uint64
	OldestTimestamp  *time.Time
	NewestTimestamp  *time.Time
	StorageBytes     uint64
}

// Backend defines the interface for replay buffer storage implementations
type Backend interface {
	// Store a single transition
	Store(ctx context.Context, transition *Transition) error

	// Store multiple transitions in a batch
	StoreBatch(ctx context.Context, transitions []*Transition) ([]string, error)

	// Sample a prioritized batch of transitions
	Sample(ctx context.Context, batchSize int) (*Batch, error)

	// Feed back one error per sampled transition; returns how many were applied
	ReportErrors(ctx context.Context, transitionIDs []string, errs []float32) (int, error)

	// Get buffer statistics
	GetStats(ctx context.Context) (*Stats, error)

	// Close the backend and cleanup resources
	Close() error
}
