// Package replayv1 defines the messages, service descriptor and client of
// the replay gRPC API. Messages travel as JSON through Codec.
package replayv1

// Transition is a single experience transition.
type Transition struct {
	Id              string            `json:"id,omitempty"`
	EnvId           string            `json:"env_id,omitempty"`
	EpisodeId       string            `json:"episode_id,omitempty"`
	StepNumber      uint32            `json:"step_number,omitempty"`
	State           []byte            `json:"state,omitempty"`
	Action          []byte            `json:"action,omitempty"`
	NextState       []byte            `json:"next_state,omitempty"`
	Observation     []byte            `json:"observation,omitempty"`
	NextObservation []byte            `json:"next_observation,omitempty"`
	Reward          float32           `json:"reward,omitempty"`
	Done            bool              `json:"done,omitempty"`
	Timestamp       uint64            `json:"timestamp,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

type StoreTransitionRequest struct {
	Transition *Transition `json:"transition"`
}

type StoreTransitionResponse struct {
	TransitionId string `json:"transition_id,omitempty"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type StoreBatchRequest struct {
	Transitions []*Transition `json:"transitions"`
}

type StoreBatchResponse struct {
	TransitionIds []string `json:"transition_ids,omitempty"`
	StoredCount   uint32   `json:"stored_count"`
	FailedCount   uint32   `json:"failed_count"`
	ErrorMessages []string `json:"error_messages,omitempty"`
}

type SampleRequest struct {
	BatchSize uint32 `json:"batch_size"`
}

// SampleResponse carries the sampled transitions with their importance
// weights. Priorities and TreeIndices are parallel to Transitions.
type SampleResponse struct {
	Transitions    []*Transition `json:"transitions"`
	Weights        []float32     `json:"weights"`
	Priorities     []float64     `json:"priorities"`
	TreeIndices    []uint64      `json:"tree_indices"`
	TotalAvailable uint32        `json:"total_available"`
}

// ReportErrorsRequest feeds back one error per previously sampled transition.
type ReportErrorsRequest struct {
	TransitionIds []string  `json:"transition_ids"`
	Errors        []float32 `json:"errors"`
}

type ReportErrorsResponse struct {
	UpdatedCount uint32 `json:"updated_count"`
	SkippedCount uint32 `json:"skipped_count"`
}

type GetStatsRequest struct{}

type StatsResponse struct {
	TotalTransitions uint64  `json:"total_transitions"`
	Capacity         uint64  `json:"capacity"`
	TotalPriority    float64 `json:"total_priority"`
	MaxPriority      float64 `json:"max_priority"`
	Beta             float64 `json:"beta"`
	UnsampledCount   uint64  `json:"unsampled_count"`
	StorageBytes     uint64  `json:"storage_bytes"`
	OldestTimestamp  uint64  `json:"oldest_timestamp,omitempty"`
	NewestTimestamp  uint64  `json:"newest_timestamp,omitempty"`
}
