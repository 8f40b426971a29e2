package service

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cartridge/replay/internal/metrics"
	"github.com/cartridge/replay/internal/storage"
	replayv1 "github.com/cartridge/replay/pkg/api/replay/v1"
)

// ReplayService implements the Replay gRPC service
type ReplayService struct {
	replayv1.UnimplementedReplayServer
	backend storage.Backend
	metrics *metrics.Collector
}

// NewReplayService creates a new ReplayService
func NewReplayService(backend storage.Backend, collector *metrics.Collector) *ReplayService {
	return &ReplayService{
		backend: backend,
		metrics: collector,
	}
}

// StoreTransition stores a single transition
func (s *ReplayService) StoreTransition(ctx context.Context, req *replayv1.StoreTransitionRequest) (*replayv1.StoreTransitionResponse, error) {
	if req.Transition == nil {
		return nil, status.Error(codes.InvalidArgument, "transition is required")
	}

	// Convert proto transition to storage transition
	transition := protoToStorageTransition(req.Transition)

	// Store the transition
	if err := s.backend.Store(ctx, transition); err != nil {
		return &replayv1.StoreTransitionResponse{
			Success:      false,
			ErrorMessage: err.Error(),
		}, nil
	}
	s.metrics.TransitionsStored(1, 0)

	return &replayv1.StoreTransitionResponse{
		TransitionId: transition.ID,
		Success:      true,
	}, nil
}

// StoreBatch stores multiple transitions in a batch
func (s *ReplayService) StoreBatch(ctx context.Context, req *replayv1.StoreBatchRequest) (*replayv1.StoreBatchResponse, error) {
	if len(req.Transitions) == 0 {
		return &replayv1.StoreBatchResponse{
			StoredCount: 0,
			FailedCount: 0,
		}, nil
	}

	// Convert proto transitions to storage transitions
	transitions := make([]*storage.Transition, len(req.Transitions))
	for i, protoTransition := range req.Transitions {
		if protoTransition == nil {
			return nil, status.Errorf(codes.InvalidArgument, "transition %d is nil", i)
		}
		transitions[i] = protoToStorageTransition(protoTransition)
	}

	// Store the batch
	ids, err := s.backend.StoreBatch(ctx, transitions)
	if err != nil {
		failed := len(req.Transitions) - len(ids)
		s.metrics.TransitionsStored(len(ids), failed)
		return &replayv1.StoreBatchResponse{
			StoredCount:   uint32(len(ids)),
			FailedCount:   uint32(failed),
			ErrorMessages: []string{err.Error()},
			TransitionIds: ids,
		}, nil
	}
	s.metrics.TransitionsStored(len(ids), 0)

	return &replayv1.StoreBatchResponse{
		TransitionIds: ids,
		StoredCount:   uint32(len(ids)),
		FailedCount:   0,
	}, nil
}

// Sample draws a prioritized batch for training
func (s *ReplayService) Sample(ctx context.Context, req *replayv1.SampleRequest) (*replayv1.SampleResponse, error) {
	start := time.Now()

	batch, err := s.backend.Sample(ctx, int(req.BatchSize))
	if err != nil {
		return nil, toStatus(err)
	}

	protoTransitions := make([]*replayv1.Transition, len(batch.Transitions))
	treeIndices := make([]uint64, len(batch.TreeIndices))
	for i, transition := range batch.Transitions {
		protoTransitions[i] = storageToProtoTransition(transition)
		treeIndices[i] = uint64(batch.TreeIndices[i])
	}

	s.metrics.BatchSampled(len(batch.Transitions), time.Since(start))

	return &replayv1.SampleResponse{
		Transitions:    protoTransitions,
		Weights:        batch.Weights,
		Priorities:     batch.Priorities,
		TreeIndices:    treeIndices,
		TotalAvailable: uint32(batch.Population),
	}, nil
}

// ReportErrors feeds observed errors back as new priorities
func (s *ReplayService) ReportErrors(ctx context.Context, req *replayv1.ReportErrorsRequest) (*replayv1.ReportErrorsResponse, error) {
	if len(req.TransitionIds) != len(req.Errors) {
		return nil, status.Error(codes.InvalidArgument, "transition IDs and errors must have same length")
	}

	updated, err := s.backend.ReportErrors(ctx, req.TransitionIds, req.Errors)
	if err != nil {
		return nil, toStatus(err)
	}
	skipped := len(req.TransitionIds) - updated
	s.metrics.PrioritiesUpdated(updated, skipped)

	return &replayv1.ReportErrorsResponse{
		UpdatedCount: uint32(updated),
		SkippedCount: uint32(skipped),
	}, nil
}

// GetStats returns replay buffer statistics
func (s *ReplayService) GetStats(ctx context.Context, req *replayv1.GetStatsRequest) (*replayv1.StatsResponse, error) {
	stats, err := s.backend.GetStats(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	return statsToProto(stats), nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, storage.ErrInvalidBatchSize), errors.Is(err, storage.ErrLengthMismatch):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, storage.ErrNotEnoughTransitions):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, storage.ErrClosed):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
