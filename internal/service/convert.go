package service

import (
	"time"

	"github.com/cartridge/replay/internal/storage"
	replayv1 "github.com/cartridge/replay/pkg/api/replay/v1"
)

// Conversion functions

func protoToStorageTransition(proto *replayv1.Transition) *storage.Transition {
	transition := &storage.Transition{
		ID:              proto.Id,
		EnvID:           proto.EnvId,
		EpisodeID:       proto.EpisodeId,
		StepNumber:      proto.StepNumber,
		State:           proto.State,
		Action:          proto.Action,
		NextState:       proto.NextState,
		Observation:     proto.Observation,
		NextObservation: proto.NextObservation,
		Reward:          proto.Reward,
		Done:            proto.Done,
		Metadata:        proto.Metadata,
	}

	if proto.Timestamp > 0 {
		transition.Timestamp = time.Unix(int64(proto.Timestamp), 0)
	}

	return transition
}

func storageToProtoTransition(storage *storage.Transition) *replayv1.Transition {
	return &replayv1.Transition{
		Id:              storage.ID,
		EnvId:           storage.EnvID,
		EpisodeId:       storage.EpisodeID,
		StepNumber:      storage.StepNumber,
		State:           storage.State,
		Action:          storage.Action,
		NextState:       storage.NextState,
		Observation:     storage.Observation,
		NextObservation: storage.NextObservation,
		Reward:          storage.Reward,
		Done:            storage.Done,
		Timestamp:       uint64(storage.Timestamp.Unix()),
		Metadata:        storage.Metadata,
	}
}

func statsToProto(stats *storage.Stats) *replayv1.StatsResponse {
	response := &replayv1.StatsResponse{
		TotalTransitions: stats.TotalTransitions,
		Capacity:         stats.Capacity,
		TotalPriority:    stats.TotalPriority,
		MaxPriority:      stats.MaxPriority,
		Beta:             stats.Beta,
		UnsampledCount:   stats.UnsampledCount,
		StorageBytes:     stats.StorageBytes,
	}

	if stats.OldestTimestamp != nil {
		response.OldestTimestamp = uint64(stats.OldestTimestamp.Unix())
	}
	if stats.NewestTimestamp != nil {
		response.NewestTimestamp = uint64(stats.NewestTimestamp.Unix())
	}

	return response
}
