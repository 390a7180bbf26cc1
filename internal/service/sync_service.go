package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/quizdesk-backend/internal/config"
	"github.com/stemsi/quizdesk-backend/internal/model"
)

// SyncService hands submissions and beacons to the persistence workers.
type SyncService struct {
	rdb *redis.Client
}

// NewSyncService creates a new SyncService.
func NewSyncService(rdb *redis.Client) *SyncService {
	return &SyncService{rdb: rdb}
}

// QueueSubmission pushes a finished attempt onto the results queue.
func (s *SyncService) QueueSubmission(ctx context.Context, sub model.Submission) error {
	return s.push(ctx, config.WorkerKey.PersistResultsQueue, sub)
}

// QueueBeacon pushes an unload beacon onto the beacons queue.
func (s *SyncService) QueueBeacon(ctx context.Context, b model.Beacon) error {
	return s.push(ctx, config.WorkerKey.PersistBeaconsQueue, b)
}

func (s *SyncService) push(ctx context.Context, queue string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", queue, err)
	}
	return s.rdb.RPush(ctx, queue, raw).Err()
}
