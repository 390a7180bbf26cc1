package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/quizdesk-backend/internal/config"
	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncServiceQueues(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	svc := NewSyncService(rdb)

	sub := model.Submission{Result: model.Result{ID: uuid.New(), RollNumber: "R-1"}}
	require.NoError(t, svc.QueueSubmission(ctx, sub))
	require.NoError(t, svc.QueueBeacon(ctx, model.Beacon{SessionID: uuid.New(), RollNumber: "R-1"}))

	items, err := mr.List(config.WorkerKey.PersistResultsQueue)
	require.NoError(t, err)
	require.Len(t, items, 1)

	var got model.Submission
	require.NoError(t, json.Unmarshal([]byte(items[0]), &got))
	assert.Equal(t, sub.Result.ID, got.Result.ID)

	beacons, err := mr.List(config.WorkerKey.PersistBeaconsQueue)
	require.NoError(t, err)
	assert.Len(t, beacons, 1)
}
