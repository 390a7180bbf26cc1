package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizdesk-backend/internal/config"
	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink[T any] struct {
	mu         sync.Mutex
	batchErr   error
	failOnce   func(T) bool
	failed     map[string]bool
	key        func(T) string
	stored     []T
	batchCalls int
}

func (s *fakeSink[T]) InsertBatch(_ context.Context, items []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchCalls++
	if s.batchErr != nil {
		return s.batchErr
	}
	s.stored = append(s.stored, items...)
	return nil
}

func (s *fakeSink[T]) Insert(_ context.Context, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOnce != nil && s.failOnce(item) && !s.failed[s.key(item)] {
		s.failed[s.key(item)] = true
		return errors.New("connection reset")
	}
	s.stored = append(s.stored, item)
	return nil
}

func (s *fakeSink[T]) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stored)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func pushJSON(t *testing.T, rdb *redis.Client, queue string, v interface{}) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, rdb.RPush(context.Background(), queue, raw).Err())
}

func submission(roll string) model.Submission {
	return model.Submission{Result: model.Result{ID: uuid.New(), RollNumber: roll, Category: "math"}}
}

func runWorker[T any](t *testing.T, w *BatchWorker[T]) {
	t.Helper()
	w.batchTimeout = 10 * time.Millisecond
	w.requeueBackoff = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestResultWorkerPersistsQueuedSubmissions(t *testing.T) {
	_, rdb := newTestRedis(t)
	sink := &fakeSink[model.Submission]{}
	for _, roll := range []string{"R-1", "R-2", "R-3"} {
		pushJSON(t, rdb, config.WorkerKey.PersistResultsQueue, submission(roll))
	}

	runWorker(t, NewResultWorker(rdb, sink, zerolog.Nop()))

	assert.Eventually(t, func() bool { return sink.count() == 3 }, 5*time.Second, 20*time.Millisecond)
	n, err := rdb.LLen(context.Background(), config.WorkerKey.PersistResultsQueue).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBeaconWorkerDiscardsMalformedPayloads(t *testing.T) {
	_, rdb := newTestRedis(t)
	sink := &fakeSink[model.Beacon]{}
	require.NoError(t, rdb.RPush(context.Background(), config.WorkerKey.PersistBeaconsQueue, "{not json").Err())
	pushJSON(t, rdb, config.WorkerKey.PersistBeaconsQueue, model.Beacon{SessionID: uuid.New(), RollNumber: "R-4"})

	runWorker(t, NewBeaconWorker(rdb, sink, zerolog.Nop()))

	assert.Eventually(t, func() bool { return sink.count() == 1 }, 5*time.Second, 20*time.Millisecond)
	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, "R-4", sink.stored[0].RollNumber)
}

func TestFailedRowsAreRequeuedAndRetried(t *testing.T) {
	_, rdb := newTestRedis(t)
	flaky := submission("R-flaky")
	sink := &fakeSink[model.Submission]{
		batchErr: errors.New("duplicate key"),
		failOnce: func(s model.Submission) bool { return s.Result.ID == flaky.Result.ID },
		failed:   map[string]bool{},
		key:      func(s model.Submission) string { return s.Result.ID.String() },
	}
	pushJSON(t, rdb, config.WorkerKey.PersistResultsQueue, submission("R-5"))
	pushJSON(t, rdb, config.WorkerKey.PersistResultsQueue, flaky)

	runWorker(t, NewResultWorker(rdb, sink, zerolog.Nop()))

	assert.Eventually(t, func() bool { return sink.count() == 2 }, 5*time.Second, 20*time.Millisecond)
	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.True(t, sink.failed[flaky.Result.ID.String()])
	assert.GreaterOrEqual(t, sink.batchCalls, 2, "the requeued row goes through a second flush")
}

func TestShutdownFlushesBuffer(t *testing.T) {
	_, rdb := newTestRedis(t)
	sink := &fakeSink[model.Submission]{}
	w := NewResultWorker(rdb, sink, zerolog.Nop())

	w.shutdown([]model.Submission{submission("R-6"), submission("R-7")})

	assert.Equal(t, 2, sink.count())
	assert.Equal(t, 1, sink.batchCalls)
}
