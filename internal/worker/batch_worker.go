package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

const (
	redisErrorBackoff = 3 * time.Second
	requeueBackoff    = 2 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Sink persists decoded queue items. InsertBatch is the fast path; Insert is
// used item by item when a batch fails.
type Sink[T any] interface {
	InsertBatch(ctx context.Context, items []T) error
	Insert(ctx context.Context, item T) error
}

// BatchWorker drains a Redis list into a Sink in batches. Items the sink
// rejects one by one are pushed back onto the list.
type BatchWorker[T any] struct {
	rdb   *redis.Client
	queue string
	sink  Sink[T]
	ident func(T) string
	log   zerolog.Logger

	batchSize      int
	batchTimeout   time.Duration
	requeueBackoff time.Duration
}

func newBatchWorker[T any](rdb *redis.Client, queue string, sink Sink[T], ident func(T) string, log zerolog.Logger) *BatchWorker[T] {
	return &BatchWorker[T]{
		rdb:            rdb,
		queue:          queue,
		sink:           sink,
		ident:          ident,
		log:            log,
		batchSize:      BatchSize,
		batchTimeout:   BatchTimeout,
		requeueBackoff: requeueBackoff,
	}
}

// Start blocks until ctx is cancelled, then flushes what it still holds.
func (w *BatchWorker[T]) Start(ctx context.Context) {
	w.log.Info().Str("queue", w.queue).Msg("Worker started")

	buffer := make([]T, 0, w.batchSize)
	lastFlush := time.Now()

	for {
		if len(buffer) > 0 &&
			(len(buffer) >= w.batchSize || time.Since(lastFlush) >= w.batchTimeout) {
			w.flushSafe(ctx, buffer)
			buffer = buffer[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// BLPop returns immediately when data exists.
		result, err := w.rdb.BLPop(ctx, PollTimeout, w.queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			sleepCtx(ctx, redisErrorBackoff)
			continue
		}
		if len(result) < 2 {
			continue
		}

		var item T
		if err := json.Unmarshal([]byte(result[1]), &item); err != nil {
			// Malformed payloads can never succeed; drop them.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}
		if len(buffer) == 0 {
			lastFlush = time.Now()
		}
		buffer = append(buffer, item)
	}
}

// flushSafe attempts the bulk insert, then row by row, then requeue.
func (w *BatchWorker[T]) flushSafe(ctx context.Context, batch []T) {
	err := w.sink.InsertBatch(ctx, batch)
	if err == nil {
		w.log.Debug().Int("count", len(batch)).Msg("Batch persisted")
		return
	}
	w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")

	var failed []T
	for _, item := range batch {
		if err := w.sink.Insert(ctx, item); err != nil {
			w.log.Error().Err(err).Str("item", w.ident(item)).Msg("Insert failed, requeueing")
			failed = append(failed, item)
		}
	}
	if len(failed) > 0 {
		w.requeue(ctx, failed)
	}
}

func (w *BatchWorker[T]) requeue(ctx context.Context, items []T) {
	// Requeue must outlive a cancelled worker context.
	pushCtx := context.WithoutCancel(ctx)

	pipe := w.rdb.Pipeline()
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			continue
		}
		pipe.RPush(pushCtx, w.queue, data)
	}
	if _, err := pipe.Exec(pushCtx); err != nil {
		w.log.Error().Err(err).Int("count", len(items)).Msg("CRITICAL: Failed to requeue items to Redis. Data loss occurred.")
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
	// Avoid thrashing while the database is down.
	sleepCtx(ctx, w.requeueBackoff)
}

func (w *BatchWorker[T]) shutdown(buffer []T) {
	w.log.Info().Int("pending", len(buffer)).Msg("Worker stopping, flushing remaining buffer...")
	if len(buffer) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	w.flushSafe(ctx, buffer)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
