package worker

import (
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizdesk-backend/internal/config"
	"github.com/stemsi/quizdesk-backend/internal/model"
)

// ResultWorker moves finished submissions from Redis into the results table.
type ResultWorker = BatchWorker[model.Submission]

func NewResultWorker(rdb *redis.Client, sink Sink[model.Submission], log zerolog.Logger) *ResultWorker {
	return newBatchWorker(rdb, config.WorkerKey.PersistResultsQueue, sink,
		func(s model.Submission) string { return s.Result.ID.String() },
		log.With().Str("component", "result_worker").Logger(),
	)
}
