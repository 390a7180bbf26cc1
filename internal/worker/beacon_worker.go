package worker

import (
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizdesk-backend/internal/config"
	"github.com/stemsi/quizdesk-backend/internal/model"
)

// BeaconWorker moves unload beacons from Redis into unload_beacons.
type BeaconWorker = BatchWorker[model.Beacon]

func NewBeaconWorker(rdb *redis.Client, sink Sink[model.Beacon], log zerolog.Logger) *BeaconWorker {
	return newBatchWorker(rdb, config.WorkerKey.PersistBeaconsQueue, sink,
		func(b model.Beacon) string { return b.SessionID.String() },
		log.With().Str("component", "beacon_worker").Logger(),
	)
}
