package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/quizdesk-backend/internal/model"
)

var beaconColumns = []string{
	"session_id", "roll_number", "category", "answers", "remaining_seconds", "violation_count", "sent_at",
}

// BeaconRepository stores unload beacons for later inspection.
type BeaconRepository struct {
	pool *pgxpool.Pool
}

// NewBeaconRepository creates a new BeaconRepository.
func NewBeaconRepository(pool *pgxpool.Pool) *BeaconRepository {
	return &BeaconRepository{pool: pool}
}

// InsertBatch bulk inserts beacons with COPY.
func (r *BeaconRepository) InsertBatch(ctx context.Context, beacons []model.Beacon) error {
	rows := make([][]interface{}, 0, len(beacons))
	for i := range beacons {
		rows = append(rows, beaconRow(&beacons[i]))
	}
	_, err := r.pool.CopyFrom(ctx, pgx.Identifier{"unload_beacons"}, beaconColumns, pgx.CopyFromRows(rows))
	return err
}

// Insert stores one beacon.
func (r *BeaconRepository) Insert(ctx context.Context, b model.Beacon) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO unload_beacons (`+joinColumns(beaconColumns)+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		beaconRow(&b)...,
	)
	return err
}

// ListBySession returns the beacons received for a session, oldest first.
func (r *BeaconRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Beacon, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+joinColumns(beaconColumns)+` FROM unload_beacons WHERE session_id = $1 ORDER BY sent_at`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var beacons []model.Beacon
	for rows.Next() {
		var b model.Beacon
		if err := rows.Scan(&b.SessionID, &b.RollNumber, &b.Category, &b.Answers, &b.RemainingSeconds, &b.ViolationCount, &b.SentAt); err != nil {
			return nil, err
		}
		beacons = append(beacons, b)
	}
	return beacons, rows.Err()
}

func beaconRow(b *model.Beacon) []interface{} {
	return []interface{}{b.SessionID, b.RollNumber, b.Category, b.Answers, b.RemainingSeconds, b.ViolationCount, b.SentAt}
}
