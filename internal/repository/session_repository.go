package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizdesk-backend/internal/config"
	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stemsi/quizdesk-backend/internal/quiz"
)

// SessionRepository stores session state as JSON values under the keys built
// by config.CacheKey. It implements quiz.SessionRepository.
type SessionRepository struct {
	kv         kvStore
	sessionTTL time.Duration
	resultTTL  time.Duration
	log        zerolog.Logger
}

var _ quiz.SessionRepository = (*SessionRepository)(nil)

// NewRedisSessionRepository creates a SessionRepository backed by Redis.
// Snapshots, registrations and active flags expire after sessionTTL, results
// after resultTTL. Cheater flags never expire.
func NewRedisSessionRepository(rdb *redis.Client, sessionTTL, resultTTL time.Duration, log zerolog.Logger) *SessionRepository {
	return &SessionRepository{
		kv:         redisKV{rdb: rdb},
		sessionTTL: sessionTTL,
		resultTTL:  resultTTL,
		log:        log.With().Str("component", "session_repository").Logger(),
	}
}

// NewMemorySessionRepository creates a process-local SessionRepository for
// tests and single-node development.
func NewMemorySessionRepository() *SessionRepository {
	return &SessionRepository{
		kv:  newMemoryKV(),
		log: zerolog.Nop(),
	}
}

// ─── Snapshot ───────────────────────────────────────────────────────

// Load returns the snapshot for rollNumber. A value that does not decode, or
// that belongs to another roll number, is deleted and reported as missing.
func (r *SessionRepository) Load(ctx context.Context, rollNumber string) (*model.Snapshot, error) {
	key := config.CacheKey.QuizSnapshotKey(rollNumber)

	var snap model.Snapshot
	err := r.getJSON(ctx, key, &snap)
	if errors.Is(err, errKeyMissing) {
		return nil, quiz.ErrSnapshotNotFound
	}

	if errors.Is(err, errDecode) || (err == nil && snap.RollNumber != rollNumber) {
		r.log.Warn().Err(err).Str("roll_number", rollNumber).Msg("Discarding unreadable snapshot")
		if derr := r.kv.del(ctx, key); derr != nil {
			return nil, fmt.Errorf("discard snapshot: %w", derr)
		}
		return nil, quiz.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return &snap, nil
}

func (r *SessionRepository) Save(ctx context.Context, snap *model.Snapshot) error {
	return r.setJSON(ctx, config.CacheKey.QuizSnapshotKey(snap.RollNumber), snap, r.sessionTTL)
}

func (r *SessionRepository) Clear(ctx context.Context, rollNumber string) error {
	return r.kv.del(ctx, config.CacheKey.QuizSnapshotKey(rollNumber))
}

// ─── Cheater flag ───────────────────────────────────────────────────

func (r *SessionRepository) MarkCheater(ctx context.Context, record model.CheaterRecord) error {
	if err := r.kv.set(ctx, config.CacheKey.CheaterFlagKey(record.RollNumber), []byte("1"), 0); err != nil {
		return fmt.Errorf("set cheater flag: %w", err)
	}
	return r.setJSON(ctx, config.CacheKey.CheaterDetailKey(record.RollNumber), record, 0)
}

func (r *SessionRepository) IsCheater(ctx context.Context, rollNumber string) (bool, error) {
	return r.kv.exists(ctx, config.CacheKey.CheaterFlagKey(rollNumber))
}

func (r *SessionRepository) CheaterRecord(ctx context.Context, rollNumber string) (*model.CheaterRecord, error) {
	var rec model.CheaterRecord
	if err := r.getJSON(ctx, config.CacheKey.CheaterDetailKey(rollNumber), &rec); err != nil {
		if errors.Is(err, errKeyMissing) {
			return nil, quiz.ErrCheaterNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func (r *SessionRepository) ClearCheater(ctx context.Context, rollNumber string) error {
	return r.kv.del(ctx,
		config.CacheKey.CheaterFlagKey(rollNumber),
		config.CacheKey.CheaterDetailKey(rollNumber),
	)
}

// ─── Active flag ────────────────────────────────────────────────────

func (r *SessionRepository) SetActive(ctx context.Context, rollNumber string, active bool) error {
	key := config.CacheKey.QuizActiveKey(rollNumber)
	if !active {
		return r.kv.del(ctx, key)
	}
	return r.kv.set(ctx, key, []byte("1"), r.sessionTTL)
}

func (r *SessionRepository) IsActive(ctx context.Context, rollNumber string) (bool, error) {
	return r.kv.exists(ctx, config.CacheKey.QuizActiveKey(rollNumber))
}

// ─── Result ─────────────────────────────────────────────────────────

func (r *SessionRepository) SaveResult(ctx context.Context, result *model.Result) error {
	return r.setJSON(ctx, config.CacheKey.QuizResultKey(result.RollNumber), result, r.resultTTL)
}

func (r *SessionRepository) LastResult(ctx context.Context, rollNumber string) (*model.Result, error) {
	var res model.Result
	if err := r.getJSON(ctx, config.CacheKey.QuizResultKey(rollNumber), &res); err != nil {
		if errors.Is(err, errKeyMissing) {
			return nil, quiz.ErrResultNotFound
		}
		return nil, err
	}
	return &res, nil
}

// ─── Registration ───────────────────────────────────────────────────

func (r *SessionRepository) SaveRegistration(ctx context.Context, reg *model.Registration) error {
	return r.setJSON(ctx, config.CacheKey.QuizRegistrationKey(reg.RollNumber), reg, r.sessionTTL)
}

func (r *SessionRepository) Registration(ctx context.Context, rollNumber string) (*model.Registration, error) {
	var reg model.Registration
	if err := r.getJSON(ctx, config.CacheKey.QuizRegistrationKey(rollNumber), &reg); err != nil {
		if errors.Is(err, errKeyMissing) {
			return nil, quiz.ErrRegistrationRequired
		}
		return nil, err
	}
	return &reg, nil
}

func (r *SessionRepository) ClearRegistration(ctx context.Context, rollNumber string) error {
	return r.kv.del(ctx, config.CacheKey.QuizRegistrationKey(rollNumber))
}

// ─── Config cache ───────────────────────────────────────────────────

func (r *SessionRepository) SaveConfig(ctx context.Context, cfg model.QuizConfig) error {
	return r.setJSON(ctx, config.CacheKey.CachedConfigKey(), cfg, 0)
}

func (r *SessionRepository) CachedConfig(ctx context.Context) (*model.QuizConfig, error) {
	var cfg model.QuizConfig
	if err := r.getJSON(ctx, config.CacheKey.CachedConfigKey(), &cfg); err != nil {
		if errors.Is(err, errKeyMissing) {
			return nil, quiz.ErrConfigNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

// ─── Helpers ────────────────────────────────────────────────────────

func (r *SessionRepository) getJSON(ctx context.Context, key string, dst interface{}) error {
	raw, err := r.kv.get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", errDecode, key, err)
	}
	return nil
}

func (r *SessionRepository) setJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return r.kv.set(ctx, key, raw, ttl)
}
