package quiz

import (
	"context"

	"github.com/stemsi/quizdesk-backend/internal/model"
)

// SessionRepository is the durable key-value side of a session. Values are
// opaque to callers; implementations own serialization.
type SessionRepository interface {
	// Load returns ErrSnapshotNotFound when there is no readable snapshot.
	// An unreadable snapshot is discarded.
	Load(ctx context.Context, rollNumber string) (*model.Snapshot, error)
	Save(ctx context.Context, snap *model.Snapshot) error
	Clear(ctx context.Context, rollNumber string) error

	MarkCheater(ctx context.Context, record model.CheaterRecord) error
	IsCheater(ctx context.Context, rollNumber string) (bool, error)
	CheaterRecord(ctx context.Context, rollNumber string) (*model.CheaterRecord, error)
	ClearCheater(ctx context.Context, rollNumber string) error

	SetActive(ctx context.Context, rollNumber string, active bool) error
	IsActive(ctx context.Context, rollNumber string) (bool, error)

	// LastResult returns ErrResultNotFound when nothing was stored.
	SaveResult(ctx context.Context, result *model.Result) error
	LastResult(ctx context.Context, rollNumber string) (*model.Result, error)

	// Registration returns ErrRegistrationRequired when no handoff exists.
	SaveRegistration(ctx context.Context, reg *model.Registration) error
	Registration(ctx context.Context, rollNumber string) (*model.Registration, error)
	ClearRegistration(ctx context.Context, rollNumber string) error

	// CachedConfig returns ErrConfigNotFound when no config was cached yet.
	SaveConfig(ctx context.Context, cfg model.QuizConfig) error
	CachedConfig(ctx context.Context) (*model.QuizConfig, error)
}

// Backend is the quiz backend a session reads questions and configuration
// from and mirrors its outcome to.
type Backend interface {
	Questions(ctx context.Context, category string) ([]model.Question, error)
	Config(ctx context.Context) (*model.QuizConfig, error)
	Submit(ctx context.Context, sub model.Submission) error
	Beacon(ctx context.Context, beacon model.Beacon) error
}

// Recorder receives session lifecycle counters. A nil Recorder is allowed.
type Recorder interface {
	SessionStarted(category string)
	SessionFinished(category, outcome string)
	Violation(category string)
	SyncFailed(op string)
}

type nopRecorder struct{}

func (nopRecorder) SessionStarted(string)          {}
func (nopRecorder) SessionFinished(string, string) {}
func (nopRecorder) Violation(string)               {}
func (nopRecorder) SyncFailed(string)              {}
