package quiz_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stemsi/quizdesk-backend/internal/quiz"
	"github.com/stemsi/quizdesk-backend/internal/repository"
	"github.com/stretchr/testify/require"
)

const testRoll = "R-001"

var errBackendDown = errors.New("backend unavailable")

// ─── Clock ──────────────────────────────────────────────────────────

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *manualClock {
	return &manualClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ─── Backend ────────────────────────────────────────────────────────

type fakeBackend struct {
	mu            sync.Mutex
	questions     []model.Question
	questionsErr  error
	cfg           *model.QuizConfig
	cfgErr        error
	submitErr     error
	questionCalls int
	submissions   []model.Submission
	beacons       []model.Beacon
}

func newBackend(questions []model.Question) *fakeBackend {
	cfg := model.DefaultQuizConfig()
	return &fakeBackend{questions: questions, cfg: &cfg}
}

func (b *fakeBackend) Questions(_ context.Context, _ string) ([]model.Question, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.questionCalls++
	if b.questionsErr != nil {
		return nil, b.questionsErr
	}
	return append([]model.Question(nil), b.questions...), nil
}

func (b *fakeBackend) Config(_ context.Context) (*model.QuizConfig, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cfgErr != nil {
		return nil, b.cfgErr
	}
	cfg := *b.cfg
	return &cfg, nil
}

func (b *fakeBackend) Submit(_ context.Context, sub model.Submission) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.submitErr != nil {
		return b.submitErr
	}
	b.submissions = append(b.submissions, sub)
	return nil
}

func (b *fakeBackend) Beacon(_ context.Context, beacon model.Beacon) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.beacons = append(b.beacons, beacon)
	return nil
}

func (b *fakeBackend) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.questionCalls
}

// ─── Repository decorator ───────────────────────────────────────────

type countingRepo struct {
	quiz.SessionRepository
	mu          sync.Mutex
	resultSaves int
}

func (r *countingRepo) SaveResult(ctx context.Context, result *model.Result) error {
	r.mu.Lock()
	r.resultSaves++
	r.mu.Unlock()
	return r.SessionRepository.SaveResult(ctx, result)
}

// ─── Fixtures ───────────────────────────────────────────────────────

func geoQuestions() []model.Question {
	return []model.Question{
		{
			ID: uuid.New(), Text: "Capital of France?", Category: "geo", Marks: 1,
			Options: []model.Option{{Text: "Paris", IsCorrect: true}, {Text: "Lyon"}},
		},
		{
			ID: uuid.New(), Text: "Capital of Japan?", Category: "geo", Marks: 1,
			Options: []model.Option{{Text: "Osaka"}, {Text: "Tokyo", IsCorrect: true}},
		},
		{
			ID: uuid.New(), Text: "Longest river?", Category: "geo", Marks: 1,
			Options: []model.Option{{Text: "Nile", IsCorrect: true}, {Text: "Danube"}},
		},
	}
}

func register(t *testing.T, repo quiz.SessionRepository, category string) {
	t.Helper()
	require.NoError(t, repo.SaveRegistration(context.Background(), &model.Registration{
		StudentName:         "Ana Putri",
		RollNumber:          testRoll,
		Category:            category,
		QuizDurationMinutes: 30,
		RegisteredAt:        time.Now(),
	}))
}

func testOptions(clk *manualClock) quiz.Options {
	return quiz.Options{
		TickInterval:       5 * time.Millisecond,
		CheckpointInterval: time.Hour,
		SyncTimeout:        time.Second,
		Now:                clk.Now,
		Shuffle:            func(int, func(i, j int)) {},
	}
}

func newSession(repo quiz.SessionRepository, backend quiz.Backend, clk *manualClock) *quiz.Session {
	return quiz.NewSession(repo, backend, zerolog.Nop(), testOptions(clk))
}

// startSession registers testRoll in "geo" and initialises a session over
// geoQuestions on an in-memory repository.
func startSession(t *testing.T) (*quiz.Session, *repository.SessionRepository, *fakeBackend, *manualClock) {
	t.Helper()
	repo := repository.NewMemorySessionRepository()
	backend := newBackend(geoQuestions())
	clk := newClock()
	register(t, repo, "geo")

	s := newSession(repo, backend, clk)
	require.NoError(t, s.Init(context.Background(), testRoll))
	require.Equal(t, quiz.StateInProgress, s.State())
	return s, repo, backend, clk
}

func questionIDs(qs []model.Question) []uuid.UUID {
	ids := make([]uuid.UUID, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}

func newID() uuid.UUID { return uuid.New() }

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}
