package quiz

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizdesk-backend/internal/model"
)

// State is the lifecycle state of a session.
type State string

const (
	StateInitializing State = "INITIALIZING"
	StateLoading      State = "LOADING"
	StateInProgress   State = "IN_PROGRESS"
	StateSubmitting   State = "SUBMITTING"
	StateSubmitted    State = "SUBMITTED"
	StateExpired      State = "EXPIRED"
	StateCheated      State = "CHEATED"
	StateFailed       State = "FAILED"
)

// Terminal reports whether no further answering or timer activity can happen.
func (s State) Terminal() bool {
	switch s {
	case StateSubmitted, StateExpired, StateCheated, StateFailed:
		return true
	}
	return false
}

// Cheat reasons stored on results and cheater records.
const (
	ReasonViolations        = "integrity violations exceeded the allowed limit"
	ReasonPreviouslyFlagged = "roll number was flagged in a previous session"
)

// Options tunes a session. Zero fields take defaults.
type Options struct {
	Policy             Policy
	TickInterval       time.Duration
	CheckpointInterval time.Duration
	SyncTimeout        time.Duration
	Now                func() time.Time
	Shuffle            func(n int, swap func(i, j int))
	Recorder           Recorder
}

func (o Options) withDefaults() Options {
	if o.Policy.MaxViolations <= 0 {
		o.Policy = DefaultPolicy()
	}
	if o.TickInterval <= 0 {
		o.TickInterval = time.Second
	}
	if o.CheckpointInterval <= 0 {
		o.CheckpointInterval = 10 * time.Second
	}
	if o.SyncTimeout <= 0 {
		o.SyncTimeout = 10 * time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Shuffle == nil {
		o.Shuffle = rand.Shuffle
	}
	if o.Recorder == nil {
		o.Recorder = nopRecorder{}
	}
	return o
}

// Status is the client-facing view of a session. Violation counts are left
// out on purpose so detection thresholds are not exposed.
type Status struct {
	SessionID        uuid.UUID                  `json:"session_id"`
	RollNumber       string                     `json:"roll_number"`
	StudentName      string                     `json:"student_name"`
	Category         string                     `json:"category"`
	State            State                      `json:"state"`
	RemainingSeconds int                        `json:"remaining_seconds"`
	TotalSeconds     int                        `json:"total_seconds"`
	Progress         Progress                   `json:"progress"`
	Questions        []model.QuestionForStudent `json:"questions,omitempty"`
	Answers          map[int]*string            `json:"answers,omitempty"`
	Result           *model.Result              `json:"result,omitempty"`
	Error            string                     `json:"error,omitempty"`
}

// Session is one student's quiz attempt. It is not safe for concurrent use;
// a Runner serializes every event onto a single goroutine.
type Session struct {
	repo    SessionRepository
	backend Backend
	opts    Options
	log     zerolog.Logger

	id        uuid.UUID
	state     State
	reg       *model.Registration
	cfg       model.QuizConfig
	questions []model.Question
	answers   *AnswerStore
	monitor   *Monitor
	timer     *Timer
	result    *model.Result
	err       error

	pending sync.WaitGroup
}

// NewSession creates a session in the INITIALIZING state.
func NewSession(repo SessionRepository, backend Backend, log zerolog.Logger, opts Options) *Session {
	return &Session{
		repo:    repo,
		backend: backend,
		opts:    opts.withDefaults(),
		log:     log.With().Str("component", "quiz_session").Logger(),
		state:   StateInitializing,
	}
}

// Init prepares the session for rollNumber. It returns ErrRegistrationRequired
// when there is no registration handoff. A flagged roll number ends straight
// in CHEATED without loading questions. Load errors end in FAILED and are
// returned.
func (s *Session) Init(ctx context.Context, rollNumber string) error {
	reg, err := s.repo.Registration(ctx, rollNumber)
	if err != nil {
		if errors.Is(err, ErrRegistrationRequired) {
			return ErrRegistrationRequired
		}
		return fmt.Errorf("load registration: %w", err)
	}
	s.reg = reg
	s.log = s.log.With().
		Str("roll_number", reg.RollNumber).
		Str("category", reg.Category).
		Logger()

	flagged, err := s.repo.IsCheater(ctx, reg.RollNumber)
	if err != nil {
		return fmt.Errorf("check cheater flag: %w", err)
	}
	if flagged {
		s.id = uuid.New()
		s.log.Info().Msg("Roll number is flagged, skipping question load")
		s.opts.Recorder.SessionStarted(reg.Category)
		return s.complete(ctx, CheatedResult(reg, s.id, nil, ReasonPreviouslyFlagged, s.now()), StateCheated)
	}

	s.state = StateLoading
	s.cfg = s.loadConfig(ctx)

	snap, err := s.repo.Load(ctx, reg.RollNumber)
	switch {
	case errors.Is(err, ErrSnapshotNotFound):
		snap = nil
	case err != nil:
		return s.fail(ctx, err)
	case snap.Category != reg.Category:
		s.log.Warn().Str("snapshot_category", snap.Category).Msg("Discarding snapshot of another category")
		s.discardSnapshot(ctx)
		snap = nil
	}

	all, err := s.backend.Questions(ctx, reg.Category)
	if err != nil {
		return s.fail(ctx, fmt.Errorf("%w: %v", ErrLoadFailed, err))
	}
	if len(all) == 0 {
		return s.fail(ctx, ErrNoQuestions)
	}

	if snap != nil {
		ordered, ok := restoreOrder(all, snap.QuestionIDs)
		if !ok {
			s.log.Warn().Msg("Snapshot questions no longer available, starting fresh")
			s.discardSnapshot(ctx)
			snap = nil
		} else {
			s.questions = ordered
		}
	}

	now := s.now()
	if snap != nil {
		s.id = snap.SessionID
		s.timer = ResumeTimer(snap.StartedAt, snap.TotalDurationSeconds, snap.RemainingSeconds, s.opts.Now)
		s.answers = NewAnswerStore(s.questions, snap.Answers)
		s.monitor = NewMonitor(s.opts.Policy, snap.ViolationCount, snap.LastHiddenAt)
		s.log.Info().
			Int("remaining_seconds", s.timer.Remaining()).
			Int("violations", snap.ViolationCount).
			Msg("Session resumed from snapshot")
	} else {
		s.id = uuid.New()
		s.questions = s.pick(all)
		s.timer = NewTimer(now, s.durationSeconds(), s.opts.Now)
		s.answers = NewAnswerStore(s.questions, nil)
		s.monitor = NewMonitor(s.opts.Policy, 0, nil)
		s.log.Info().
			Int("questions", len(s.questions)).
			Int("duration_seconds", s.timer.Total()).
			Msg("Session started")
	}
	s.monitor.Touch(now)

	if err := s.repo.SetActive(ctx, reg.RollNumber, true); err != nil {
		s.log.Warn().Err(err).Msg("Failed to set active flag")
	}
	s.state = StateInProgress
	s.opts.Recorder.SessionStarted(reg.Category)

	if s.timer.Remaining() == 0 {
		return s.Expire(ctx)
	}
	return s.Checkpoint(ctx)
}

// Select records option as the answer to question index and checkpoints
// immediately when the answer changed.
func (s *Session) Select(ctx context.Context, index int, option string) error {
	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	now := s.now()
	changed, err := s.answers.Select(index, option, now)
	if err != nil {
		return err
	}
	s.monitor.Touch(now)
	if !changed {
		return nil
	}
	return s.Checkpoint(ctx)
}

// Tick re-reads the clock and auto-submits when time is up. It returns the
// remaining seconds.
func (s *Session) Tick(ctx context.Context) (int, error) {
	if s.state != StateInProgress {
		return 0, nil
	}
	left := s.timer.Remaining()
	if left == 0 {
		return 0, s.Expire(ctx)
	}
	return left, nil
}

// Expire auto-submits the session. Calling it on a session that is no longer
// in progress is a no-op.
func (s *Session) Expire(ctx context.Context) error {
	if s.state != StateInProgress {
		return nil
	}
	s.log.Info().Msg("Time is up, auto-submitting")
	return s.finish(ctx, true)
}

// Submit ends the session on the student's request. Without confirmation it
// returns the prompt to show together with ErrConfirmationRequired.
func (s *Session) Submit(ctx context.Context, confirmed bool) (*ConfirmationPrompt, error) {
	if s.state != StateInProgress {
		return nil, ErrNotInProgress
	}
	if !confirmed {
		prompt := Confirmation(s.answers.Progress())
		return &prompt, ErrConfirmationRequired
	}
	return nil, s.finish(ctx, false)
}

// Observe feeds an activity event to the integrity monitor.
func (s *Session) Observe(ctx context.Context, ev ActivityEvent) error {
	if s.state != StateInProgress {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = s.now()
	}

	out := s.monitor.Observe(ev)
	if out.Beacon {
		s.beacon()
	}
	if out.Violation {
		s.opts.Recorder.Violation(s.reg.Category)
		s.log.Info().Int("violations", s.monitor.Count()).Str("event", string(ev.Kind)).Msg("Integrity violation")
	}
	if out.Cheating {
		return s.cheat(ctx, ReasonViolations)
	}
	if out.Violation {
		return s.Checkpoint(ctx)
	}
	return nil
}

// Checkpoint writes the current snapshot. It does nothing once the session
// has left IN_PROGRESS, so a late periodic write cannot resurrect a cleared
// snapshot.
func (s *Session) Checkpoint(ctx context.Context) error {
	if s.state != StateInProgress {
		return nil
	}
	if err := s.repo.Save(ctx, s.snapshot()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Abandon drops an in-progress session without producing a result.
func (s *Session) Abandon(ctx context.Context) error {
	if s.state.Terminal() {
		return nil
	}
	if s.monitor != nil {
		s.monitor.Detach()
	}
	roll := s.reg.RollNumber
	err := errors.Join(
		s.repo.Clear(ctx, roll),
		s.repo.SetActive(ctx, roll, false),
		s.repo.ClearRegistration(ctx, roll),
	)
	s.state = StateFailed
	s.err = ErrAbandoned
	s.opts.Recorder.SessionFinished(s.reg.Category, "abandoned")
	s.log.Info().Msg("Session abandoned")
	return err
}

func (s *Session) finish(ctx context.Context, auto bool) error {
	s.state = StateSubmitting
	s.monitor.Detach()

	score := Score(s.questions, s.answers.Answers(), s.cfg.PassingPercentage)
	terminal := StateSubmitted
	if auto {
		terminal = StateExpired
	}
	return s.complete(ctx, NewResult(s.reg, s.id, score, auto, s.now()), terminal)
}

func (s *Session) cheat(ctx context.Context, reason string) error {
	s.state = StateSubmitting
	s.monitor.Detach()

	record := model.CheaterRecord{
		RollNumber: s.reg.RollNumber,
		Name:       s.reg.StudentName,
		Category:   s.reg.Category,
		SessionID:  s.id,
		Violations: s.monitor.Count(),
		Reason:     reason,
		FlaggedAt:  s.now(),
	}
	if err := s.repo.MarkCheater(ctx, record); err != nil {
		s.log.Error().Err(err).Msg("Failed to persist cheater flag")
	}
	s.log.Warn().Int("violations", record.Violations).Msg("Session terminated for cheating")

	return s.complete(ctx, CheatedResult(s.reg, s.id, s.questions, reason, s.now()), StateCheated)
}

// complete performs the terminal writes: snapshot cleared, result stored,
// active flag and registration dropped. The backend mirror runs in the
// background and never changes the stored result.
func (s *Session) complete(ctx context.Context, result model.Result, terminal State) error {
	roll := s.reg.RollNumber

	var errs []error
	if err := s.repo.Clear(ctx, roll); err != nil {
		errs = append(errs, fmt.Errorf("clear snapshot: %w", err))
	}
	if err := s.repo.SaveResult(ctx, &result); err != nil {
		errs = append(errs, fmt.Errorf("save result: %w", err))
	}
	if err := s.repo.SetActive(ctx, roll, false); err != nil {
		errs = append(errs, fmt.Errorf("clear active flag: %w", err))
	}
	if err := s.repo.ClearRegistration(ctx, roll); err != nil {
		errs = append(errs, fmt.Errorf("clear registration: %w", err))
	}

	s.result = &result
	s.state = terminal

	s.log.Info().
		Str("state", string(terminal)).
		Int("obtained_marks", result.ObtainedMarks).
		Int("total_marks", result.TotalMarks).
		Float64("percentage", result.Percentage).
		Bool("passed", result.Passed).
		Msg("Session finished")
	s.opts.Recorder.SessionFinished(s.reg.Category, outcome(terminal))

	s.mirror(result)
	return errors.Join(errs...)
}

func (s *Session) fail(ctx context.Context, err error) error {
	s.state = StateFailed
	s.err = err
	s.log.Error().Err(err).Msg("Session failed to load")

	roll := s.reg.RollNumber
	if cerr := errors.Join(
		s.repo.SetActive(ctx, roll, false),
		s.repo.ClearRegistration(ctx, roll),
	); cerr != nil {
		s.log.Warn().Err(cerr).Msg("Failed to reset registration after load error")
	}
	s.opts.Recorder.SessionFinished(s.reg.Category, outcome(StateFailed))
	return err
}

func (s *Session) discardSnapshot(ctx context.Context) {
	if err := s.repo.Clear(ctx, s.reg.RollNumber); err != nil {
		s.log.Warn().Err(err).Msg("Failed to discard snapshot")
	}
}

func (s *Session) loadConfig(ctx context.Context) model.QuizConfig {
	cfg, err := s.backend.Config(ctx)
	if err == nil && cfg != nil {
		if err := s.repo.SaveConfig(ctx, *cfg); err != nil {
			s.log.Warn().Err(err).Msg("Failed to cache config")
		}
		return *cfg
	}

	s.log.Warn().Err(err).Msg("Config fetch failed, falling back")
	s.opts.Recorder.SyncFailed("config")
	if cached, cerr := s.repo.CachedConfig(ctx); cerr == nil {
		return *cached
	}
	return model.DefaultQuizConfig()
}

func (s *Session) pick(all []model.Question) []model.Question {
	qs := append([]model.Question(nil), all...)
	s.opts.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	if n := s.cfg.QuestionsPerQuiz; n > 0 && n < len(qs) {
		qs = qs[:n]
	}
	return qs
}

func (s *Session) durationSeconds() int {
	minutes := s.reg.QuizDurationMinutes
	if minutes <= 0 {
		minutes = s.cfg.QuizDurationMinutes
	}
	if minutes <= 0 {
		minutes = model.DefaultQuizConfig().QuizDurationMinutes
	}
	return minutes * 60
}

func (s *Session) snapshot() *model.Snapshot {
	ids := make([]uuid.UUID, len(s.questions))
	for i, q := range s.questions {
		ids[i] = q.ID
	}
	rec := s.monitor.Record()
	return &model.Snapshot{
		SessionID:            s.id,
		RollNumber:           s.reg.RollNumber,
		Category:             s.reg.Category,
		StartedAt:            s.timer.StartedAt(),
		TotalDurationSeconds: s.timer.Total(),
		RemainingSeconds:     s.timer.Remaining(),
		QuestionIDs:          ids,
		Answers:              s.answers.Answers(),
		ViolationCount:       rec.Count,
		LastHiddenAt:         rec.LastHiddenAt,
		SavedAt:              s.now(),
	}
}

func (s *Session) mirror(result model.Result) {
	var answers map[int]*string
	if s.answers != nil {
		answers = s.answers.Answers()
	}
	sub := model.Submission{Result: result, Answers: answers}
	s.goSync("submit", func(ctx context.Context) error {
		return s.backend.Submit(ctx, sub)
	})
}

func (s *Session) beacon() {
	b := model.Beacon{
		SessionID:        s.id,
		RollNumber:       s.reg.RollNumber,
		Category:         s.reg.Category,
		Answers:          s.answers.Answers(),
		RemainingSeconds: s.timer.Remaining(),
		ViolationCount:   s.monitor.Count(),
		SentAt:           s.now(),
	}
	s.goSync("beacon", func(ctx context.Context) error {
		return s.backend.Beacon(ctx, b)
	})
}

// goSync runs a best-effort backend call. Failures are logged and counted only.
func (s *Session) goSync(op string, fn func(context.Context) error) {
	log := s.log
	timeout := s.opts.SyncTimeout
	rec := s.opts.Recorder

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			log.Warn().Err(err).Str("op", op).Msg("Backend sync failed")
			rec.SyncFailed(op)
		}
	}()
}

// Wait blocks until background backend calls have returned.
func (s *Session) Wait() {
	s.pending.Wait()
}

// ID returns the session ID. It is set once Init has run.
func (s *Session) ID() uuid.UUID { return s.id }

// State returns the current state.
func (s *Session) State() State { return s.state }

// Result returns the result once the session is terminal.
func (s *Session) Result() *model.Result { return s.result }

// Err returns the load error of a FAILED session.
func (s *Session) Err() error { return s.err }

// Violations returns the integrity record. It is the zero record before Init.
func (s *Session) Violations() model.ViolationRecord {
	if s.monitor == nil {
		return model.ViolationRecord{CheaterFlag: s.state == StateCheated}
	}
	rec := s.monitor.Record()
	rec.CheaterFlag = rec.CheaterFlag || s.state == StateCheated
	return rec
}

// Status returns the client-facing view of the session.
func (s *Session) Status() Status {
	st := Status{SessionID: s.id, State: s.state, Result: s.result}
	if s.reg != nil {
		st.RollNumber = s.reg.RollNumber
		st.StudentName = s.reg.StudentName
		st.Category = s.reg.Category
	}
	if s.timer != nil {
		st.TotalSeconds = s.timer.Total()
		if s.state == StateInProgress {
			st.RemainingSeconds = s.timer.Remaining()
		}
	}
	if s.answers != nil {
		st.Progress = s.answers.Progress()
		if !s.state.Terminal() {
			st.Answers = s.answers.Answers()
			st.Questions = make([]model.QuestionForStudent, len(s.questions))
			for i := range s.questions {
				st.Questions[i] = s.questions[i].ForStudent()
			}
		}
	}
	if s.err != nil {
		st.Error = s.err.Error()
	}
	return st
}

func (s *Session) now() time.Time { return s.opts.Now() }

func restoreOrder(all []model.Question, ids []uuid.UUID) ([]model.Question, bool) {
	if len(ids) == 0 {
		return nil, false
	}
	byID := make(map[uuid.UUID]model.Question, len(all))
	for _, q := range all {
		byID[q.ID] = q
	}
	ordered := make([]model.Question, 0, len(ids))
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			return nil, false
		}
		ordered = append(ordered, q)
	}
	return ordered, true
}

func outcome(s State) string {
	switch s {
	case StateSubmitted:
		return "submitted"
	case StateExpired:
		return "expired"
	case StateCheated:
		return "cheated"
	default:
		return "failed"
	}
}
