package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stemsi/quizdesk-backend/internal/quiz"
	"golang.org/x/sync/singleflight"
)

var ErrSessionActive = errors.New("a session is already in progress for this roll number")

// ActiveSession describes a runner currently hosted by this process.
type ActiveSession struct {
	RollNumber       string     `json:"roll_number"`
	StudentName      string     `json:"student_name"`
	Category         string     `json:"category"`
	SessionID        string     `json:"session_id"`
	State            quiz.State `json:"state"`
	RemainingSeconds int        `json:"remaining_seconds"`
	Answered         int        `json:"answered"`
	Unanswered       int        `json:"unanswered"`
}

// SessionService hosts one quiz.Runner per roll number and handles the
// registration handoff that precedes it.
type SessionService struct {
	repo    quiz.SessionRepository
	backend quiz.Backend
	opts    quiz.Options
	log     zerolog.Logger

	mu      sync.Mutex
	runners map[string]*quiz.Runner
	starts  singleflight.Group
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSessionService creates a new SessionService. Runners it starts live
// until they finish or Shutdown is called.
func NewSessionService(repo quiz.SessionRepository, backend quiz.Backend, opts quiz.Options, log zerolog.Logger) *SessionService {
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionService{
		repo:    repo,
		backend: backend,
		opts:    opts,
		log:     log.With().Str("component", "session_service").Logger(),
		runners: make(map[string]*quiz.Runner),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register replaces the registration of reg.RollNumber. A missing duration
// is taken from the quiz configuration.
func (s *SessionService) Register(ctx context.Context, reg model.Registration) (*model.Registration, error) {
	active, err := s.repo.IsActive(ctx, reg.RollNumber)
	if err != nil {
		return nil, fmt.Errorf("check active flag: %w", err)
	}
	if active || s.running(reg.RollNumber) {
		return nil, ErrSessionActive
	}

	if err := s.repo.ClearRegistration(ctx, reg.RollNumber); err != nil {
		return nil, fmt.Errorf("clear registration: %w", err)
	}

	if reg.QuizDurationMinutes <= 0 {
		reg.QuizDurationMinutes = s.config(ctx).QuizDurationMinutes
	}
	reg.RegisteredAt = time.Now()

	if err := s.repo.SaveRegistration(ctx, &reg); err != nil {
		return nil, fmt.Errorf("save registration: %w", err)
	}

	s.log.Info().
		Str("roll_number", reg.RollNumber).
		Str("category", reg.Category).
		Int("duration_minutes", reg.QuizDurationMinutes).
		Msg("Registration stored")
	return &reg, nil
}

// Attach returns the runner hosting rollNumber, starting one when needed.
// Concurrent attaches for the same roll number share one start.
func (s *SessionService) Attach(ctx context.Context, rollNumber string) (*quiz.Runner, error) {
	if r := s.lookup(rollNumber); r != nil {
		return r, nil
	}

	v, err, _ := s.starts.Do(rollNumber, func() (interface{}, error) {
		if r := s.lookup(rollNumber); r != nil {
			return r, nil
		}
		return s.start(ctx, rollNumber)
	})
	if err != nil {
		return nil, err
	}
	return v.(*quiz.Runner), nil
}

func (s *SessionService) start(ctx context.Context, rollNumber string) (*quiz.Runner, error) {
	if s.ctx.Err() != nil {
		return nil, quiz.ErrSessionClosed
	}

	session := quiz.NewSession(s.repo, s.backend, s.log, s.opts)
	err := session.Init(ctx, rollNumber)
	switch {
	case session.State() == quiz.StateInitializing:
		return nil, err
	case session.State() == quiz.StateFailed:
		return nil, err
	case err != nil:
		// Terminal writes failed but the outcome is known.
		s.log.Warn().Err(err).Str("roll_number", rollNumber).Msg("Session started with storage errors")
	}

	runner := quiz.NewRunner(session)

	s.mu.Lock()
	s.runners[rollNumber] = runner
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		runner.Run(s.ctx)

		s.mu.Lock()
		if s.runners[rollNumber] == runner {
			delete(s.runners, rollNumber)
		}
		s.mu.Unlock()

		runner.Wait()
	}()

	return runner, nil
}

// Status returns the live status of rollNumber without starting a runner.
func (s *SessionService) Status(ctx context.Context, rollNumber string) (*quiz.Status, error) {
	r := s.lookup(rollNumber)
	if r == nil {
		return nil, quiz.ErrSessionClosed
	}
	st, err := r.Status(ctx)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Result returns the last stored result of rollNumber.
func (s *SessionService) Result(ctx context.Context, rollNumber string) (*model.Result, error) {
	return s.repo.LastResult(ctx, rollNumber)
}

// Abandon ends the attempt of rollNumber without a result. Without a hosted
// runner the stored state is removed directly.
func (s *SessionService) Abandon(ctx context.Context, rollNumber string) error {
	if r := s.lookup(rollNumber); r != nil {
		err := r.Abandon(ctx)
		if !errors.Is(err, quiz.ErrSessionClosed) {
			return err
		}
	}

	return errors.Join(
		s.repo.Clear(ctx, rollNumber),
		s.repo.SetActive(ctx, rollNumber, false),
		s.repo.ClearRegistration(ctx, rollNumber),
	)
}

// CheaterRecord returns why rollNumber was flagged.
func (s *SessionService) CheaterRecord(ctx context.Context, rollNumber string) (*model.CheaterRecord, error) {
	return s.repo.CheaterRecord(ctx, rollNumber)
}

// Pardon lifts the cheater flag of rollNumber.
func (s *SessionService) Pardon(ctx context.Context, rollNumber string) error {
	flagged, err := s.repo.IsCheater(ctx, rollNumber)
	if err != nil {
		return err
	}
	if !flagged {
		return quiz.ErrCheaterNotFound
	}
	if err := s.repo.ClearCheater(ctx, rollNumber); err != nil {
		return err
	}
	s.log.Info().Str("roll_number", rollNumber).Msg("Cheater flag cleared")
	return nil
}

// Active lists the sessions hosted by this process ordered by roll number.
func (s *SessionService) Active(ctx context.Context) []ActiveSession {
	s.mu.Lock()
	runners := make([]*quiz.Runner, 0, len(s.runners))
	for _, r := range s.runners {
		runners = append(runners, r)
	}
	s.mu.Unlock()

	out := make([]ActiveSession, 0, len(runners))
	for _, r := range runners {
		st, err := r.Status(ctx)
		if err != nil || st.State.Terminal() {
			continue
		}
		out = append(out, ActiveSession{
			RollNumber:       st.RollNumber,
			StudentName:      st.StudentName,
			Category:         st.Category,
			SessionID:        st.SessionID.String(),
			State:            st.State,
			RemainingSeconds: st.RemainingSeconds,
			Answered:         st.Progress.Answered,
			Unanswered:       st.Progress.Remaining,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RollNumber < out[j].RollNumber })
	return out
}

// Shutdown stops every runner, keeping their snapshots for resume, and waits
// for pending backend calls until ctx is done.
func (s *SessionService) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.log.Info().Msg("All quiz sessions stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SessionService) lookup(rollNumber string) *quiz.Runner {
	s.mu.Lock()
	r, ok := s.runners[rollNumber]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-r.Done():
		return nil
	default:
		return r
	}
}

func (s *SessionService) running(rollNumber string) bool {
	r := s.lookup(rollNumber)
	if r == nil {
		return false
	}
	st, err := r.Status(context.Background())
	return err == nil && !st.State.Terminal()
}

func (s *SessionService) config(ctx context.Context) model.QuizConfig {
	if cfg, err := s.backend.Config(ctx); err == nil && cfg != nil {
		return *cfg
	}
	if cached, err := s.repo.CachedConfig(ctx); err == nil {
		return *cached
	}
	return model.DefaultQuizConfig()
}
