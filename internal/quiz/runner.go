package quiz

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizdesk-backend/internal/model"
)

// EventType tags a runner broadcast.
type EventType string

const (
	EventState  EventType = "state"
	EventTick   EventType = "tick"
	EventResult EventType = "result"
)

// Event is broadcast to everyone subscribed to a runner.
type Event struct {
	Type      EventType
	Remaining int
	Status    *Status
	Result    *model.Result
}

type command struct {
	fn    func(ctx context.Context)
	reply chan struct{}
}

// Runner owns a Session and drives it from one goroutine. Timer ticks,
// periodic checkpoints, activity events and user commands are all handled
// by the loop in Run, so the session never sees concurrent calls.
type Runner struct {
	session *Session
	bus     *ActivityBus
	pings   *ActivityBus
	events  *hub[Event]
	cmds    chan command
	done    chan struct{}
	log     zerolog.Logger
}

// NewRunner wraps an initialised session.
func NewRunner(session *Session) *Runner {
	return &Runner{
		session: session,
		bus:     NewActivityBus(),
		pings:   NewActivityBus(),
		events:  newHub[Event](32),
		cmds:    make(chan command),
		done:    make(chan struct{}),
		log:     session.log.With().Str("component", "quiz_runner").Logger(),
	}
}

// Run processes events until the session reaches a terminal state or ctx is
// cancelled. On cancellation the snapshot is written so the attempt can resume.
func (r *Runner) Run(ctx context.Context) {
	opts := r.session.opts

	activity, detach := r.bus.Subscribe()
	pings, detachPings := r.pings.Subscribe()
	tickCtx, stopTicks := context.WithCancel(ctx)
	var ticks <-chan int
	if r.session.State() == StateInProgress {
		ticks = r.session.timer.Ticks(tickCtx, opts.TickInterval)
	}
	checkpoint := time.NewTicker(opts.CheckpointInterval)

	defer func() {
		stopTicks()
		checkpoint.Stop()
		detach()
		detachPings()
		r.bus.Close()
		r.pings.Close()
		r.broadcastFinal()
		close(r.done)
		r.events.close()
	}()

	for !r.session.State().Terminal() {
		prev := r.session.State()

		select {
		case <-ctx.Done():
			if err := r.session.Checkpoint(context.Background()); err != nil {
				r.log.Error().Err(err).Msg("Final checkpoint failed")
			}
			r.log.Info().Msg("Runner stopped, snapshot kept for resume")
			return

		case _, ok := <-ticks:
			if !ok {
				ticks = nil
				continue
			}
			left, err := r.session.Tick(ctx)
			r.report("tick", err)
			if !r.session.State().Terminal() {
				r.events.publish(Event{Type: EventTick, Remaining: left})
			}

		case <-checkpoint.C:
			r.report("checkpoint", r.session.Checkpoint(ctx))

		case ev, ok := <-activity:
			if !ok {
				activity = nil
				continue
			}
			r.report("observe", r.session.Observe(ctx, ev))

		case ev, ok := <-pings:
			if !ok {
				pings = nil
				continue
			}
			r.report("observe", r.session.Observe(ctx, ev))

		case cmd := <-r.cmds:
			cmd.fn(ctx)
			close(cmd.reply)
		}

		if cur := r.session.State(); cur != prev && !cur.Terminal() {
			st := r.session.Status()
			r.events.publish(Event{Type: EventState, Status: &st})
		}
	}
}

func (r *Runner) broadcastFinal() {
	st := r.session.Status()
	r.events.publish(Event{Type: EventState, Status: &st})
	if st.Result != nil {
		r.events.publish(Event{Type: EventResult, Status: &st, Result: st.Result})
	}
}

func (r *Runner) report(op string, err error) {
	if err != nil {
		r.log.Error().Err(err).Str("op", op).Msg("Session event failed")
	}
}

// Do runs fn on the runner goroutine and waits for it. It returns
// ErrSessionClosed once the runner has stopped.
func (r *Runner) Do(ctx context.Context, fn func(ctx context.Context, s *Session)) error {
	reply := make(chan struct{})
	cmd := command{
		fn:    func(c context.Context) { fn(c, r.session) },
		reply: reply,
	}

	select {
	case r.cmds <- cmd:
	case <-r.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Select forwards an answer selection to the session.
func (r *Runner) Select(ctx context.Context, index int, option string) error {
	var err error
	if derr := r.Do(ctx, func(ctx context.Context, s *Session) {
		err = s.Select(ctx, index, option)
	}); derr != nil {
		return derr
	}
	return err
}

// Submit forwards a manual submit to the session.
func (r *Runner) Submit(ctx context.Context, confirmed bool) (*ConfirmationPrompt, error) {
	var (
		prompt *ConfirmationPrompt
		err    error
	)
	if derr := r.Do(ctx, func(ctx context.Context, s *Session) {
		prompt, err = s.Submit(ctx, confirmed)
	}); derr != nil {
		return nil, derr
	}
	return prompt, err
}

// Abandon drops the session without a result.
func (r *Runner) Abandon(ctx context.Context) error {
	var err error
	if derr := r.Do(ctx, func(ctx context.Context, s *Session) {
		err = s.Abandon(ctx)
	}); derr != nil {
		return derr
	}
	return err
}

// Status returns the session view. After the runner stopped it reads the
// final state directly.
func (r *Runner) Status(ctx context.Context) (Status, error) {
	var st Status
	err := r.Do(ctx, func(_ context.Context, s *Session) {
		st = s.Status()
	})
	if errors.Is(err, ErrSessionClosed) {
		return r.session.Status(), nil
	}
	return st, err
}

// Publish puts an activity event on the session's bus. UserActive travels on
// a bus of its own so a burst of pings cannot crowd out hidden and shown. It
// reports false when the event was dropped on a full buffer.
func (r *Runner) Publish(ev ActivityEvent) bool {
	if ev.Kind == UserActive {
		return r.pings.Publish(ev)
	}
	return r.bus.Publish(ev)
}

// Subscribe returns runner broadcasts. The channel closes when the runner stops.
func (r *Runner) Subscribe() (<-chan Event, func()) {
	return r.events.subscribe()
}

// Done is closed once Run has returned.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the session's background backend calls finished.
func (r *Runner) Wait() {
	r.session.Wait()
}

// SessionID returns the ID of the wrapped session.
func (r *Runner) SessionID() string {
	return r.session.ID().String()
}
