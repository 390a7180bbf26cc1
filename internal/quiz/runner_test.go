package quiz_test

import (
	"context"
	"testing"
	"time"

	"github.com/stemsi/quizdesk-backend/internal/quiz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// waitResult drains events until the result broadcast arrives.
func waitResult(t *testing.T, events <-chan quiz.Event) quiz.Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "events closed before a result was broadcast")
			if ev.Type == quiz.EventResult {
				return ev
			}
		case <-timeout:
			t.Fatal("timed out waiting for result event")
		}
	}
}

func waitDone(t *testing.T, r *quiz.Runner) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRunnerExpiresOnTimer(t *testing.T) {
	s, _, _, clk := startSession(t)
	r := quiz.NewRunner(s)
	events, cancel := r.Subscribe()
	defer cancel()

	go r.Run(context.Background())

	clk.Advance(31 * time.Minute)
	ev := waitResult(t, events)
	waitDone(t, r)
	r.Wait()

	require.NotNil(t, ev.Result)
	assert.True(t, ev.Result.IsAutoSubmitted)
	assert.Equal(t, quiz.StateExpired, ev.Status.State)
}

func TestRunnerBroadcastsTicks(t *testing.T) {
	s, _, _, clk := startSession(t)
	r := quiz.NewRunner(s)
	events, cancel := r.Subscribe()
	defer cancel()

	clk.Advance(10 * time.Second)
	ctx, stop := context.WithCancel(context.Background())
	go r.Run(ctx)
	defer func() {
		stop()
		waitDone(t, r)
	}()

	select {
	case ev := <-events:
		assert.Equal(t, quiz.EventTick, ev.Type)
		assert.Equal(t, 1790, ev.Remaining)
	case <-time.After(2 * time.Second):
		t.Fatal("no tick broadcast")
	}
}

func TestRunnerCommands(t *testing.T) {
	ctx := context.Background()
	s, repo, _, _ := startSession(t)
	r := quiz.NewRunner(s)
	events, cancel := r.Subscribe()
	defer cancel()

	go r.Run(ctx)

	require.NoError(t, r.Select(ctx, 0, "Paris"))
	assert.ErrorIs(t, r.Select(ctx, 0, "Rome"), quiz.ErrUnknownOption)

	st, err := r.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Paris", *st.Answers[0])

	prompt, err := r.Submit(ctx, false)
	assert.ErrorIs(t, err, quiz.ErrConfirmationRequired)
	assert.Equal(t, quiz.PromptPartial, prompt.Kind)

	_, err = r.Submit(ctx, true)
	require.NoError(t, err)

	ev := waitResult(t, events)
	waitDone(t, r)
	r.Wait()
	assert.Equal(t, 1, ev.Result.CorrectAnswers)

	assert.ErrorIs(t, r.Select(ctx, 1, "Tokyo"), quiz.ErrSessionClosed)
	st, err = r.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, quiz.StateSubmitted, st.State)

	stored, err := repo.LastResult(ctx, testRoll)
	require.NoError(t, err)
	assert.Equal(t, ev.Result.ID, stored.ID)
}

func TestRunnerActivityEndsInCheating(t *testing.T) {
	ctx := context.Background()
	s, repo, _, _ := startSession(t)
	r := quiz.NewRunner(s)
	events, cancel := r.Subscribe()
	defer cancel()

	go r.Run(ctx)
	// A served command means the loop, and its bus subscription, is live.
	_, err := r.Status(ctx)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		r.Publish(quiz.ActivityEvent{Kind: quiz.TabHidden})
		r.Publish(quiz.ActivityEvent{Kind: quiz.TabShown})
	}

	ev := waitResult(t, events)
	waitDone(t, r)
	r.Wait()

	assert.True(t, ev.Result.IsCheater)
	flagged, err := repo.IsCheater(ctx, testRoll)
	require.NoError(t, err)
	assert.True(t, flagged)
}

func TestRunnerPingBurstKeepsViolations(t *testing.T) {
	ctx := context.Background()
	s, _, _, _ := startSession(t)
	r := quiz.NewRunner(s)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go r.Run(runCtx)
	_, err := r.Status(ctx)
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		r.Publish(quiz.ActivityEvent{Kind: quiz.UserActive})
	}
	require.True(t, r.Publish(quiz.ActivityEvent{Kind: quiz.TabHidden}))

	assert.Eventually(t, func() bool {
		var count int
		err := r.Do(ctx, func(_ context.Context, s *quiz.Session) { count = s.Violations().Count })
		return err == nil && count == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRunnerCancelKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	s, repo, _, _ := startSession(t)
	r := quiz.NewRunner(s)

	runCtx, stop := context.WithCancel(ctx)
	go r.Run(runCtx)

	require.NoError(t, r.Select(ctx, 2, "Nile"))
	stop()
	waitDone(t, r)

	snap, err := repo.Load(ctx, testRoll)
	require.NoError(t, err)
	assert.Equal(t, "Nile", *snap.Answers[2])

	active, err := repo.IsActive(ctx, testRoll)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestRunnerAbandon(t *testing.T) {
	ctx := context.Background()
	s, _, _, _ := startSession(t)
	r := quiz.NewRunner(s)
	go r.Run(ctx)

	require.NoError(t, r.Abandon(ctx))
	waitDone(t, r)

	st, err := r.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, quiz.StateFailed, st.State)
	assert.Nil(t, st.Result)
}

func TestRunnerAlreadyTerminal(t *testing.T) {
	ctx := context.Background()
	s, _, _, _ := startSession(t)
	_, err := s.Submit(ctx, true)
	require.NoError(t, err)

	r := quiz.NewRunner(s)
	events, cancel := r.Subscribe()
	defer cancel()

	go r.Run(ctx)
	ev := waitResult(t, events)
	waitDone(t, r)
	r.Wait()
	assert.Equal(t, quiz.StateSubmitted, ev.Status.State)
}
