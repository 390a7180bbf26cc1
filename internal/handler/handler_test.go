package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stemsi/quizdesk-backend/internal/quiz"
	"github.com/stemsi/quizdesk-backend/internal/repository"
	"github.com/stemsi/quizdesk-backend/internal/response"
	"github.com/stemsi/quizdesk-backend/internal/service"
	"github.com/stemsi/quizdesk-backend/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedBackend struct{}

func (fixedBackend) Questions(context.Context, string) ([]model.Question, error) {
	return []model.Question{
		{ID: uuid.New(), Text: "Capital of Japan?", Category: "geo", Marks: 1,
			Options: []model.Option{{Text: "Tokyo", IsCorrect: true}, {Text: "Osaka"}}},
		{ID: uuid.New(), Text: "Longest river?", Category: "geo", Marks: 1,
			Options: []model.Option{{Text: "Nile", IsCorrect: true}, {Text: "Rhine"}}},
	}, nil
}

func (fixedBackend) Config(context.Context) (*model.QuizConfig, error) {
	cfg := model.DefaultQuizConfig()
	return &cfg, nil
}

func (fixedBackend) Submit(context.Context, model.Submission) error { return nil }
func (fixedBackend) Beacon(context.Context, model.Beacon) error     { return nil }

type testServer struct {
	*httptest.Server
	sessions *service.SessionService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Setup()

	sessions := service.NewSessionService(repository.NewMemorySessionRepository(), fixedBackend{}, quiz.Options{
		TickInterval:       time.Hour,
		CheckpointInterval: time.Hour,
		SyncTimeout:        time.Second,
		Shuffle:            func(int, func(i, j int)) {},
	}, zerolog.Nop())

	r := gin.New()
	r.Use(response.RequestIDMiddleware())
	sh := NewSessionHandler(sessions)
	r.POST("/api/v1/sessions", sh.Register)
	r.GET("/api/v1/sessions/:roll/result", sh.GetResult)
	r.GET("/ws/v1/sessions/:roll/stream", NewWSHandler(sessions, zerolog.Nop(), nil).SessionStream)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = sessions.Shutdown(ctx)
	})
	return &testServer{Server: srv, sessions: sessions}
}

func (s *testServer) post(t *testing.T, path, body string) (*http.Response, response.Response) {
	t.Helper()
	resp, err := http.Post(s.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var env response.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func (s *testServer) dial(t *testing.T, roll string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws/v1/sessions/" + roll + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type wsMessage struct {
	Event  string          `json:"event"`
	Code   string          `json:"code"`
	Index  int             `json:"index"`
	Option string          `json:"option"`
	Result *model.Result   `json:"result"`
	Prompt json.RawMessage `json:"prompt"`
	Sess   *quiz.Status    `json:"session"`
}

func waitEvent(t *testing.T, conn *websocket.Conn, event string) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %q", event)
		if msg.Event == event {
			return msg
		}
	}
}

func TestRegisterValidatesPayload(t *testing.T) {
	srv := newTestServer(t)

	resp, env := srv.post(t, "/api/v1/sessions", `{"student_name":"Ana","roll_number":"bad roll!","category":"geo"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, env.Error)
	assert.Equal(t, response.ErrValidation, env.Error.Code)
	assert.Contains(t, env.Error.Fields, "roll_number")

	resp, env = srv.post(t, "/api/v1/sessions", `{"student_name":"Ana","roll_number":"G-1","category":"geo"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Nil(t, env.Error)
}

func TestResultBeforeAttemptIsNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/sessions/G-2/result")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStreamRejectsUnregisteredRoll(t *testing.T) {
	srv := newTestServer(t)
	conn := srv.dial(t, "G-3")

	msg := waitEvent(t, conn, "error")
	assert.Equal(t, string(response.ErrRegistrationRequired), msg.Code)
}

func TestStreamRejectsMalformedRoll(t *testing.T) {
	srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/sessions/bad%20roll/stream"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStreamRunsQuizToResult(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := srv.post(t, "/api/v1/sessions", `{"student_name":"Ana","roll_number":"G-4","category":"geo"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	conn := srv.dial(t, "G-4")

	state := waitEvent(t, conn, "state")
	require.NotNil(t, state.Sess)
	assert.Equal(t, quiz.StateInProgress, state.Sess.State)
	require.Len(t, state.Sess.Questions, 2)
	for _, q := range state.Sess.Questions {
		assert.NotContains(t, q.Options, "", "options are plain text")
	}

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"action": "select", "index": 0, "option": "Tokyo"}))
	saved := waitEvent(t, conn, "saved")
	assert.Equal(t, 0, saved.Index)
	assert.Equal(t, "Tokyo", saved.Option)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"action": "select", "index": 0, "option": "Kyoto"}))
	bad := waitEvent(t, conn, "error")
	assert.Equal(t, string(response.ErrInvalidPayload), bad.Code)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"action": "dance"}))
	unknown := waitEvent(t, conn, "error")
	assert.Equal(t, string(response.ErrInvalidPayload), unknown.Code)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"action": "submit"}))
	confirm := waitEvent(t, conn, "confirm")
	assert.NotEmpty(t, confirm.Prompt)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"action": "submit", "confirm": true}))
	result := waitEvent(t, conn, "result")
	require.NotNil(t, result.Result)
	assert.Equal(t, 1, result.Result.CorrectAnswers)
	assert.Equal(t, 2, result.Result.TotalQuestions)
	assert.False(t, result.Result.IsAutoSubmitted)

	// A new connection after the attempt shows the stored result.
	again := srv.dial(t, "G-4")
	stored := waitEvent(t, again, "result")
	require.NotNil(t, stored.Result)
	assert.Equal(t, result.Result.ID, stored.Result.ID)
}

func TestStreamResumesAfterReconnect(t *testing.T) {
	srv := newTestServer(t)
	resp, _ := srv.post(t, "/api/v1/sessions", `{"student_name":"Ana","roll_number":"G-5","category":"geo"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	first := srv.dial(t, "G-5")
	waitEvent(t, first, "state")
	require.NoError(t, first.WriteJSON(map[string]interface{}{"action": "select", "index": 1, "option": "Nile"}))
	waitEvent(t, first, "saved")
	require.NoError(t, first.Close())

	second := srv.dial(t, "G-5")
	state := waitEvent(t, second, "state")
	require.NotNil(t, state.Sess)
	assert.Equal(t, quiz.StateInProgress, state.Sess.State)
	require.NotNil(t, state.Sess.Answers[1])
	assert.Equal(t, "Nile", *state.Sess.Answers[1])
}
