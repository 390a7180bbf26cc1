package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizdesk-backend/internal/quiz"
	"github.com/stemsi/quizdesk-backend/internal/response"
	"github.com/stemsi/quizdesk-backend/internal/service"
	"github.com/stemsi/quizdesk-backend/internal/validator"
	ws "github.com/stemsi/quizdesk-backend/internal/websocket"
)

// commandTimeout bounds a single action forwarded to a runner.
const commandTimeout = 5 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a hosted quiz session to the quiz page.
type WSHandler struct {
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionStream godoc
// WS /ws/v1/sessions/:roll/stream
// Attaches to the session of a registered roll number. The session keeps
// running on the server when the connection drops; reconnecting resumes it.
func (h *WSHandler) SessionStream(c *gin.Context) {
	roll := c.Param("roll")
	if !validator.IsRollNumber(roll) {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("roll_number", roll).Logger()

	runner, err := h.sessionService.Attach(c.Request.Context(), roll)
	if err != nil {
		h.rejectAttach(conn, wsLog, roll, err)
		return
	}

	events, unsubscribe := runner.Subscribe()
	defer unsubscribe()

	// The current state goes out first, followed by the result when the
	// session is already over.
	out := make(chan interface{}, 16)
	if st, err := runner.Status(c.Request.Context()); err == nil {
		enqueue(out, ws.StateResponse{Event: ws.EventState, Session: st})
		if st.Result != nil {
			enqueue(out, ws.ResultResponse{Event: ws.EventResult, Result: *st.Result})
		}
	}

	writerDone := make(chan struct{})
	go h.writeLoop(conn, wsLog, events, out, writerDone)

	wsLog.Info().Str("session_id", runner.SessionID()).Msg("Student connected")
	ws.KeepAlive(conn)

	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		select {
		case <-writerDone:
			return
		default:
		}

		if reply := h.dispatch(runner, wsLog, &msg); reply != nil {
			enqueue(out, reply)
		}
	}

	close(out)
	<-writerDone
}

// dispatch runs one action against the runner and returns the direct reply,
// if any. Broadcasts triggered by the action arrive through the event stream.
func (h *WSHandler) dispatch(runner *quiz.Runner, wsLog zerolog.Logger, msg *ws.RequestEnvelope) interface{} {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if kind, ok := msg.Action.ActivityKind(); ok {
		if !runner.Publish(quiz.ActivityEvent{Kind: kind}) {
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Activity event dropped")
		}
		return nil
	}

	switch msg.Action {
	case ws.ActionSelect:
		if msg.Index == nil || msg.Option == "" {
			return errorReply(response.ErrInvalidPayload, "index and option are required")
		}
		if err := runner.Select(ctx, *msg.Index, msg.Option); err != nil {
			return sessionErrorReply(err)
		}
		return ws.SavedResponse{Event: ws.EventSaved, Index: *msg.Index, Option: msg.Option}

	case ws.ActionSubmit:
		prompt, err := runner.Submit(ctx, msg.Confirm)
		if errors.Is(err, quiz.ErrConfirmationRequired) && prompt != nil {
			return ws.ConfirmResponse{Event: ws.EventConfirm, Prompt: *prompt}
		}
		if err != nil {
			return sessionErrorReply(err)
		}
		return nil

	case ws.ActionState:
		st, err := runner.Status(ctx)
		if err != nil {
			return sessionErrorReply(err)
		}
		return ws.StateResponse{Event: ws.EventState, Session: st}
	}

	wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
	return errorReply(response.ErrInvalidPayload, "unknown action: "+string(msg.Action))
}

// writeLoop owns every write to conn and closes it on return, which also
// unblocks the reader.
func (h *WSHandler) writeLoop(conn *websocket.Conn, wsLog zerolog.Logger, events <-chan quiz.Event, out <-chan interface{}, done chan<- struct{}) {
	defer close(done)
	defer conn.Close()

	ping := time.NewTicker(ws.PingPeriod)
	defer ping.Stop()

	for {
		var msg interface{}
		select {
		case reply, ok := <-out:
			if !ok {
				return
			}
			msg = reply

		case ev, ok := <-events:
			if !ok {
				// Runner finished; drain pending replies and close politely.
				for reply := range drain(out) {
					_ = ws.WriteTyped(conn, reply)
				}
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session finished"),
					time.Now().Add(time.Second))
				return
			}
			msg = eventMessage(ev)
			if msg == nil {
				continue
			}

		case <-ping.C:
			if err := ws.WritePing(conn); err != nil {
				return
			}
			continue
		}

		if err := ws.WriteTyped(conn, msg); err != nil {
			wsLog.Debug().Err(err).Msg("Write failed")
			return
		}
	}
}

func (h *WSHandler) rejectAttach(conn *websocket.Conn, wsLog zerolog.Logger, roll string, err error) {
	if errors.Is(err, quiz.ErrRegistrationRequired) {
		// A finished attempt has no registration left; show its result.
		if res, rerr := h.sessionService.Result(context.Background(), roll); rerr == nil {
			_ = ws.WriteTyped(conn, ws.ResultResponse{Event: ws.EventResult, Result: *res})
			return
		}
	}
	wsLog.Info().Err(err).Msg("Attach rejected")
	_ = ws.WriteTyped(conn, sessionErrorReply(err))
}

func eventMessage(ev quiz.Event) interface{} {
	switch ev.Type {
	case quiz.EventTick:
		return ws.TickResponse{Event: ws.EventTick, RemainingSeconds: ev.Remaining}
	case quiz.EventState:
		if ev.Status != nil {
			return ws.StateResponse{Event: ws.EventState, Session: *ev.Status}
		}
	case quiz.EventResult:
		if ev.Result != nil {
			return ws.ResultResponse{Event: ws.EventResult, Result: *ev.Result}
		}
	}
	return nil
}

func sessionErrorReply(err error) ws.ErrorResponse {
	_, code := sessionError(err)
	return errorReply(code, response.GetMessage(code))
}

func errorReply(code response.ErrCode, msg string) ws.ErrorResponse {
	return ws.ErrorResponse{Event: ws.EventError, Code: string(code), Error: msg}
}

// enqueue hands msg to the writer without blocking the reader on a stalled
// connection.
func enqueue(out chan<- interface{}, msg interface{}) {
	select {
	case out <- msg:
	default:
	}
}

func drain(out <-chan interface{}) <-chan interface{} {
	pending := make(chan interface{}, cap(out))
	defer close(pending)
	for {
		select {
		case reply, ok := <-out:
			if !ok {
				return pending
			}
			pending <- reply
		default:
			return pending
		}
	}
}
