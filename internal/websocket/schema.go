package websocket

import (
	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stemsi/quizdesk-backend/internal/quiz"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSelect Action = "select"
	ActionHidden Action = "hidden"
	ActionShown  Action = "shown"
	ActionActive Action = "active"
	ActionUnload Action = "unload"
	ActionSubmit Action = "submit"
	ActionState  Action = "state"
)

// ActivityKind maps page activity actions onto integrity events.
func (a Action) ActivityKind() (quiz.EventKind, bool) {
	k := quiz.EventKind(a)
	return k, k.Valid()
}

// RequestEnvelope is used to peek at the action before full parsing.
// Every action shares one flat message shape.
type RequestEnvelope struct {
	Action  Action `json:"action"`
	Index   *int   `json:"index,omitempty"`
	Option  string `json:"option,omitempty"`
	Confirm bool   `json:"confirm,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState   Event = "state"
	EventTick    Event = "tick"
	EventConfirm Event = "confirm"
	EventSaved   Event = "saved"
	EventResult  Event = "result"
	EventError   Event = "error"
)

type StateResponse struct {
	Event   Event       `json:"event"`
	Session quiz.Status `json:"session"`
}

type TickResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds int   `json:"remaining_seconds"`
}

type ConfirmResponse struct {
	Event  Event                   `json:"event"`
	Prompt quiz.ConfirmationPrompt `json:"prompt"`
}

type SavedResponse struct {
	Event  Event  `json:"event"`
	Index  int    `json:"index"`
	Option string `json:"option"`
}

type ResultResponse struct {
	Event  Event        `json:"event"`
	Result model.Result `json:"result"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}
