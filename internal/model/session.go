package model

import (
	"time"

	"github.com/google/uuid"
)

// Registration is the handoff created before a quiz session starts.
// A new registration for the same roll number replaces the previous one.
type Registration struct {
	StudentName         string    `json:"student_name" binding:"required,max=255"`
	RollNumber          string    `json:"roll_number" binding:"required,roll_number"`
	Category            string    `json:"category" binding:"required,category,max=100"`
	QuizDurationMinutes int       `json:"quiz_duration_minutes" binding:"min=0,max=600"`
	RegisteredAt        time.Time `json:"registered_at"`
}

// Snapshot is the persisted state of an in-progress attempt.
type Snapshot struct {
	SessionID            uuid.UUID       `json:"session_id"`
	RollNumber           string          `json:"roll_number"`
	Category             string          `json:"category"`
	StartedAt            time.Time       `json:"started_at"`
	TotalDurationSeconds int             `json:"total_duration_seconds"`
	RemainingSeconds     int             `json:"remaining_seconds"`
	QuestionIDs          []uuid.UUID     `json:"question_ids"`
	Answers              map[int]*string `json:"answers"`
	ViolationCount       int             `json:"violation_count"`
	LastHiddenAt         *time.Time      `json:"last_hidden_at"`
	SavedAt              time.Time       `json:"saved_at"`
}

// ViolationRecord summarises the integrity state of a session.
type ViolationRecord struct {
	Count        int        `json:"count"`
	LastHiddenAt *time.Time `json:"last_hidden_at"`
	CheaterFlag  bool       `json:"cheater_flag"`
}

// CheaterRecord is the detail stored next to a roll number's cheater flag.
type CheaterRecord struct {
	RollNumber string    `json:"roll_number"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	SessionID  uuid.UUID `json:"session_id"`
	Violations int       `json:"violations"`
	Reason     string    `json:"reason"`
	FlaggedAt  time.Time `json:"flagged_at"`
}

// Beacon is the fire-and-forget payload sent when a quiz page is being unloaded.
type Beacon struct {
	SessionID        uuid.UUID       `json:"session_id" binding:"required"`
	RollNumber       string          `json:"roll_number" binding:"required,roll_number"`
	Category         string          `json:"category"`
	Answers          map[int]*string `json:"answers"`
	RemainingSeconds int             `json:"remaining_seconds"`
	ViolationCount   int             `json:"violation_count"`
	SentAt           time.Time       `json:"sent_at"`
}
