package model

import (
	"time"

	"github.com/google/uuid"
)

// Result is the outcome of one quiz attempt. It is created once per session
// termination and never modified afterwards.
type Result struct {
	ID              uuid.UUID       `json:"id"`
	SessionID       uuid.UUID       `json:"session_id"`
	RollNumber      string          `json:"roll_number"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	CorrectAnswers  int             `json:"correct_answers"`
	TotalQuestions  int             `json:"total_questions"`
	ObtainedMarks   int             `json:"obtained_marks"`
	TotalMarks      int             `json:"total_marks"`
	Percentage      float64         `json:"percentage"`
	Passed          bool            `json:"passed"`
	IsAutoSubmitted bool            `json:"is_auto_submitted"`
	IsCheater       bool            `json:"is_cheater"`
	CheatReason     *string         `json:"cheat_reason"`
	SubmittedAt     time.Time       `json:"submitted_at"`
	Breakdown       []QuestionScore `json:"breakdown,omitempty"`
}

// QuestionScore is the per-question line of a scored result.
type QuestionScore struct {
	Index      int       `json:"index"`
	QuestionID uuid.UUID `json:"question_id"`
	Selected   *string   `json:"selected"`
	Correct    bool      `json:"correct"`
	Marks      int       `json:"marks"`
	Awarded    int       `json:"awarded"`
}

// Submission is the payload mirrored to the quiz backend when a session ends.
type Submission struct {
	Result  Result          `json:"result" binding:"required"`
	Answers map[int]*string `json:"answers"`
}

// ResultFilter narrows result listings and exports.
type ResultFilter struct {
	Category string
	Search   string
	Passed   *bool
	Cheater  *bool
}

// CategoryStats holds aggregate numbers for one category.
type CategoryStats struct {
	Category          string  `json:"category"`
	Attempts          int     `json:"attempts"`
	Passed            int     `json:"passed"`
	Cheaters          int     `json:"cheaters"`
	AveragePercentage float64 `json:"average_percentage"`
}

// Analytics is the dashboard summary over all persisted results.
type Analytics struct {
	TotalAttempts     int             `json:"total_attempts"`
	TotalPassed       int             `json:"total_passed"`
	TotalCheaters     int             `json:"total_cheaters"`
	AutoSubmitted     int             `json:"auto_submitted"`
	PassRate          float64         `json:"pass_rate"`
	AveragePercentage float64         `json:"average_percentage"`
	TotalQuestions    int             `json:"total_questions"`
	Categories        []CategoryStats `json:"categories"`
	RecentResults     []Result        `json:"recent_results"`
}
