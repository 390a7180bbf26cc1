package model

import (
	"time"

	"github.com/google/uuid"
)

// Difficulty is the authoring-side difficulty label of a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Option is a single answer choice. Options are matched by text.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question represents a single question in the bank.
type Question struct {
	ID         uuid.UUID  `json:"id"`
	Text       string     `json:"text"`
	Category   string     `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
	Marks      int        `json:"marks"`
	Options    []Option   `json:"options"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CorrectOption returns the text of the first option flagged correct.
func (q *Question) CorrectOption() (string, bool) {
	for _, o := range q.Options {
		if o.IsCorrect {
			return o.Text, true
		}
	}
	return "", false
}

// HasOption reports whether text is one of the question's options.
func (q *Question) HasOption(text string) bool {
	for _, o := range q.Options {
		if o.Text == text {
			return true
		}
	}
	return false
}

// ForStudent strips correctness flags so the question can be sent to a quiz taker.
func (q *Question) ForStudent() QuestionForStudent {
	opts := make([]string, len(q.Options))
	for i, o := range q.Options {
		opts[i] = o.Text
	}
	return QuestionForStudent{
		ID:         q.ID,
		Text:       q.Text,
		Category:   q.Category,
		Difficulty: q.Difficulty,
		Marks:      q.Marks,
		Options:    opts,
	}
}

// QuestionForStudent is the question payload streamed to a running session.
type QuestionForStudent struct {
	ID         uuid.UUID  `json:"id"`
	Text       string     `json:"text"`
	Category   string     `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
	Marks      int        `json:"marks"`
	Options    []string   `json:"options"`
}

// OptionRequest is one option inside a question payload.
type OptionRequest struct {
	Text      string `json:"text" yaml:"text" binding:"max=500"`
	IsCorrect bool   `json:"is_correct" yaml:"is_correct"`
}

// QuestionRequest is the payload for creating or updating a question.
type QuestionRequest struct {
	Text       string          `json:"text" yaml:"text" binding:"required,max=2000"`
	Category   string          `json:"category" yaml:"category" binding:"required,category,max=100"`
	Difficulty string          `json:"difficulty" yaml:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Marks      int             `json:"marks" yaml:"marks" binding:"required,min=1,max=100"`
	Options    []OptionRequest `json:"options" yaml:"options" binding:"required,max=10,dive"`
}

// ToQuestion converts the request into a Question. ID and timestamps are left unset.
func (r *QuestionRequest) ToQuestion() Question {
	opts := make([]Option, len(r.Options))
	for i, o := range r.Options {
		opts[i] = Option{Text: o.Text, IsCorrect: o.IsCorrect}
	}
	difficulty := Difficulty(r.Difficulty)
	if difficulty == "" {
		difficulty = DifficultyMedium
	}
	return Question{
		Text:       r.Text,
		Category:   r.Category,
		Difficulty: difficulty,
		Marks:      r.Marks,
		Options:    opts,
	}
}

// QuestionFilter narrows question listings.
type QuestionFilter struct {
	Category string
	Search   string
}

// CategorySummary counts the questions of one category.
type CategorySummary struct {
	Category   string `json:"category"`
	Questions  int    `json:"questions"`
	TotalMarks int    `json:"total_marks"`
}
