package quiz

import (
	"fmt"
	"time"

	"github.com/stemsi/quizdesk-backend/internal/model"
)

// Progress is a read-only view over the answer store.
type Progress struct {
	Answered  int     `json:"answered"`
	Remaining int     `json:"remaining"`
	Percent   float64 `json:"percent"`
}

// AnswerStore maps question index to the selected option text. Every index in
// [0, len(questions)) is present; nil means unattempted.
type AnswerStore struct {
	questions    []model.Question
	answers      map[int]*string
	lastActivity time.Time
}

// NewAnswerStore creates a store over questions, seeded with previously saved
// answers. Seeds that no longer match a question's options are dropped.
func NewAnswerStore(questions []model.Question, seed map[int]*string) *AnswerStore {
	s := &AnswerStore{
		questions: questions,
		answers:   make(map[int]*string, len(questions)),
	}
	for i := range questions {
		s.answers[i] = nil
		if v, ok := seed[i]; ok && v != nil && questions[i].HasOption(*v) {
			text := *v
			s.answers[i] = &text
		}
	}
	return s
}

// Select stores option as the answer to question index, replacing any previous
// answer. It reports whether the stored value changed.
func (s *AnswerStore) Select(index int, option string, at time.Time) (bool, error) {
	if index < 0 || index >= len(s.questions) {
		return false, fmt.Errorf("%w: %d", ErrQuestionIndex, index)
	}
	if !s.questions[index].HasOption(option) {
		return false, fmt.Errorf("%w: question %d", ErrUnknownOption, index)
	}

	s.lastActivity = at
	if prev := s.answers[index]; prev != nil && *prev == option {
		return false, nil
	}
	text := option
	s.answers[index] = &text
	return true, nil
}

// Answers returns a copy of the stored answers.
func (s *AnswerStore) Answers() map[int]*string {
	out := make(map[int]*string, len(s.answers))
	for k, v := range s.answers {
		if v != nil {
			text := *v
			out[k] = &text
		} else {
			out[k] = nil
		}
	}
	return out
}

// Progress counts answered and remaining questions.
func (s *AnswerStore) Progress() Progress {
	answered := 0
	for _, v := range s.answers {
		if v != nil {
			answered++
		}
	}
	total := len(s.questions)
	p := Progress{Answered: answered, Remaining: total - answered}
	if total > 0 {
		p.Percent = float64(answered) * 100 / float64(total)
	}
	return p
}

// LastActivity returns when the store was last mutated.
func (s *AnswerStore) LastActivity() time.Time { return s.lastActivity }
