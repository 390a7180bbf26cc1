package quiz

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tenQuestions returns ten one-mark questions whose correct option is "right".
func tenQuestions() []model.Question {
	qs := make([]model.Question, 10)
	for i := range qs {
		qs[i] = model.Question{
			ID:       uuid.New(),
			Text:     fmt.Sprintf("Question %d", i+1),
			Category: "general",
			Marks:    1,
			Options:  []model.Option{{Text: "right", IsCorrect: true}, {Text: "wrong"}},
		}
	}
	return qs
}

func TestScoreScenarios(t *testing.T) {
	tests := []struct {
		name    string
		correct int
		wrong   int
		percent float64
		passed  bool
	}{
		{name: "three correct seven unattempted", correct: 3, percent: 30, passed: false},
		{name: "five correct", correct: 5, percent: 50, passed: true},
		{name: "exactly at threshold", correct: 4, wrong: 6, percent: 40, passed: true},
		{name: "nothing answered", percent: 0, passed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answers := make(map[int]*string)
			for i := 0; i < 10; i++ {
				switch {
				case i < tt.correct:
					answers[i] = strPtr("right")
				case i < tt.correct+tt.wrong:
					answers[i] = strPtr("wrong")
				default:
					answers[i] = nil
				}
			}

			res := Score(tenQuestions(), answers, 40)
			assert.Equal(t, tt.correct, res.CorrectAnswers)
			assert.Equal(t, tt.correct, res.ObtainedMarks)
			assert.Equal(t, 10, res.TotalMarks)
			assert.InDelta(t, tt.percent, res.Percentage, 1e-9)
			assert.Equal(t, tt.passed, res.Passed)
		})
	}
}

func TestScoreMatchesByText(t *testing.T) {
	qs := capitalQuestions()
	answers := map[int]*string{0: strPtr("Paris"), 1: nil}

	res := Score(qs, answers, 40)
	assert.Equal(t, 1, res.CorrectAnswers)
	assert.Equal(t, qs[0].Marks, res.ObtainedMarks)
	assert.Equal(t, 3, res.TotalMarks)

	store := NewAnswerStore(qs, answers)
	assert.Equal(t, 1, store.Progress().Answered)
}

func TestScoreBreakdownSums(t *testing.T) {
	qs := capitalQuestions()
	res := Score(qs, map[int]*string{0: strPtr("Paris"), 1: strPtr("Tokyo")}, 50)

	sum := 0
	for _, line := range res.Breakdown {
		sum += line.Awarded
	}
	assert.Equal(t, res.ObtainedMarks, sum)
	assert.InDelta(t, float64(res.ObtainedMarks)/float64(res.TotalMarks)*100, res.Percentage, 1e-9)
	assert.True(t, res.Passed)
}

func TestPercentageZeroTotal(t *testing.T) {
	assert.Zero(t, Percentage(0, 0))
	res := Score(nil, nil, 40)
	assert.Zero(t, res.Percentage)
	assert.False(t, res.Passed)
}

func TestCheatedResult(t *testing.T) {
	reg := &model.Registration{StudentName: "Ana", RollNumber: "R-1", Category: "geo"}
	res := CheatedResult(reg, uuid.New(), capitalQuestions(), ReasonViolations, time.Now())

	assert.True(t, res.IsCheater)
	assert.False(t, res.Passed)
	assert.Zero(t, res.ObtainedMarks)
	assert.Zero(t, res.CorrectAnswers)
	assert.Zero(t, res.Percentage)
	assert.Equal(t, 3, res.TotalMarks)
	require.NotNil(t, res.CheatReason)
	assert.Equal(t, ReasonViolations, *res.CheatReason)
}
