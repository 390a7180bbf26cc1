package quiz

import (
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/quizdesk-backend/internal/model"
)

// ScoreResult is the output of Score.
type ScoreResult struct {
	CorrectAnswers int
	TotalQuestions int
	ObtainedMarks  int
	TotalMarks     int
	Percentage     float64
	Passed         bool
	Breakdown      []model.QuestionScore
}

// Score awards a question's full marks when the stored answer text equals the
// text of its correct option. There is no partial credit.
func Score(questions []model.Question, answers map[int]*string, passingPercentage float64) ScoreResult {
	res := ScoreResult{
		TotalQuestions: len(questions),
		Breakdown:      make([]model.QuestionScore, len(questions)),
	}

	for i := range questions {
		q := &questions[i]
		line := model.QuestionScore{
			Index:      i,
			QuestionID: q.ID,
			Selected:   answers[i],
			Marks:      q.Marks,
		}
		res.TotalMarks += q.Marks

		if correct, ok := q.CorrectOption(); ok && line.Selected != nil && *line.Selected == correct {
			line.Correct = true
			line.Awarded = q.Marks
			res.CorrectAnswers++
			res.ObtainedMarks += q.Marks
		}
		res.Breakdown[i] = line
	}

	res.Percentage = Percentage(res.ObtainedMarks, res.TotalMarks)
	res.Passed = res.Percentage >= passingPercentage
	return res
}

// Percentage returns obtained/total*100, or 0 when total is 0.
func Percentage(obtained, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(obtained) * 100 / float64(total)
}

// NewResult assembles the result of a scored attempt.
func NewResult(reg *model.Registration, sessionID uuid.UUID, score ScoreResult, auto bool, at time.Time) model.Result {
	return model.Result{
		ID:              uuid.New(),
		SessionID:       sessionID,
		RollNumber:      reg.RollNumber,
		Name:            reg.StudentName,
		Category:        reg.Category,
		CorrectAnswers:  score.CorrectAnswers,
		TotalQuestions:  score.TotalQuestions,
		ObtainedMarks:   score.ObtainedMarks,
		TotalMarks:      score.TotalMarks,
		Percentage:      score.Percentage,
		Passed:          score.Passed,
		IsAutoSubmitted: auto,
		SubmittedAt:     at,
		Breakdown:       score.Breakdown,
	}
}

// CheatedResult is the override used instead of scoring when a session ends
// for cheating: zero marks and failed, whatever was answered.
func CheatedResult(reg *model.Registration, sessionID uuid.UUID, questions []model.Question, reason string, at time.Time) model.Result {
	totalMarks := 0
	for _, q := range questions {
		totalMarks += q.Marks
	}
	return model.Result{
		ID:              uuid.New(),
		SessionID:       sessionID,
		RollNumber:      reg.RollNumber,
		Name:            reg.StudentName,
		Category:        reg.Category,
		TotalQuestions:  len(questions),
		TotalMarks:      totalMarks,
		IsAutoSubmitted: true,
		IsCheater:       true,
		CheatReason:     &reason,
		SubmittedAt:     at,
	}
}
