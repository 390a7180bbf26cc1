package validator

import (
	"testing"

	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func validQuestion() model.Question {
	return model.Question{
		Text:     "Capital of France?",
		Category: "geo",
		Marks:    5,
		Options: []model.Option{
			{Text: "Paris", IsCorrect: true},
			{Text: "Lyon"},
			{Text: "Nice"},
		},
	}
}

func kinds(vs []RuleViolation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Kind
	}
	return out
}

func TestValidateQuestion(t *testing.T) {
	cfg := model.DefaultQuizConfig()

	tests := []struct {
		name   string
		mutate func(q *model.Question)
		other  int
		cfg    func(c *model.QuizConfig)
		want   []string
	}{
		{name: "valid", mutate: func(q *model.Question) {}},
		{name: "blank text", mutate: func(q *model.Question) { q.Text = "  " }, want: []string{RuleTextRequired}},
		{name: "no category", mutate: func(q *model.Question) { q.Category = "" }, want: []string{RuleCategoryRequired}},
		{
			name:   "one option",
			mutate: func(q *model.Question) { q.Options = q.Options[:1] },
			want:   []string{RuleOptionCount},
		},
		{
			name:   "empty option text",
			mutate: func(q *model.Question) { q.Options[2].Text = "" },
			want:   []string{RuleOptionTextRequired},
		},
		{
			name:   "duplicate option text",
			mutate: func(q *model.Question) { q.Options[2].Text = "paris " },
			want:   []string{RuleDistinctOptions},
		},
		{
			name:   "no correct option",
			mutate: func(q *model.Question) { q.Options[0].IsCorrect = false },
			want:   []string{RuleSingleCorrect},
		},
		{
			name:   "two correct options",
			mutate: func(q *model.Question) { q.Options[1].IsCorrect = true },
			want:   []string{RuleSingleCorrect},
		},
		{name: "zero marks", mutate: func(q *model.Question) { q.Marks = 0 }, want: []string{RuleMarksRange}},
		{
			name:   "marks above configured maximum",
			mutate: func(q *model.Question) { q.Marks = 20 },
			cfg:    func(c *model.QuizConfig) { c.MaxMarksPerQuestion = 10 },
			want:   []string{RuleMarksRange},
		},
		{
			name:   "configured maximum capped at 100",
			mutate: func(q *model.Question) { q.Marks = 150 },
			cfg: func(c *model.QuizConfig) {
				c.MaxMarksPerQuestion = 500
				c.CategoryMarkQuota = 0
			},
			want: []string{RuleMarksRange},
		},
		{name: "quota exceeded", mutate: func(q *model.Question) {}, other: 96, want: []string{RuleCategoryQuota}},
		{name: "quota exactly reached", mutate: func(q *model.Question) {}, other: 95},
		{
			name:   "quota disabled",
			mutate: func(q *model.Question) {},
			other:  1000,
			cfg:    func(c *model.QuizConfig) { c.CategoryMarkQuota = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuestion()
			tt.mutate(&q)
			c := cfg
			if tt.cfg != nil {
				tt.cfg(&c)
			}

			got := ValidateQuestion(q, c, tt.other)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, kinds(got))
		})
	}
}

func TestValidateQuestionReportsEveryRule(t *testing.T) {
	got := ValidateQuestion(model.Question{}, model.DefaultQuizConfig(), 0)
	assert.ElementsMatch(t,
		[]string{RuleTextRequired, RuleCategoryRequired, RuleOptionCount, RuleSingleCorrect, RuleMarksRange},
		kinds(got),
	)
}
