package service

import (
	"testing"

	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestParseQuizConfig(t *testing.T) {
	t.Run("empty uses defaults", func(t *testing.T) {
		assert.Equal(t, model.DefaultQuizConfig(), ParseQuizConfig(nil))
	})

	t.Run("stored values", func(t *testing.T) {
		cfg := ParseQuizConfig(map[string]string{
			model.SettingQuizTime:          "45",
			model.SettingPassingPercentage: "62.5",
			model.SettingTotalQuestions:    "20",
			model.SettingMaxMarks:          "5",
			model.SettingCategoryQuota:     "0",
		})
		assert.Equal(t, model.QuizConfig{
			QuizDurationMinutes: 45,
			PassingPercentage:   62.5,
			QuestionsPerQuiz:    20,
			MaxMarksPerQuestion: 5,
			CategoryMarkQuota:   0,
		}, cfg)
	})

	t.Run("invalid values fall back", func(t *testing.T) {
		cfg := ParseQuizConfig(map[string]string{
			model.SettingQuizTime:          "-3",
			model.SettingPassingPercentage: "140",
			model.SettingTotalQuestions:    "many",
		})
		def := model.DefaultQuizConfig()
		assert.Equal(t, def.QuizDurationMinutes, cfg.QuizDurationMinutes)
		assert.Equal(t, def.PassingPercentage, cfg.PassingPercentage)
		assert.Equal(t, def.QuestionsPerQuiz, cfg.QuestionsPerQuiz)
	})
}

func TestFormatQuizConfigRoundTrip(t *testing.T) {
	cfg := model.QuizConfig{
		QuizDurationMinutes: 15,
		PassingPercentage:   33.5,
		QuestionsPerQuiz:    8,
		MaxMarksPerQuestion: 4,
		CategoryMarkQuota:   50,
	}
	assert.Equal(t, cfg, ParseQuizConfig(FormatQuizConfig(cfg)))
}
