package model

import "time"

// AppSetting represents a key-value pair for global application configuration.
type AppSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Keys of the quiz runtime settings stored in app_settings.
const (
	SettingQuizTime          = "quiz_time"
	SettingPassingPercentage = "passing_percentage"
	SettingTotalQuestions    = "total_questions"
	SettingMaxMarks          = "max_marks"
	SettingCategoryQuota     = "category_mark_quota"
)

// QuizConfig is the runtime configuration read by every session at start.
type QuizConfig struct {
	QuizDurationMinutes int     `json:"quiz_time" binding:"required,min=1,max=600"`
	PassingPercentage   float64 `json:"passing_percentage" binding:"min=0,max=100"`
	QuestionsPerQuiz    int     `json:"total_questions" binding:"required,min=1,max=500"`
	MaxMarksPerQuestion int     `json:"max_marks" binding:"required,min=1,max=100"`
	CategoryMarkQuota   int     `json:"category_mark_quota" binding:"min=0"`
}

// DefaultQuizConfig is used when neither the backend nor the cache can supply one.
func DefaultQuizConfig() QuizConfig {
	return QuizConfig{
		QuizDurationMinutes: 30,
		PassingPercentage:   40,
		QuestionsPerQuiz:    10,
		MaxMarksPerQuestion: 100,
		CategoryMarkQuota:   100,
	}
}
