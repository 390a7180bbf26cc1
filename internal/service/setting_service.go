package service

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/stemsi/quizdesk-backend/internal/model"
	"github.com/stemsi/quizdesk-backend/internal/repository"
)

type SettingService struct {
	settingRepo *repository.SettingRepository
	log         zerolog.Logger
}

func NewSettingService(settingRepo *repository.SettingRepository, log zerolog.Logger) *SettingService {
	return &SettingService{
		settingRepo: settingRepo,
		log:         log.With().Str("component", "setting_service").Logger(),
	}
}

func (s *SettingService) GetAllSettings(ctx context.Context) (map[string]string, error) {
	settingsList, err := s.settingRepo.GetAll(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get all settings")
		return nil, err
	}

	settingsMap := make(map[string]string)
	for _, setting := range settingsList {
		settingsMap[setting.Key] = setting.Value
	}
	return settingsMap, nil
}

func (s *SettingService) UpdateSettings(ctx context.Context, settingsMap map[string]string) error {
	if err := s.settingRepo.UpsertMany(ctx, settingsMap); err != nil {
		s.log.Error().Err(err).Msg("failed to update settings")
		return err
	}
	return nil
}

// QuizConfig reads the quiz runtime configuration. Missing or unparsable
// settings take their default value.
func (s *SettingService) QuizConfig(ctx context.Context) (*model.QuizConfig, error) {
	settings, err := s.GetAllSettings(ctx)
	if err != nil {
		return nil, err
	}
	cfg := ParseQuizConfig(settings)
	return &cfg, nil
}

// UpdateQuizConfig stores every field of cfg.
func (s *SettingService) UpdateQuizConfig(ctx context.Context, cfg model.QuizConfig) error {
	return s.UpdateSettings(ctx, FormatQuizConfig(cfg))
}

// ParseQuizConfig builds a QuizConfig from app_settings values.
func ParseQuizConfig(settings map[string]string) model.QuizConfig {
	cfg := model.DefaultQuizConfig()

	positive := func(key string, dst *int) {
		if n, err := strconv.Atoi(settings[key]); err == nil && n > 0 {
			*dst = n
		}
	}
	positive(model.SettingQuizTime, &cfg.QuizDurationMinutes)
	positive(model.SettingTotalQuestions, &cfg.QuestionsPerQuiz)
	positive(model.SettingMaxMarks, &cfg.MaxMarksPerQuestion)

	if n, err := strconv.Atoi(settings[model.SettingCategoryQuota]); err == nil && n >= 0 {
		cfg.CategoryMarkQuota = n
	}
	if f, err := strconv.ParseFloat(settings[model.SettingPassingPercentage], 64); err == nil && f >= 0 && f <= 100 {
		cfg.PassingPercentage = f
	}
	return cfg
}

// FormatQuizConfig is the inverse of ParseQuizConfig.
func FormatQuizConfig(cfg model.QuizConfig) map[string]string {
	return map[string]string{
		model.SettingQuizTime:          strconv.Itoa(cfg.QuizDurationMinutes),
		model.SettingPassingPercentage: strconv.FormatFloat(cfg.PassingPercentage, 'f', -1, 64),
		model.SettingTotalQuestions:    strconv.Itoa(cfg.QuestionsPerQuiz),
		model.SettingMaxMarks:          strconv.Itoa(cfg.MaxMarksPerQuestion),
		model.SettingCategoryQuota:     strconv.Itoa(cfg.CategoryMarkQuota),
	}
}
