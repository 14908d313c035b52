package service

import (
	"context"

	"practice_backend/internal/model"
	"practice_backend/internal/repository"
	"practice_backend/internal/util"
	"practice_backend/pkg/logger"

	"go.uber.org/zap"
)

type PracticeService struct {
	banks    *repository.QuestionBankRepository
	composer *SessionComposer
	progress *ProgressService
	settings *SettingsService
}

func NewPracticeService(banks *repository.QuestionBankRepository, composer *SessionComposer, progress *ProgressService, settings *SettingsService) *PracticeService {
	return &PracticeService{banks: banks, composer: composer, progress: progress, settings: settings}
}

type PracticeSession struct {
	Subject      string           `json:"subject"`
	ModuleID     string           `json:"moduleId"`
	CurrentLevel int              `json:"currentLevel"`
	MaxLevel     int              `json:"maxLevel"`
	Minutes      int              `json:"minutes"`
	Questions    []model.Question `json:"questions"`
}

// SelectSessionQuestions 按学习者当前等级和设置的练习时长组一套题
func (s *PracticeService) SelectSessionQuestions(ctx context.Context, subject, moduleID string) (*PracticeSession, error) {
	mod, ok := model.GetModule(subject, moduleID)
	if !ok {
		return nil, util.ErrModuleNotFound
	}

	progress, err := s.progress.GetModuleProgress(ctx, subject, moduleID)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	bank, err := s.banks.Load(subject, moduleID)
	if err != nil {
		return nil, err
	}
	if len(bank) == 0 {
		logger.Log.Warn("Question bank is empty", zap.String("subject", subject), zap.String("module", moduleID))
	}

	questions := s.composer.SelectSessionQuestions(bank, progress.CurrentLevel, mod.MaxLevel, settings.SessionMinutes)

	return &PracticeSession{
		Subject:      subject,
		ModuleID:     moduleID,
		CurrentLevel: progress.CurrentLevel,
		MaxLevel:     mod.MaxLevel,
		Minutes:      settings.SessionMinutes,
		Questions:    questions,
	}, nil
}
