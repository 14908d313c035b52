package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"regexp"
	"sync"
	"time"

	"practice_backend/internal/config"
	"practice_backend/internal/model"
	"practice_backend/internal/repository"
	"practice_backend/internal/util"
	"practice_backend/pkg/logger"

	"go.uber.org/zap"
)

var pinPattern = regexp.MustCompile(`^\d{4}$`)

type SettingsService struct {
	store repository.PersistentStore
	cfg   *config.Config
	mu    sync.Mutex
}

func NewSettingsService(store repository.PersistentStore, cfg *config.Config) *SettingsService {
	return &SettingsService{store: store, cfg: cfg}
}

// Get 缺少的字段使用默认值
func (s *SettingsService) Get(ctx context.Context) (model.Settings, error) {
	raw, err := s.store.Load(ctx, model.KeySettings)
	if err != nil {
		return model.Settings{}, err
	}
	settings := model.DefaultSettings()
	if len(raw) == 0 {
		return settings, nil
	}
	// 解码到默认值之上，旧版本缺少的字段保留默认
	if err := json.Unmarshal(raw, &settings); err != nil {
		logger.Log.Warn("Discarding malformed settings", zap.Error(err))
		return model.DefaultSettings(), nil
	}
	if settings.SessionMinutes < model.MinSessionMinutes || settings.SessionMinutes > model.MaxSessionMinutes {
		settings.SessionMinutes = model.DefaultSessionMinutes
	}
	if !pinPattern.MatchString(settings.ParentPin) {
		settings.ParentPin = model.DefaultParentPIN
	}
	return settings, nil
}

func (s *SettingsService) Update(ctx context.Context, patch model.SettingsPatch) (model.Settings, error) {
	if patch.SessionMinutes != nil &&
		(*patch.SessionMinutes < model.MinSessionMinutes || *patch.SessionMinutes > model.MaxSessionMinutes) {
		return model.Settings{}, util.ErrInvalidSetting
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.Get(ctx)
	if err != nil {
		return model.Settings{}, err
	}
	if patch.AudioEnabled != nil {
		settings.AudioEnabled = *patch.AudioEnabled
	}
	if patch.AutoReadEnabled != nil {
		settings.AutoReadEnabled = *patch.AutoReadEnabled
	}
	if patch.SoundEffectsEnabled != nil {
		settings.SoundEffectsEnabled = *patch.SoundEffectsEnabled
	}
	if patch.SuggestedModuleEnabled != nil {
		settings.SuggestedModuleEnabled = *patch.SuggestedModuleEnabled
	}
	if patch.SessionMinutes != nil {
		settings.SessionMinutes = *patch.SessionMinutes
	}

	if err := saveJSON(ctx, s.store, model.KeySettings, settings); err != nil {
		return model.Settings{}, err
	}
	return settings, nil
}

func (s *SettingsService) ChangeParentPIN(ctx context.Context, pin string) error {
	if !pinPattern.MatchString(pin) {
		return util.ErrInvalidPIN
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.Get(ctx)
	if err != nil {
		return err
	}
	settings.ParentPin = pin
	return saveJSON(ctx, s.store, model.KeySettings, settings)
}

// VerifyParentPIN 校验 PIN，成功后签发家长令牌
func (s *SettingsService) VerifyParentPIN(ctx context.Context, pin string) (string, time.Time, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return "", time.Time{}, err
	}
	if subtle.ConstantTimeCompare([]byte(pin), []byte(settings.ParentPin)) != 1 {
		return "", time.Time{}, util.ErrWrongPIN
	}

	expiresAt := time.Now().Add(s.cfg.JWT.ExpireTime)
	token, err := util.GenerateJWT(s.cfg.Learner.UserID, util.RoleParent, s.cfg.JWT.Secret, s.cfg.JWT.ExpireTime)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}
