package repository

import (
	"context"
	"encoding/json"
	"time"

	"practice_backend/internal/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PersistentStore 设备本地的持久化 KV 存储，值为原始 JSON
type PersistentStore interface {
	// Load 键不存在时返回 nil, nil
	Load(ctx context.Context, key string) (json.RawMessage, error)
	Save(ctx context.Context, key string, value json.RawMessage) error
	Clear(ctx context.Context, key string) error
}

type GormLocalStore struct {
	DB *gorm.DB
}

func NewGormLocalStore(db *gorm.DB) *GormLocalStore {
	return &GormLocalStore{DB: db}
}

func (s *GormLocalStore) Load(ctx context.Context, key string) (json.RawMessage, error) {
	var entry model.KVEntry
	err := s.DB.WithContext(ctx).Where("`key` = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", key)
	}
	return json.RawMessage(entry.Value), nil
}

func (s *GormLocalStore) Save(ctx context.Context, key string, value json.RawMessage) error {
	if !json.Valid(value) {
		return errors.Errorf("refusing to save invalid JSON under %s", key)
	}
	entry := model.KVEntry{
		Key:       key,
		Value:     string(value),
		UpdatedAt: time.Now(),
	}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	return errors.Wrapf(err, "failed to save %s", key)
}

func (s *GormLocalStore) Clear(ctx context.Context, key string) error {
	err := s.DB.WithContext(ctx).Where("`key` = ?", key).Delete(&model.KVEntry{}).Error
	return errors.Wrapf(err, "failed to clear %s", key)
}
