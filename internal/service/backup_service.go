package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"practice_backend/internal/model"
	"practice_backend/internal/repository"
	"practice_backend/internal/util"
	"practice_backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const backupPrefix = "backups/"

type BackupService struct {
	store    repository.PersistentStore
	provider StorageProvider
	userID   string
	Now      func() time.Time
}

func NewBackupService(store repository.PersistentStore, provider StorageProvider, userID string) *BackupService {
	return &BackupService{store: store, provider: provider, userID: userID, Now: time.Now}
}

// Snapshot 导出所有同步键的本地值，不存在的键不出现在结果里
func (s *BackupService) Snapshot(ctx context.Context) (*model.Snapshot, error) {
	snap := &model.Snapshot{
		UserID:    s.userID,
		CreatedAt: s.Now().UTC(),
		Data:      make(map[string]json.RawMessage, len(model.TrackedKeys)),
	}
	for _, key := range model.TrackedKeys {
		raw, err := s.store.Load(ctx, key)
		if err != nil {
			return nil, errors.Wrapf(err, "snapshot %s", key)
		}
		if raw != nil {
			snap.Data[key] = raw
		}
	}
	return snap, nil
}

// Backup 上传一份快照，返回对象名
func (s *BackupService) Backup(ctx context.Context) (string, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return "", err
	}

	name := backupPrefix + s.userID + "/" + snap.CreatedAt.Format("20060102T150405Z") + "-" + uuid.NewString()[:8] + ".json"
	if err := s.provider.Upload(ctx, name, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return "", errors.Wrap(err, "upload backup")
	}

	logger.Log.Info("Backup uploaded", zap.String("name", name), zap.Int("bytes", len(data)))
	return name, nil
}

func (s *BackupService) List(ctx context.Context) ([]string, error) {
	return s.provider.List(ctx, backupPrefix+s.userID+"/")
}

// Restore 把备份中的每个键写回本地 (经由同步引擎时会镜像到远端)
func (s *BackupService) Restore(ctx context.Context, name string) error {
	if !strings.HasPrefix(name, backupPrefix) {
		return util.ErrBackupNotFound
	}
	// 只能恢复本学习者目录下的备份
	if !strings.HasPrefix(name, backupPrefix+s.userID+"/") || strings.Contains(name, "..") {
		return errors.Wrap(util.ErrPermissionDenied, name)
	}
	rc, err := s.provider.Download(ctx, name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return util.ErrBackupNotFound
		}
		return errors.Wrap(err, "download backup")
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return err
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return errors.Wrap(err, "parse backup")
	}

	for _, key := range model.TrackedKeys {
		raw, ok := snap.Data[key]
		if !ok {
			continue
		}
		if _, valid := DecodeRemoteValue(key, string(raw)); !valid {
			logger.Log.Warn("Skipping malformed key in backup", zap.String("key", key))
			continue
		}
		if err := s.store.Save(ctx, key, raw); err != nil {
			return err
		}
	}
	logger.Log.Info("Backup restored", zap.String("name", name))
	return nil
}
