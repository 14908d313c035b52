package service

import (
	"context"
	"encoding/json"

	"practice_backend/internal/repository"
	"practice_backend/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// loadJSON 键不存在或内容损坏时返回 def，只有存储本身出错时才返回 error
func loadJSON[T any](ctx context.Context, store repository.PersistentStore, key string, def func() T) (T, error) {
	raw, err := store.Load(ctx, key)
	if err != nil {
		var zero T
		return zero, err
	}
	if len(raw) == 0 {
		return def(), nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		logger.Log.Warn("Discarding malformed local value", zap.String("key", key), zap.Error(err))
		return def(), nil
	}
	return v, nil
}

func saveJSON(ctx context.Context, store repository.PersistentStore, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return store.Save(ctx, key, data)
}

// lastN 保留切片末尾最多 n 个元素
func lastN[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	out := make([]T, n)
	copy(out, s[len(s)-n:])
	return out
}
