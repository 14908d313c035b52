package repository

import (
	"context"
	"encoding/json"
	"testing"

	"practice_backend/internal/config"
	"practice_backend/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalStore(t *testing.T) *GormLocalStore {
	t.Helper()
	db, err := database.InitDB(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewGormLocalStore(db)
}

func TestGormLocalStore(t *testing.T) {
	ctx := context.Background()
	store := newTestLocalStore(t)

	raw, err := store.Load(ctx, "progress")
	require.NoError(t, err)
	assert.Nil(t, raw, "absent key")

	require.NoError(t, store.Save(ctx, "progress", json.RawMessage(`{"math":{}}`)))
	raw, err = store.Load(ctx, "progress")
	require.NoError(t, err)
	assert.JSONEq(t, `{"math":{}}`, string(raw))

	// 覆盖写
	require.NoError(t, store.Save(ctx, "progress", json.RawMessage(`{"english":{}}`)))
	raw, err = store.Load(ctx, "progress")
	require.NoError(t, err)
	assert.JSONEq(t, `{"english":{}}`, string(raw))

	require.NoError(t, store.Save(ctx, "hintUsages", json.RawMessage(`[]`)))
	raw, err = store.Load(ctx, "hintUsages")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))

	require.NoError(t, store.Clear(ctx, "progress"))
	raw, err = store.Load(ctx, "progress")
	require.NoError(t, err)
	assert.Nil(t, raw)

	require.NoError(t, store.Clear(ctx, "never-written"))
}

func TestGormLocalStore_RejectsInvalidJSON(t *testing.T) {
	store := newTestLocalStore(t)

	err := store.Save(context.Background(), "settings", json.RawMessage(`{broken`))
	assert.Error(t, err)
}
