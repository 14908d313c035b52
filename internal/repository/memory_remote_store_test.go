package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRemoteStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRemoteStore()

	var got []map[string]string
	sub, err := store.Subscribe(ctx, UserPath("u1"), func(s map[string]string) {
		got = append(got, s)
	})
	require.NoError(t, err)
	assert.Empty(t, got, "no initial snapshot for an empty path")

	require.NoError(t, store.Write(ctx, KeyPath("u1", "progress"), "{}"))
	require.NoError(t, store.Write(ctx, KeyPath("u2", "progress"), "[]"))

	require.Len(t, got, 1)
	assert.Equal(t, map[string]string{"progress": "{}"}, got[0])

	val, found, err := store.Read(ctx, KeyPath("u2", "progress"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", val)

	require.NoError(t, sub.Close())
	require.NoError(t, store.Write(ctx, KeyPath("u1", "sessions"), "{}"))
	assert.Len(t, got, 1)
}

func TestMemoryRemoteStore_Offline(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRemoteStore()
	require.NoError(t, store.Write(ctx, KeyPath("u1", "settings"), "{}"))

	store.SetOffline(true)
	_, _, err := store.Read(ctx, KeyPath("u1", "settings"))
	assert.ErrorIs(t, err, ErrRemoteUnavailable)
	assert.ErrorIs(t, store.Write(ctx, KeyPath("u1", "settings"), "[]"), ErrRemoteUnavailable)
	_, err = store.Subscribe(ctx, UserPath("u1"), func(map[string]string) {})
	assert.ErrorIs(t, err, ErrRemoteUnavailable)

	store.SetOffline(false)
	val, _, err := store.Read(ctx, KeyPath("u1", "settings"))
	require.NoError(t, err)
	assert.Equal(t, "{}", val, "offline write was not applied")
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "users/malcolm", UserPath("malcolm"))
	assert.Equal(t, "users/malcolm/progress", KeyPath("malcolm", "progress"))

	parent, child := splitPath("users/malcolm/progress")
	assert.Equal(t, "users/malcolm", parent)
	assert.Equal(t, "progress", child)
}
