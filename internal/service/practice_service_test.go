package service

import (
	"context"
	"encoding/json"
	"testing"

	"practice_backend/internal/model"
	"practice_backend/internal/repository"
	"practice_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPracticeService_SelectSessionQuestions(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	banks := repository.NewQuestionBankRepository(t.TempDir())
	require.NoError(t, banks.Save("math", "money", buildBank(10, 4)))
	require.NoError(t, store.Save(ctx, model.KeySettings, json.RawMessage(`{"sessionMinutes":15}`)))
	require.NoError(t, store.Save(ctx, model.KeyProgress, json.RawMessage(`{"math":{"money":{"currentLevel":3,"history":[]}}}`)))

	progress, _ := newTestProgressService(store)
	svc := NewPracticeService(banks, seededComposer(2, 40), progress, NewSettingsService(store, testConfig()))

	session, err := svc.SelectSessionQuestions(ctx, "math", "money")
	require.NoError(t, err)

	assert.Equal(t, 3, session.CurrentLevel)
	assert.Equal(t, 10, session.MaxLevel)
	assert.Equal(t, 15, session.Minutes)
	assert.Len(t, session.Questions, 23)
	for _, q := range session.Questions[:2] {
		assert.LessOrEqual(t, q.Level, 2)
	}

	t.Run("missing bank gives empty session", func(t *testing.T) {
		session, err := svc.SelectSessionQuestions(ctx, "life", "workSkills")
		require.NoError(t, err)
		assert.Empty(t, session.Questions)
	})

	t.Run("unknown module", func(t *testing.T) {
		_, err := svc.SelectSessionQuestions(ctx, "math", "calculus")
		assert.ErrorIs(t, err, util.ErrModuleNotFound)
	})
}
