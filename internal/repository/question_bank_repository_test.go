package repository

import (
	"os"
	"path/filepath"
	"testing"

	"practice_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionBankRepository(t *testing.T) {
	dir := t.TempDir()
	repo := NewQuestionBankRepository(dir)

	bank, err := repo.Load("math", "money")
	require.NoError(t, err)
	assert.Empty(t, bank)
	assert.NotNil(t, bank)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "english"), 0755))
	// 题号可以是数字也可以是字符串
	require.NoError(t, os.WriteFile(filepath.Join(dir, "english", "pronouns.json"), []byte(`[
		{"id": 7, "level": 1, "question": "___ am happy", "options": ["I", "Me"], "answer": "I"},
		{"id": "p-2", "level": 2, "question": "___ is tall"}
	]`), 0644))

	bank, err = repo.Load("english", "pronouns")
	require.NoError(t, err)
	require.Len(t, bank, 2)
	assert.Equal(t, model.QuestionID("7"), bank[0].ID)
	assert.Equal(t, model.QuestionID("p-2"), bank[1].ID)

	require.NoError(t, repo.Save("life", "workSkills", []model.Question{{ID: "w1", Level: 3, Question: "Fold the towel"}}))
	bank, err = repo.Load("life", "workSkills")
	require.NoError(t, err)
	require.Len(t, bank, 1)
	assert.Equal(t, 3, bank[0].Level)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "english", "broken.json"), []byte(`{`), 0644))
	_, err = repo.Load("english", "broken")
	assert.Error(t, err)
}
