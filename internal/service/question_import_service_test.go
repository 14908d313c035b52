package service

import (
	"bytes"
	"path/filepath"
	"testing"

	"practice_backend/internal/model"
	"practice_backend/internal/repository"
	"practice_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	return f
}

func TestQuestionImportService_ImportFile(t *testing.T) {
	dir := t.TempDir()
	banks := repository.NewQuestionBankRepository(filepath.Join(dir, "questions"))
	require.NoError(t, banks.Save("math", "money", []model.Question{
		{ID: "m1", Level: 1, Question: "old text"},
		{ID: "m9", Level: 2, Question: "kept"},
	}))

	f := writeWorkbook(t, [][]interface{}{
		{"ID", "Level", "Question", "Options", "Answer", "Hint"},
		{"m1", 1, "How much is a quarter?", "25¢|10¢|5¢", "25¢", "Look at the coin"},
		{"m2", 3, "Add $1 and $2", "$3|$4", "$3", ""},
		{"m3", 11, "Too hard", "", "", ""},
		{"m4", 2, "Wrong answer", "a|b", "c", ""},
		{"", "", "", "", "", ""},
	})
	path := filepath.Join(dir, "money.xlsx")
	require.NoError(t, f.SaveAs(path))

	svc := NewQuestionImportService(banks)
	res, err := svc.ImportFile(path, "math", "money", "")
	require.NoError(t, err)

	assert.Equal(t, 4, res.Processed)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 3, res.Total)
	assert.Len(t, res.Errors, 2)

	bank, err := banks.Load("math", "money")
	require.NoError(t, err)
	require.Len(t, bank, 3)
	assert.Equal(t, "How much is a quarter?", bank[0].Question)
	assert.Equal(t, []string{"25¢", "10¢", "5¢"}, bank[0].Options)
	assert.Equal(t, "multiple-choice", bank[0].Type)
	assert.Equal(t, "kept", bank[1].Question)
	assert.Equal(t, model.QuestionID("m2"), bank[2].ID)
	assert.Equal(t, 3, bank[2].Level)
}

func TestQuestionImportService_ImportReader(t *testing.T) {
	banks := repository.NewQuestionBankRepository(t.TempDir())
	svc := NewQuestionImportService(banks)

	f := writeWorkbook(t, [][]interface{}{
		{"id", "level", "type", "question", "passage", "options", "answer"},
		{"r1", 2, "reading", "Where does Sam work?", "Sam works at a hotel.", "hotel|bank", "hotel"},
	})
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	data := buf.Bytes()

	res, err := svc.ImportReader(bytes.NewReader(data), "english", "readingComprehension", "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)

	bank, err := banks.Load("english", "readingComprehension")
	require.NoError(t, err)
	require.Len(t, bank, 1)
	assert.Equal(t, "reading", bank[0].Type)
	assert.Equal(t, "Sam works at a hotel.", bank[0].Passage)

	_, err = svc.ImportReader(bytes.NewReader(data), "english", "spelling", "")
	assert.Error(t, err)
}

func TestQuestionImportService_Errors(t *testing.T) {
	svc := NewQuestionImportService(repository.NewQuestionBankRepository(t.TempDir()))

	f := writeWorkbook(t, [][]interface{}{{"id", "level"}, {"x", 1}})
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)

	_, err = svc.ImportReader(bytes.NewReader(buf.Bytes()), "math", "money", "")
	assert.Error(t, err, "question column is required")

	_, err = svc.ImportReader(bytes.NewReader(buf.Bytes()), "math", "nope", "")
	assert.ErrorIs(t, err, util.ErrModuleNotFound)

	_, err = svc.ImportReader(bytes.NewReader([]byte("not a zip")), "math", "money", "")
	assert.Error(t, err)
}
