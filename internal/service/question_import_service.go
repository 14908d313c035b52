package service

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"practice_backend/internal/model"
	"practice_backend/internal/repository"
	"practice_backend/internal/util"
	"practice_backend/pkg/logger"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// 选项列用 | 分隔
const optionSeparator = "|"

// ImportResult 一次导入的统计
type ImportResult struct {
	Subject   string   `json:"subject"`
	ModuleID  string   `json:"moduleId"`
	Processed int      `json:"processed"`
	Created   int      `json:"created"`
	Updated   int      `json:"updated"`
	Skipped   int      `json:"skipped"`
	Total     int      `json:"total"`
	Errors    []string `json:"errors"`
}

// QuestionImportService 把表格中的题目合并进 JSON 题库。
// 第一行是表头，按列名识别：id, level, type, question, options, answer, hint, passage
type QuestionImportService struct {
	banks *repository.QuestionBankRepository
}

func NewQuestionImportService(banks *repository.QuestionBankRepository) *QuestionImportService {
	return &QuestionImportService{banks: banks}
}

func (s *QuestionImportService) ImportFile(path, subject, moduleID, sheet string) (*ImportResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()
	return s.importWorkbook(f, subject, moduleID, sheet)
}

func (s *QuestionImportService) ImportReader(r io.Reader, subject, moduleID, sheet string) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open Excel file")
	}
	defer f.Close()
	return s.importWorkbook(f, subject, moduleID, sheet)
}

func (s *QuestionImportService) importWorkbook(f *excelize.File, subject, moduleID, sheet string) (*ImportResult, error) {
	mod, ok := model.GetModule(subject, moduleID)
	if !ok {
		return nil, util.ErrModuleNotFound
	}
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get rows of %s", sheet)
	}
	if len(rows) == 0 {
		return nil, util.ErrQuestionBankNotFound
	}

	columns := make(map[string]int)
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["question"]; !ok {
		return nil, fmt.Errorf("sheet %s has no question column", sheet)
	}

	existing, err := s.banks.Load(subject, moduleID)
	if err != nil {
		return nil, err
	}
	index := make(map[model.QuestionID]int, len(existing))
	for i, q := range existing {
		index[q.ID] = i
	}

	result := &ImportResult{Subject: subject, ModuleID: moduleID, Errors: []string{}}
	for i, row := range rows[1:] {
		rowNum := i + 2
		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		if cell("question") == "" && cell("id") == "" {
			continue
		}
		result.Processed++

		q, err := parseQuestionRow(cell, mod.MaxLevel)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}

		if pos, ok := index[q.ID]; ok {
			existing[pos] = q
			result.Updated++
		} else {
			index[q.ID] = len(existing)
			existing = append(existing, q)
			result.Created++
		}
	}

	if err := s.banks.Save(subject, moduleID, existing); err != nil {
		return nil, err
	}
	result.Total = len(existing)

	logger.Log.Info("Question bank imported",
		zap.String("subject", subject),
		zap.String("module", moduleID),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

func parseQuestionRow(cell func(string) string, maxLevel int) (model.Question, error) {
	id := cell("id")
	if id == "" {
		return model.Question{}, errors.New("missing id")
	}
	text := cell("question")
	if text == "" {
		return model.Question{}, errors.New("missing question text")
	}
	level, err := strconv.Atoi(cell("level"))
	if err != nil || level < 1 || level > maxLevel {
		return model.Question{}, fmt.Errorf("level must be between 1 and %d", maxLevel)
	}

	var options []string
	if raw := cell("options"); raw != "" {
		for _, opt := range strings.Split(raw, optionSeparator) {
			if opt = strings.TrimSpace(opt); opt != "" {
				options = append(options, opt)
			}
		}
	}
	answer := cell("answer")
	if len(options) > 0 && answer != "" {
		found := false
		for _, opt := range options {
			if opt == answer {
				found = true
				break
			}
		}
		if !found {
			return model.Question{}, fmt.Errorf("answer %q is not one of the options", answer)
		}
	}

	qtype := cell("type")
	if qtype == "" {
		qtype = "multiple-choice"
	}

	return model.Question{
		ID:       model.QuestionID(id),
		Level:    level,
		Type:     qtype,
		Question: text,
		Passage:  cell("passage"),
		Options:  options,
		Answer:   answer,
		Hint:     cell("hint"),
	}, nil
}
