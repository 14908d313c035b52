package repository

import (
	"encoding/json"
	"os"
	"path/filepath"

	"practice_backend/internal/model"

	"github.com/pkg/errors"
)

// QuestionBankRepository 从 <dir>/<subject>/<moduleId>.json 读取题库
type QuestionBankRepository struct {
	Dir string
}

func NewQuestionBankRepository(dir string) *QuestionBankRepository {
	return &QuestionBankRepository{Dir: dir}
}

func (r *QuestionBankRepository) bankPath(subject, moduleID string) string {
	return filepath.Join(r.Dir, subject, moduleID+".json")
}

// Load 题库文件不存在时返回空列表
func (r *QuestionBankRepository) Load(subject, moduleID string) ([]model.Question, error) {
	data, err := os.ReadFile(r.bankPath(subject, moduleID))
	if os.IsNotExist(err) {
		return []model.Question{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read question bank %s/%s", subject, moduleID)
	}

	var questions []model.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, errors.Wrapf(err, "parse question bank %s/%s", subject, moduleID)
	}
	return questions, nil
}

func (r *QuestionBankRepository) Save(subject, moduleID string, questions []model.Question) error {
	path := r.bankPath(subject, moduleID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create question bank dir")
	}
	data, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode question bank")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "write question bank %s/%s", subject, moduleID)
}
