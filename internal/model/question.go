package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// QuestionID 题库中的 id 可能是字符串也可能是数字，统一按字符串处理
type QuestionID string

func (id *QuestionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = QuestionID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = QuestionID(n.String())
	return nil
}

func QuestionIDFromInt(n int) QuestionID {
	return QuestionID(strconv.Itoa(n))
}

type Question struct {
	ID       QuestionID      `json:"id"`
	Level    int             `json:"level"`
	Type     string          `json:"type,omitempty"`
	Question string          `json:"question"`
	Passage  string          `json:"passage,omitempty"`
	Options  []string        `json:"options,omitempty"`
	Answer   string          `json:"answer,omitempty"`
	Hint     string          `json:"hint,omitempty"`
	Visual   json.RawMessage `json:"visual,omitempty"`
}
