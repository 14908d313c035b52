package service

import (
	"bytes"
	"encoding/json"
	"reflect"

	"practice_backend/internal/model"
)

// 远端只保存整段 JSON 文本，避免结构化存储把空数组或稀疏数组变成对象

// EncodeRemoteValue 把本地 JSON 压缩成单个文本值
func EncodeRemoteValue(value json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, value); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// DecodeRemoteValue 校验远端文本能解析成该键对应的类型，不能解析时视为不存在
func DecodeRemoteValue(key, text string) (json.RawMessage, bool) {
	if text == "" {
		return nil, false
	}
	raw := json.RawMessage(text)
	if !json.Valid(raw) || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	target := newKeyValue(key)
	if target == nil {
		return nil, false
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, false
	}
	return raw, true
}

func newKeyValue(key string) any {
	switch key {
	case model.KeyProgress:
		return &model.ProgressMap{}
	case model.KeySessions:
		return &model.SessionLog{}
	case model.KeySettings:
		return &model.Settings{}
	case model.KeyWrongAnswers:
		return &[]model.WrongAnswerRecord{}
	case model.KeyHintUsages:
		return &[]model.HintUsageRecord{}
	}
	return nil
}

// JSONEqual 按值比较两段 JSON，忽略键顺序和空白
func JSONEqual(a, b json.RawMessage) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	var va, vb any
	if err := json.Unmarshal(a, &va); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &vb); err != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}

// sessionTotal 读取 sessions.totalSessions，无法解析时为 0
func sessionTotal(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var log model.SessionLog
	if err := json.Unmarshal(raw, &log); err != nil {
		return 0
	}
	return log.TotalSessions
}
