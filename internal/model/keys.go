package model

// 本地存储和远端同步共用的逻辑键
const (
	KeyProgress     = "progress"
	KeySessions     = "sessions"
	KeySettings     = "settings"
	KeyWrongAnswers = "wrongAnswers"
	KeyHintUsages   = "hintUsages"
)

// TrackedKeys 参与同步的固定键集合，顺序即拉取/推送顺序
var TrackedKeys = []string{
	KeyProgress,
	KeySessions,
	KeySettings,
	KeyWrongAnswers,
	KeyHintUsages,
}

func IsTrackedKey(key string) bool {
	for _, k := range TrackedKeys {
		if k == key {
			return true
		}
	}
	return false
}
