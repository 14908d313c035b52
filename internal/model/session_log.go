package model

// MaxLogEntries 会话日志、错题和提示记录都只保留最近 100 条
const MaxLogEntries = 100

type SessionEntry struct {
	Date    string `json:"date"`
	Subject string `json:"subject"`
	Module  string `json:"module"`
}

// SessionLog 的 TotalSessions 是同步时判断哪一端更新的唯一依据
type SessionLog struct {
	Streak          int            `json:"streak"`
	LastSessionDate *string        `json:"lastSessionDate"`
	TotalSessions   int            `json:"totalSessions"`
	Log             []SessionEntry `json:"log"`
}

func DefaultSessionLog() SessionLog {
	return SessionLog{Log: []SessionEntry{}}
}
