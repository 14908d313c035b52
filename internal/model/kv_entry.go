package model

import "time"

// KVEntry 本地持久化存储中的一条原始 JSON 记录
type KVEntry struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (KVEntry) TableName() string {
	return "kv_entries"
}
