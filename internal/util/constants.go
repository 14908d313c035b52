package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
)

const (
	SyncBackendRedis  = "redis"
	SyncBackendMemory = "memory"
)

// RoleParent 家长令牌的角色
const RoleParent = "parent"
