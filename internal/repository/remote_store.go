package repository

import (
	"context"
	"strings"
)

// RemoteStore 按固定用户路径寻址的共享 KV 存储，值总是文本
type RemoteStore interface {
	Write(ctx context.Context, path, value string) error
	Read(ctx context.Context, path string) (value string, found bool, err error)
	// Subscribe 在 path 下任意子键变化时回调 path 下的完整快照 (子键 -> 文本值)
	Subscribe(ctx context.Context, path string, onChange func(snapshot map[string]string)) (Subscription, error)
}

type Subscription interface {
	Close() error
}

// UserPath 返回 users/<userID>
func UserPath(userID string) string {
	return "users/" + userID
}

// KeyPath 返回 users/<userID>/<key>
func KeyPath(userID, key string) string {
	return UserPath(userID) + "/" + key
}

// splitPath 把 users/<id>/<key> 拆成父路径和子键
func splitPath(path string) (parent, child string) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}
