package repository

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ErrRemoteUnavailable MemoryRemoteStore 被设置为离线时返回
var ErrRemoteUnavailable = errors.New("remote store unavailable")

// MemoryRemoteStore 进程内的远端存储，多个设备 (多个同步引擎) 可以共享同一个实例
type MemoryRemoteStore struct {
	mu      sync.Mutex
	data    map[string]map[string]string
	subs    map[string]map[int]func(map[string]string)
	nextID  int
	offline bool
}

func NewMemoryRemoteStore() *MemoryRemoteStore {
	return &MemoryRemoteStore{
		data: make(map[string]map[string]string),
		subs: make(map[string]map[int]func(map[string]string)),
	}
}

// SetOffline 模拟网络不可达
func (s *MemoryRemoteStore) SetOffline(offline bool) {
	s.mu.Lock()
	s.offline = offline
	s.mu.Unlock()
}

func (s *MemoryRemoteStore) Write(ctx context.Context, path, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	parent, child := splitPath(path)

	s.mu.Lock()
	if s.offline {
		s.mu.Unlock()
		return ErrRemoteUnavailable
	}
	if s.data[parent] == nil {
		s.data[parent] = make(map[string]string)
	}
	s.data[parent][child] = value
	snapshot := s.snapshotLocked(parent)
	listeners := make([]func(map[string]string), 0, len(s.subs[parent]))
	for _, fn := range s.subs[parent] {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	// 回调在锁外执行，监听者可以在回调里再写入
	for _, fn := range listeners {
		fn(copySnapshot(snapshot))
	}
	return nil
}

func (s *MemoryRemoteStore) Read(ctx context.Context, path string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	parent, child := splitPath(path)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offline {
		return "", false, ErrRemoteUnavailable
	}
	v, ok := s.data[parent][child]
	return v, ok, nil
}

func (s *MemoryRemoteStore) Subscribe(ctx context.Context, path string, onChange func(map[string]string)) (Subscription, error) {
	s.mu.Lock()
	if s.offline {
		s.mu.Unlock()
		return nil, ErrRemoteUnavailable
	}
	if s.subs[path] == nil {
		s.subs[path] = make(map[int]func(map[string]string))
	}
	id := s.nextID
	s.nextID++
	s.subs[path][id] = onChange
	snapshot := s.snapshotLocked(path)
	s.mu.Unlock()

	if len(snapshot) > 0 {
		onChange(snapshot)
	}

	return &memorySubscription{store: s, path: path, id: id}, nil
}

func (s *MemoryRemoteStore) snapshotLocked(parent string) map[string]string {
	return copySnapshot(s.data[parent])
}

func copySnapshot(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type memorySubscription struct {
	store *MemoryRemoteStore
	path  string
	id    int
}

func (m *memorySubscription) Close() error {
	m.store.mu.Lock()
	delete(m.store.subs[m.path], m.id)
	m.store.mu.Unlock()
	return nil
}
