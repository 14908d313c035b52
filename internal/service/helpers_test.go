package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"practice_backend/internal/repository"

	"github.com/pkg/errors"
)

// memStore 测试用的内存 PersistentStore
type memStore struct {
	mu   sync.Mutex
	data map[string]json.RawMessage
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]json.RawMessage)}
}

func (s *memStore) Load(ctx context.Context, key string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	return append(json.RawMessage(nil), v...), nil
}

func (s *memStore) Save(ctx context.Context, key string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append(json.RawMessage(nil), value...)
	return nil
}

func (s *memStore) Clear(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *memStore) raw(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.data[key])
}

// deviceRemote 包装共享的 MemoryRemoteStore，记录本设备的写入并可注入故障
type deviceRemote struct {
	*repository.MemoryRemoteStore

	mu         sync.Mutex
	writes     []string
	failWrites map[string]bool
	readGate   chan struct{}
	// writeGate 非空时写入阻塞到关闭或 ctx 结束，模拟卡住的远端
	writeGate chan struct{}
}

func newDeviceRemote(shared *repository.MemoryRemoteStore) *deviceRemote {
	return &deviceRemote{MemoryRemoteStore: shared, failWrites: make(map[string]bool)}
}

func (d *deviceRemote) Write(ctx context.Context, path, value string) error {
	key := path[strings.LastIndex(path, "/")+1:]
	d.mu.Lock()
	d.writes = append(d.writes, key)
	fail := d.failWrites[key]
	gate := d.writeGate
	d.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if fail {
		return errors.New("connection reset")
	}
	return d.MemoryRemoteStore.Write(ctx, path, value)
}

func (d *deviceRemote) Read(ctx context.Context, path string) (string, bool, error) {
	if d.readGate != nil {
		select {
		case <-d.readGate:
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}
	return d.MemoryRemoteStore.Read(ctx, path)
}

func (d *deviceRemote) writeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.writes)
}
