package repository

import (
	"context"
	"sync"

	"practice_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// RedisRemoteStore 每个父路径是一个 hash，子键是字段；写入后在父路径频道上 PUBLISH 子键名
type RedisRemoteStore struct {
	Redis *redis.Client
}

func NewRedisRemoteStore(rdb *redis.Client) *RedisRemoteStore {
	return &RedisRemoteStore{Redis: rdb}
}

func (s *RedisRemoteStore) Write(ctx context.Context, path, value string) error {
	parent, child := splitPath(path)
	_, err := s.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, parent, child, value)
		pipe.Publish(ctx, parent, child)
		return nil
	})
	return errors.Wrapf(err, "redis write %s", path)
}

func (s *RedisRemoteStore) Read(ctx context.Context, path string) (string, bool, error) {
	parent, child := splitPath(path)
	val, err := s.Redis.HGet(ctx, parent, child).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "redis read %s", path)
	}
	return val, true, nil
}

func (s *RedisRemoteStore) Subscribe(ctx context.Context, path string, onChange func(map[string]string)) (Subscription, error) {
	pubsub := s.Redis.Subscribe(ctx, path)
	// 等待订阅确认，连接失败时直接返回错误
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, errors.Wrapf(err, "redis subscribe %s", path)
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &redisSubscription{pubsub: pubsub, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)

		// 与 onValue 语义一致：订阅建立后先推送一次当前快照
		s.deliverSnapshot(subCtx, path, onChange)

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				s.deliverSnapshot(subCtx, path, onChange)
			}
		}
	}()

	return sub, nil
}

func (s *RedisRemoteStore) deliverSnapshot(ctx context.Context, path string, onChange func(map[string]string)) {
	snapshot, err := s.Redis.HGetAll(ctx, path).Result()
	if err != nil {
		if ctx.Err() == nil {
			logger.Log.Warn("Failed to read remote snapshot", zap.String("path", path), zap.Error(err))
		}
		return
	}
	if len(snapshot) == 0 {
		return
	}
	onChange(snapshot)
}

type redisSubscription struct {
	pubsub *redis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.pubsub.Close()
		<-s.done
	})
	return err
}
