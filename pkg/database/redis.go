package database

import (
	"context"
	"fmt"
	"time"

	"practice_backend/internal/config"
	"practice_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Redis 只承载同步数据，单一学习者的连接数很小
const redisPingTimeout = 2 * time.Second

// InitRedis 连接失败时关闭客户端并返回错误，由调用方决定是否退回纯本地模式
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     4,
		MinIdleConns: 1,
		DialTimeout:  redisPingTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, errors.Wrapf(err, "ping redis %s", addr)
	}

	logger.Log.Info("Redis connection established", zap.String("addr", addr), zap.Int("db", cfg.DB))
	return rdb, nil
}
