package scheduler

import (
	"time"

	"practice_backend/pkg/logger"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"
)

// Scheduler 后台定时任务，时间按 UTC 解释
type Scheduler struct {
	scheduler *gocron.Scheduler
}

func New() *Scheduler {
	return &Scheduler{scheduler: gocron.NewScheduler(time.UTC)}
}

// AddCronJob 注册一个 cron 任务，上一次未结束时跳过本次
func (s *Scheduler) AddCronJob(name, expr string, fn func()) error {
	_, err := s.scheduler.Cron(expr).SingletonMode().Do(func() {
		start := time.Now()
		fn()
		logger.Log.Info("Scheduled job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
	})
	if err != nil {
		return err
	}
	logger.Log.Info("Scheduled job registered", zap.String("job", name), zap.String("cron", expr))
	return nil
}

func (s *Scheduler) Len() int {
	return s.scheduler.Len()
}

// Start 非阻塞启动
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}
