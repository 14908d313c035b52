package app

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"practice_backend/internal/config"
	"practice_backend/internal/controller"
	"practice_backend/internal/repository"
	"practice_backend/internal/service"
	"practice_backend/internal/util"
	"practice_backend/pkg/configwatcher"
	"practice_backend/pkg/database"
	"practice_backend/pkg/logger"
	"practice_backend/pkg/monitoring"
	"practice_backend/pkg/scheduler"
	"practice_backend/pkg/security"
	"practice_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	// ConfigFile 非空时监听该文件并热更新
	ConfigFile string
	Router     *gin.Engine
	DB         *gorm.DB
	Redis      *redis.Client
	Remote     repository.RemoteStore
	Sync       *service.SyncEngine

	services        *services
	scheduler       *scheduler.Scheduler
	tracerProvider  *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
	cancel          context.CancelFunc
}

type repositories struct {
	local  *repository.GormLocalStore
	remote repository.RemoteStore
	banks  *repository.QuestionBankRepository
}

type services struct {
	mastery   *service.MasteryEngine
	composer  *service.SessionComposer
	progress  *service.ProgressService
	settings  *service.SettingsService
	practice  *service.PracticeService
	dailyPlan *service.DailyPlanService
	report    *service.ReportService
	backup    *service.BackupService
	importer  *service.QuestionImportService
	hub       *service.UpdateHub
}

type controllers struct {
	progress *controller.ProgressController
	practice *controller.PracticeController
	settings *controller.SettingsController
	parent   *controller.ParentController
	sync     *controller.SyncController
	health   *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// initRemote 同步关闭或 redis 不可用时返回 nil，此时只使用本地存储
func (a *App) initRemote(cfg *config.Config) repository.RemoteStore {
	if !cfg.Sync.Enabled {
		logger.Log.Info("Sync disabled, running local-only")
		return nil
	}
	if cfg.Sync.Backend == util.SyncBackendMemory {
		return repository.NewMemoryRemoteStore()
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Warn("Remote store unavailable, running local-only", zap.Error(err))
		return nil
	}
	a.Redis = rdb
	return repository.NewRedisRemoteStore(rdb)
}

func (a *App) initRepositories(db *gorm.DB, cfg *config.Config) *repositories {
	return &repositories{
		local:  repository.NewGormLocalStore(db),
		remote: a.initRemote(cfg),
		banks:  repository.NewQuestionBankRepository(cfg.QuestionBank.Dir),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	a.Sync = service.NewSyncEngine(repos.local, repos.remote, service.SyncOptions{
		UserID:         cfg.Learner.UserID,
		StartupTimeout: cfg.Sync.StartupTimeout,
		WriteTimeout:   cfg.Sync.WriteTimeout,
	})
	a.Remote = repos.remote

	// 所有业务读写都经过同步引擎，以便对账后镜像到远端
	store := a.Sync

	s.mastery = service.NewMasteryEngine()
	s.composer = service.NewSessionComposer(cfg.Session.WarmupCount, cfg.Session.AvgSecondsPerQuestion)
	s.progress = service.NewProgressService(store, s.mastery)
	s.settings = service.NewSettingsService(store, cfg)
	s.practice = service.NewPracticeService(repos.banks, s.composer, s.progress, s.settings)
	s.dailyPlan = service.NewDailyPlanService(s.progress, s.settings)
	s.report = service.NewReportService(s.progress)
	s.backup = service.NewBackupService(store, service.NewStorageProvider(cfg), cfg.Learner.UserID)
	s.importer = service.NewQuestionImportService(repos.banks)

	s.hub = service.NewUpdateHub(a.Sync.Status)
	a.Sync.OnCloudUpdate(s.hub.BroadcastCloudUpdate)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		progress: controller.NewProgressController(s.progress),
		practice: controller.NewPracticeController(s.practice, s.dailyPlan),
		settings: controller.NewSettingsController(s.settings),
		parent:   controller.NewParentController(s.settings, s.progress, s.report, s.backup, s.importer),
		sync:     controller.NewSyncController(a.Sync, s.hub),
		health:   controller.NewHealthController(db, a.Sync),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// NewApp 组装存储、同步引擎、服务和路由，不启动任何后台任务
func NewApp(cfg *config.Config) (*App, error) {
	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}

	repos := app.initRepositories(db, cfg)
	app.services = app.initServices(repos, cfg)
	controllers := app.initControllers(app.services, db)

	monitoring.Init()

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(&cfg.Tracing, cfg.Learner.UserID)
		if err != nil {
			logger.Log.Error("Failed to initialize tracing", zap.Error(err))
		} else {
			app.tracerProvider = tp
		}
	}

	app.registerRoutes(router, controllers, cfg)

	app.RegisterConfigCallback(func(newCfg *config.Config) {
		logger.SetLevel(newCfg)
		app.services.composer.SetTuning(newCfg.Session.WarmupCount, newCfg.Session.AvgSecondsPerQuestion)
		logger.Log.Info("Session tuning reloaded",
			zap.Int("warmupCount", newCfg.Session.WarmupCount),
			zap.Int("avgSecondsPerQuestion", newCfg.Session.AvgSecondsPerQuestion))
	})

	return app, nil
}

// Start 执行启动对账 (最多等待 sync.startup_timeout)，然后启动后台任务
func (a *App) Start(ctx context.Context) error {
	ctx, a.cancel = context.WithCancel(ctx)

	res := a.Sync.Start(ctx)
	logger.Log.Info("Startup sync finished",
		zap.String("source", string(res.Source)),
		zap.Bool("timedOut", res.TimedOut))

	if a.Config.Backup.Enabled {
		a.scheduler = scheduler.New()
		err := a.scheduler.AddCronJob("backup", a.Config.Backup.Cron, func() {
			if _, err := a.services.backup.Backup(context.Background()); err != nil {
				logger.Log.Error("Scheduled backup failed", zap.Error(err))
			}
		})
		if err != nil {
			return err
		}
		a.scheduler.Start()
	}

	if a.ConfigFile != "" {
		go func() {
			err := configwatcher.WatchConfig(ctx, a.ConfigFile, func(newCfg *config.Config) {
				for _, cb := range a.configCallbacks {
					cb(newCfg)
				}
			})
			if err != nil {
				logger.Log.Warn("Config watcher stopped", zap.Error(err))
			}
		}()
	}
	return nil
}

// Close 停止后台任务并释放连接
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	a.services.hub.Stop()
	a.Sync.Stop()

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(context.Background()); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}

func (a *App) Run() error {
	if err := a.Start(context.Background()); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		a.Close()
		return err
	}
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(ctx)

	a.Close()
	logger.Log.Info("Server exiting")
	return err
}

// Backup 供命令行调用的一次性备份
func (a *App) Backup(ctx context.Context) (string, error) {
	return a.services.backup.Backup(ctx)
}

func (a *App) ImportQuestionBank(path, subject, moduleID, sheet string) (*service.ImportResult, error) {
	return a.services.importer.ImportFile(path, subject, moduleID, sheet)
}
