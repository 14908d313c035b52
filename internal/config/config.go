package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig
	Log          LogConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Learner      LearnerConfig
	Sync         SyncConfig
	Session      SessionConfig
	QuestionBank QuestionBankConfig `mapstructure:"question_bank"`
	JWT          JWTConfig
	Storage      StorageConfig
	Backup       BackupConfig
	Tracing      TracingConfig   `mapstructure:"tracing"`
	CORS         CORSConfig      `mapstructure:"cors"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	// debug/info/warn/error，为空时 debug 模式用 debug，否则 info
	Level string `mapstructure:"level"`
}

type DatabaseConfig struct {
	// sqlite 或 mysql
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LearnerConfig 单一学习者身份，远端路径为 users/<UserID>/<key>
type LearnerConfig struct {
	UserID string `mapstructure:"user_id"`
	Name   string `mapstructure:"name"`
}

type SyncConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// redis 或 memory
	Backend        string        `mapstructure:"backend"`
	StartupTimeout time.Duration `mapstructure:"startup_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

type SessionConfig struct {
	WarmupCount           int `mapstructure:"warmup_count"`
	AvgSecondsPerQuestion int `mapstructure:"avg_seconds_per_question"`
}

type QuestionBankConfig struct {
	Dir string `mapstructure:"dir"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioSecure   bool   `mapstructure:"minio_secure"`
}

type BackupConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron"`
}

type TracingConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"`
	SampleRatio       float64 `mapstructure:"sample_ratio"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests            int `mapstructure:"max_requests"`
	WindowMinutes          int `mapstructure:"window_minutes"`
	// 家长 PIN 只有 4 位，单独限制每个 IP 每分钟的登录次数
	LoginAttemptsPerMinute int `mapstructure:"login_attempts_per_minute"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.file", "logs/app.log")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/practice.db")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.parsetime", true)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("learner.user_id", "learner")

	v.SetDefault("sync.enabled", true)
	v.SetDefault("sync.backend", "redis")
	v.SetDefault("sync.startup_timeout", 4*time.Second)
	v.SetDefault("sync.write_timeout", 3*time.Second)

	v.SetDefault("session.warmup_count", 2)
	v.SetDefault("session.avg_seconds_per_question", 40)

	v.SetDefault("question_bank.dir", "data/questions")

	v.SetDefault("jwt.expire_hours", 2)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "backups")

	v.SetDefault("backup.enabled", false)
	v.SetDefault("backup.cron", "0 3 * * *")

	v.SetDefault("tracing.sample_ratio", 1.0)

	v.SetDefault("rate_limit.max_requests", 600)
	v.SetDefault("rate_limit.window_minutes", 1)
	v.SetDefault("rate_limit.login_attempts_per_minute", 5)
}

// LoadConfig 读取 path 目录下的 config.yaml，找不到配置文件时仅使用默认值和环境变量
func LoadConfig(path string) (*Config, error) {
	// .env 是可选的
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("PRACTICE")
	v.AutomaticEnv()

	setDefaults(v)

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.path", "DATABASE_PATH")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Learner / Sync
	v.BindEnv("learner.user_id", "LEARNER_USER_ID")
	v.BindEnv("sync.enabled", "SYNC_ENABLED")
	v.BindEnv("sync.backend", "SYNC_BACKEND")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("log.level", "LOG_LEVEL")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Learner.UserID == "" {
		return fmt.Errorf("learner.user_id must not be empty")
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "mysql" {
		return fmt.Errorf("unknown database driver %q: only sqlite and mysql are supported", c.Database.Driver)
	}

	if c.Sync.Enabled && c.Sync.Backend != "redis" && c.Sync.Backend != "memory" {
		return fmt.Errorf("unknown sync backend %q", c.Sync.Backend)
	}

	if c.Session.WarmupCount < 0 || c.Session.AvgSecondsPerQuestion <= 0 {
		return fmt.Errorf("invalid session tuning: warmup=%d avgSeconds=%d",
			c.Session.WarmupCount, c.Session.AvgSecondsPerQuestion)
	}

	// 生产环境校验 JWT Secret 强度
	if c.Server.Mode == "release" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
	}

	return nil
}
