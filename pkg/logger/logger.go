package logger

import (
	"os"
	"path/filepath"

	"practice_backend/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log 在 InitLogger 之前是空实现，测试和命令行工具可以直接使用
var Log = zap.NewNop()

// level 由 InitLogger 创建，配置热更新时通过 SetLevel 调整
var level = zap.NewAtomicLevelAt(zap.InfoLevel)

// parseLevel 未配置或无法识别时按运行模式选择
func parseLevel(cfg *config.Config) zapcore.Level {
	if cfg.Log.Level != "" {
		var l zapcore.Level
		if err := l.UnmarshalText([]byte(cfg.Log.Level)); err == nil {
			return l
		}
	}
	if cfg.Server.Mode == "debug" {
		return zap.DebugLevel
	}
	return zap.InfoLevel
}

func InitLogger(cfg *config.Config) {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	logFile := cfg.Log.File
	if logFile == "" {
		logFile = "logs/app.log"
	}
	os.MkdirAll(filepath.Dir(logFile), 0755)

	fileWriter := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    20,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	level.SetLevel(parseLevel(cfg))

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), fileWriter, level),
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stdout), level),
	)

	// 单一学习者部署，每条日志都带上学习者 ID 方便和远端数据对照
	Log = zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
		zap.Fields(zap.String("learner", cfg.Learner.UserID)),
	)
}

// SetLevel 配置热更新时调用
func SetLevel(cfg *config.Config) {
	next := parseLevel(cfg)
	if next != level.Level() {
		level.SetLevel(next)
		Log.Info("Log level changed", zap.String("level", next.String()))
	}
}
