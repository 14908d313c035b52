package logger

import (
	"testing"

	"practice_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want zapcore.Level
	}{
		{"explicit", config.Config{Log: config.LogConfig{Level: "warn"}}, zap.WarnLevel},
		{"debug mode", config.Config{Server: config.ServerConfig{Mode: "debug"}}, zap.DebugLevel},
		{"release mode", config.Config{Server: config.ServerConfig{Mode: "release"}}, zap.InfoLevel},
		{"unknown level", config.Config{Log: config.LogConfig{Level: "loud"}}, zap.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(&tt.cfg))
		})
	}
}

func TestSetLevel(t *testing.T) {
	SetLevel(&config.Config{Log: config.LogConfig{Level: "error"}})
	assert.Equal(t, zap.ErrorLevel, level.Level())

	SetLevel(&config.Config{Log: config.LogConfig{Level: "info"}})
	assert.Equal(t, zap.InfoLevel, level.Level())
}
