package config

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger builds the process logger: zap configured by LogLevel and
// LogFormat, exposed as a logr.Logger. The returned func flushes buffered
// entries.
func (c *Config) Logger() (logr.Logger, func(), error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return logr.Discard(), func() {}, fmt.Errorf("config: log-level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	switch c.LogFormat {
	case "json":
	case "console", "":
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return logr.Discard(), func() {}, fmt.Errorf("config: unsupported log-format %q", c.LogFormat)
	}
	zl, err := zc.Build()
	if err != nil {
		return logr.Discard(), func() {}, err
	}
	return zapr.NewLogger(zl).WithName("gridsync"), func() { _ = zl.Sync() }, nil
}
