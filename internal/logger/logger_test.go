package logger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoadConfigFromEnvDefaults(t *testing.T) {
	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "INFO", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.False(t, cfg.DetailedLogging)
	assert.Equal(t, 50, cfg.FileMaxSizeMB)
}

func TestLoadConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_DETAILED", "true")
	t.Setenv("LOG_FILE", "/tmp/pnl.log")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.Level)
	assert.True(t, cfg.DetailedLogging)
	assert.Equal(t, "/tmp/pnl.log", cfg.File)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLogLevel("WARN"))
	assert.Equal(t, zapcore.InfoLevel, parseLogLevel("verbose"))
}

func TestFileSinkReceivesEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pnl.log")
	require.NoError(t, InitWithConfig(LogConfig{Level: "INFO", Format: "json", File: path, FileMaxSizeMB: 1}))
	t.Cleanup(func() { _ = InitWithConfig(LogConfig{Level: "ERROR", Format: "json"}) })

	ctx := context.Background()
	Info(ctx, "breakdown finished", "strategies", 2)
	ErrorWithErr(ctx, "fetch failed", errors.New("boom"))
	Inference(ctx, "ord-1", "NIFTY24JANFUT", "stop-loss", "S001")
	require.NoError(t, Shutdown(ctx))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, "breakdown finished")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "TAG_INFERENCE")
}
