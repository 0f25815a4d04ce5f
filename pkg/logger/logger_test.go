package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCtxLoggingAttachesRequestID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewFromZap(zap.New(core))

	log.InfoFCtx(WithRequestID(context.Background(), "req-42"), "dispatch %s", "GET")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "dispatch GET", entries[0].Message)
	assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
}

type tenantKey struct{}

func TestRegisterContextKey(t *testing.T) {
	RegisterContextKey(tenantKey{}, "tenant")
	defer UnregisterContextKey(tenantKey{})

	core, logs := observer.New(zap.DebugLevel)
	log := NewFromZap(zap.New(core))

	log.WarnFCtx(context.WithValue(context.Background(), tenantKey{}, "acme"), "slow upstream")
	assert.Equal(t, "acme", logs.All()[0].ContextMap()["tenant"])

	UnregisterContextKey(tenantKey{})
	log.WarnFCtx(context.WithValue(context.Background(), tenantKey{}, "acme"), "slow upstream")
	_, ok := logs.All()[1].ContextMap()["tenant"]
	assert.False(t, ok)
}

func TestWith(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewFromZap(zap.New(core)).With("component", "dispatch")

	log.ErrorF("failed: %d", 3)
	assert.Equal(t, "dispatch", logs.All()[0].ContextMap()["component"])
	assert.Equal(t, "failed: 3", logs.All()[0].Message)
}

func TestNewLoggerLevels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	log, err := NewLogger(LoggerOptions{Level: "warn", Encoding: "json", OutputPaths: []string{path}})
	require.NoError(t, err)

	log.InfoF("hidden")
	log.WarnF("shown")
	require.NoError(t, log.SetLogLevel("info"))
	log.InfoF("now shown")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
	assert.Contains(t, string(data), "now shown")

	assert.Error(t, log.SetLogLevel("loud"))
}

func TestNewLoggerUnknownLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	log, err := NewLogger(LoggerOptions{Level: "chatty", OutputPaths: []string{path}})
	require.NoError(t, err)

	log.DebugF("debug line")
	log.InfoF("info line")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "debug line")
	assert.Contains(t, string(data), "info line")
}

func TestNop(t *testing.T) {
	log := NewNop()
	log.Info("nothing")
	assert.NoError(t, log.Sync())
}
