package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	l, err := New(true, true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New(false, false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithFields(zap.New(core), ResumeFields("res-1", 3)...).Info("committed")

	entries := observed.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "res-1", ctx[FieldResumeID])
	assert.Equal(t, int64(3), ctx[FieldVersion])

	// nil falls back to a no-op logger
	assert.NotPanics(t, func() { WithFields(nil, zap.String("k", "v")).Info("ignored") })
}

func TestResumeFields(t *testing.T) {
	assert.Empty(t, ResumeFields(" ", 0))
	assert.Len(t, ResumeFields("res-1", 0), 1)
}

func TestTruncateForLog(t *testing.T) {
	assert.Equal(t, "abc...", TruncateForLog("  abcdef ", 3))
	assert.Equal(t, "abc", TruncateForLog("abc", 3))
	assert.Equal(t, "", TruncateForLog("abc", 0))
}
