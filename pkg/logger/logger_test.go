package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestWithContextEmitsAttachedFields(t *testing.T) {
	log, logs := NewObserverLogger("debug")

	ctx := ContextWithFields(context.Background(), zap.String("request_id", "01HZX"))
	ctx = ContextWithFields(ctx, zap.String("principal_id", "api-key:1"))

	log.InfoWithContext(ctx, "hello", zap.Int("attempt", 2))
	log.Info("plain")

	entries := logs.All()
	require.Len(t, entries, 2)

	require.Equal(t, map[string]interface{}{
		"request_id":   "01HZX",
		"principal_id": "api-key:1",
		"attempt":      int64(2),
	}, entries[0].ContextMap())
	require.Empty(t, entries[1].ContextMap())
}

func TestWithoutContext(t *testing.T) {
	for _, tc := range []struct {
		name          string
		log           func(Logger)
		expectedLevel zapcore.Level
	}{
		{name: "info", log: func(l Logger) { l.Info("ABC") }, expectedLevel: zapcore.InfoLevel},
		{name: "debug", log: func(l Logger) { l.Debug("ABC") }, expectedLevel: zapcore.DebugLevel},
		{name: "warn", log: func(l Logger) { l.Warn("ABC") }, expectedLevel: zapcore.WarnLevel},
		{name: "error", log: func(l Logger) { l.Error("ABC") }, expectedLevel: zapcore.ErrorLevel},
	} {
		t.Run(tc.name, func(t *testing.T) {
			log, logs := NewObserverLogger("debug")
			tc.log(log)

			require.Equal(t, 1, logs.Len())
			require.Equal(t, "ABC", logs.All()[0].Message)
			require.Equal(t, tc.expectedLevel, logs.All()[0].Level)
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("none_level_is_noop", func(t *testing.T) {
		l, err := NewLogger("json", "none")
		require.NoError(t, err)
		require.NotNil(t, l)
	})

	t.Run("unknown_level", func(t *testing.T) {
		_, err := NewLogger("json", "chatty")
		require.EqualError(t, err, "unknown log level: chatty")
	})

	t.Run("text_format", func(t *testing.T) {
		l, err := NewLogger("text", "warn")
		require.NoError(t, err)
		require.False(t, l.Core().Enabled(zapcore.InfoLevel))
		require.True(t, l.Core().Enabled(zapcore.WarnLevel))
	})
}
