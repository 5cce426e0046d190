package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("json with command attribute", func(t *testing.T) {
		var buf bytes.Buffer
		newLogger("warn", "json", CommandResolve, &buf).Warn("hello")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "hello", rec["msg"])
		assert.Equal(t, "resolve", rec["command"])
	})

	t.Run("level filters records", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger("error", "text", CommandCompile, &buf)
		logger.Warn("dropped")
		assert.Empty(t, buf.String())
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger("chatty", "text", CommandCompile, &buf)
		logger.Debug("dropped")
		logger.Info("kept")
		assert.NotContains(t, buf.String(), "dropped")
		assert.Contains(t, buf.String(), "msg=kept")
		assert.Contains(t, buf.String(), "command=compile")
	})
}
