package logs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_DiscardByDefault(t *testing.T) {
	logger, err := New(Options{})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.ErrorLevel))
}

func TestNew_ConsoleToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fetch.log")
	logger, err := New(Options{Level: "info", Output: path})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("image saved", zap.String("path", "Fetched_Images/a.png"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "image saved")
	assert.Contains(t, string(data), "Fetched_Images/a.png")
	assert.NotContains(t, string(data), "hidden")
}

func TestNew_DefaultLevelIsWarn(t *testing.T) {
	logger, err := New(Options{Output: filepath.Join(t.TempDir(), "x.log")})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))
}

func TestNew_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fetch.json")
	logger, err := New(Options{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Warn("fetch failed", zap.String("kind", "timeout"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "fetch failed", entry["msg"])
	assert.Equal(t, "timeout", entry["kind"])
	assert.Equal(t, "warn", entry["level"])
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"bad level", Options{Level: "loud", Output: OutputStderr}},
		{"bad format", Options{Format: "xml", Output: OutputStderr}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			assert.Error(t, err)
		})
	}
}
