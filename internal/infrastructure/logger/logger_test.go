package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"console", &Config{Level: "info", Format: "console"}},
		{"json to stderr", &Config{Level: "debug", Format: "json", Output: "stderr"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNew_TeesExtraCores(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	l, err := New(&Config{Level: "error", Format: "json", Output: "stderr"}, core)
	require.NoError(t, err)

	l.Info("line stopped", zap.String("line", "L1"))

	require.Len(t, recorded.All(), 1)
	assert.Equal(t, "line stopped", recorded.All()[0].Message)
}

func TestNew_WritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mes.log")

	l, err := New(&Config{Level: "info", Format: "json", Output: path, Service: "mes-backend", Env: "plant"})
	require.NoError(t, err)
	l.Info("lot issued", zap.String("lot_no", "M250101000001"))
	l.Debug("below level")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry), "one entry expected, got %q", data)
	assert.Equal(t, "lot issued", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "mes-backend", entry["service"])
	assert.Equal(t, "plant", entry["env"])
	assert.Equal(t, "M250101000001", entry["lot_no"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "caller")
}

func TestNew_UnwritableFile(t *testing.T) {
	_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "mes.log")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open log file")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.level))
		})
	}
}

func TestSync(t *testing.T) {
	assert.NoError(t, Sync(zap.NewNop()))
}
