package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/xgx-io/xgx-errchain/internal/config"
)

func TestConfig_Levels(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want zapcore.Level
	}{
		{"default", Options{}, zapcore.InfoLevel},
		{"explicit warn", Options{Level: "warn"}, zapcore.WarnLevel},
		{"verbose wins", Options{Level: "error", Verbose: true}, zapcore.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zc, err := Config(tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, zc.Level.Level())
		})
	}
}

func TestConfig_Formats(t *testing.T) {
	zc, err := Config(Options{Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, "json", zc.Encoding)

	zc, err = Config(Options{})
	require.NoError(t, err)
	assert.Equal(t, "console", zc.Encoding)
	assert.Equal(t, []string{"stderr"}, zc.OutputPaths)
}

func TestConfig_Rejects(t *testing.T) {
	_, err := Config(Options{Format: "xml"})
	assert.Error(t, err)
	_, err = Config(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	l, err := New(FromConfig(config.Default().Logging, false))
	require.NoError(t, err)
	assert.NotNil(t, l)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNamed_NilIsNop(t *testing.T) {
	l := Named(nil, "x")
	require.NotNil(t, l)
	l.Info("discarded")
}
