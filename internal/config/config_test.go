package config

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("color", "auto", "")
	fs.Bool("quiet", false, "")
	fs.Int("max-diagnostics", 100, "")
	fs.String("log-level", "warn", "")
	fs.Duration("timeout", 0, "")
	return fs
}

func TestLoadDefaults(t *testing.T) {
	s, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestLoadPrecedence(t *testing.T) {
	t.Setenv("WHISTLE_MAX_DIAGNOSTICS", "7")
	t.Setenv("WHISTLE_QUIET", "true")
	t.Setenv("WHISTLE_COLOR", "off")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--color=on", "--timeout=2s"}))

	s, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, 7, s.MaxDiagnostics, "env beats default")
	assert.True(t, s.Quiet)
	assert.Equal(t, ModeOn, s.Color, "explicit flag beats env")
	assert.Equal(t, 2*time.Second, s.Timeout)
	assert.Equal(t, "warn", s.LogLevel, "unset flag does not shadow default")
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"color", []string{"--color=purple"}, "invalid --color"},
		{"max diagnostics", []string{"--max-diagnostics=-1"}, "max_diagnostics"},
		{"log level", []string{"--log-level=loud"}, "invalid log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := testFlags()
			require.NoError(t, fs.Parse(tt.args))
			_, err := Load(fs)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestModeResolve(t *testing.T) {
	yes := func() bool { return true }
	assert.True(t, ModeOn.Resolve(nil))
	assert.False(t, ModeOff.Resolve(yes))
	assert.True(t, ModeAuto.Resolve(yes))
	assert.False(t, ModeAuto.Resolve(nil))

	m, err := ParseMode("ui", " ON ")
	require.NoError(t, err)
	assert.Equal(t, ModeOn, m)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	s := Defaults()
	s.LogLevel = "info"
	logger := NewLogger(&buf, s)
	logger.Debug("hidden")
	logger.Info("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, Logger(ctx))
	assert.NotNil(t, Logger(context.Background()))

	level, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}
