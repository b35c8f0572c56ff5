package reporter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/log"

	"github.com/qa-platform/metrics-reporter/flags"
	"github.com/qa-platform/metrics-reporter/publisher"
)

// parseConfig runs NewConfig through a real cli parse of the given args.
func parseConfig(t *testing.T, args ...string) *Config {
	t.Helper()
	var cfg *Config
	app := &cli.App{
		Flags: flags.Flags,
		Action: func(ctx *cli.Context) error {
			var err error
			cfg, err = NewConfig(ctx, log.Root())
			return err
		},
	}
	require.NoError(t, app.Run(append([]string{"reporter"}, args...)))
	require.NotNil(t, cfg)
	return cfg
}

func TestNewConfig_Defaults(t *testing.T) {
	cfg := parseConfig(t)

	assert.False(t, cfg.PushToVictoria, "push is opt-in")
	assert.True(t, cfg.MultipleReport, "unset MULTIPLE_REPORT keeps pillar-prefixed naming")
	assert.True(t, cfg.DeleteTempFiles, "unset DELETE_TEMP_FILE keeps deletion enabled")
	assert.False(t, cfg.LegacyDiscovery)
	assert.Equal(t, publisher.DefaultPushTimeout, cfg.PushTimeout)
	assert.True(t, filepath.IsAbs(cfg.ResultsDir))
}

func TestNewConfig_TriStateSemantics(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want func(t *testing.T, cfg *Config)
	}{
		{
			name: "push enabled only by literal true",
			args: []string{"--push-to-victoria", "true"},
			want: func(t *testing.T, cfg *Config) { assert.True(t, cfg.PushToVictoria) },
		},
		{
			name: "push disabled by any other value",
			args: []string{"--push-to-victoria", "yes"},
			want: func(t *testing.T, cfg *Config) { assert.False(t, cfg.PushToVictoria) },
		},
		{
			name: "delete disabled by non-true value",
			args: []string{"--delete-temp-file", "false"},
			want: func(t *testing.T, cfg *Config) { assert.False(t, cfg.DeleteTempFiles) },
		},
		{
			name: "multiple report disabled by non-true value",
			args: []string{"--multiple-report", "no"},
			want: func(t *testing.T, cfg *Config) { assert.False(t, cfg.MultipleReport) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.want(t, parseConfig(t, tt.args...))
		})
	}
}

func TestNewConfig_FileFillsUnsetFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reporter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"victoria_url: http://victoria.internal/write\npillar: payments\npush_timeout: 30s\n"), 0o644))

	cfg := parseConfig(t, "--config", path)
	assert.Equal(t, "http://victoria.internal/write", cfg.VictoriaURL)
	assert.Equal(t, "payments", cfg.Pillar)
	assert.Equal(t, 30*time.Second, cfg.PushTimeout)
}

func TestNewConfig_FlagsWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reporter.yaml")
	require.NoError(t, os.WriteFile(path, []byte("victoria_url: http://from-file/write\n"), 0o644))

	cfg := parseConfig(t, "--config", path, "--victoria-url", "http://from-flag/write")
	assert.Equal(t, "http://from-flag/write", cfg.VictoriaURL)
}

func TestNewConfig_MissingMetricsConfigIsNotFatal(t *testing.T) {
	// No URL, no run id: validation happens downstream, not at startup.
	cfg := parseConfig(t)
	assert.Empty(t, cfg.VictoriaURL)
	assert.Empty(t, cfg.RunID)
}
