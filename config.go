package reporter

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/ethereum/go-ethereum/log"

	"github.com/qa-platform/metrics-reporter/flags"
	"github.com/qa-platform/metrics-reporter/publisher"
)

// Config holds the application configuration. It is assembled once at
// process start; components receive it by value and never read the process
// environment themselves.
type Config struct {
	VictoriaURL     string
	RunID           string
	Project         string
	Platform        string
	Pillar          string
	WorkerID        string        // non-empty in sub-worker processes
	PushToVictoria  bool          // remote delivery enabled
	MultipleReport  bool          // pillar-prefixed partial-store naming
	DeleteTempFiles bool          // delete partial-store artifacts after merge
	LegacyDiscovery bool          // substring artifact matching
	ResultsDir      string        // hand-off directory for partial stores
	PushTimeout     time.Duration // bound on a single push attempt
	Log             log.Logger
}

// fileConfig is the optional reporter config file. File values fill in
// flags left unset; flags and environment always win.
type fileConfig struct {
	VictoriaURL string        `yaml:"victoria_url"`
	Platform    string        `yaml:"platform"`
	Pillar      string        `yaml:"pillar"`
	ResultsDir  string        `yaml:"results_dir"`
	PushTimeout time.Duration `yaml:"push_timeout"`
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	cfg := &Config{
		VictoriaURL:     ctx.String(flags.VictoriaURL.Name),
		RunID:           ctx.String(flags.RunID.Name),
		Project:         ctx.String(flags.Project.Name),
		Platform:        ctx.String(flags.Platform.Name),
		Pillar:          ctx.String(flags.Pillar.Name),
		WorkerID:        ctx.String(flags.Worker.Name),
		PushToVictoria:  ctx.String(flags.PushToVictoria.Name) == "true",
		MultipleReport:  unsetOrTrue(ctx.String(flags.MultipleReport.Name)),
		DeleteTempFiles: unsetOrTrue(ctx.String(flags.DeleteTempFile.Name)),
		LegacyDiscovery: ctx.Bool(flags.LegacyDiscovery.Name),
		ResultsDir:      ctx.String(flags.ResultsDir.Name),
		PushTimeout:     ctx.Duration(flags.PushTimeout.Name),
		Log:             log,
	}

	if path := ctx.String(flags.ConfigFile.Name); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if cfg.PushTimeout == 0 {
		cfg.PushTimeout = publisher.DefaultPushTimeout
	}
	if cfg.ResultsDir == "" {
		cfg.ResultsDir = "."
	}
	absResultsDir, err := filepath.Abs(cfg.ResultsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for results directory '%s': %w", cfg.ResultsDir, err)
	}
	cfg.ResultsDir = absResultsDir

	return cfg, nil
}

// applyFile fills unset fields from the reporter config file.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}

	if c.VictoriaURL == "" {
		c.VictoriaURL = fc.VictoriaURL
	}
	if c.Platform == "" {
		c.Platform = fc.Platform
	}
	if c.Pillar == "" {
		c.Pillar = fc.Pillar
	}
	if c.ResultsDir == "." && fc.ResultsDir != "" {
		c.ResultsDir = fc.ResultsDir
	}
	if c.PushTimeout == 0 {
		c.PushTimeout = fc.PushTimeout
	}
	return nil
}

// unsetOrTrue implements the documented tri-state semantics of
// MULTIPLE_REPORT and DELETE_TEMP_FILE: unset and "true" both enable the
// behavior, any other value disables it.
func unsetOrTrue(value string) bool {
	return value == "" || value == "true"
}
