// Package config loads packing settings from file and environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/piwi3910/DuctLoad/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. DUCTLOAD_PACK_BEAM_WIDTH.
const EnvPrefix = "DUCTLOAD"

// Config holds all application configuration.
type Config struct {
	Pack      PackConfig      `mapstructure:"pack"`
	Stability StabilityConfig `mapstructure:"stability"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// PackConfig mirrors model.PackSettings plus the run timeout.
type PackConfig struct {
	Algorithm     string        `mapstructure:"algorithm"`
	BeamWidth     int           `mapstructure:"beam_width"`
	GridStep      float64       `mapstructure:"grid_step"`
	Restarts      int           `mapstructure:"restarts"`
	Seed          int64         `mapstructure:"seed"`
	MaxNodes      int64         `mapstructure:"max_nodes"`
	Timeout       time.Duration `mapstructure:"timeout"` // 0 = no deadline
	Nesting       bool          `mapstructure:"nesting"`
	EnforceFlange bool          `mapstructure:"enforce_flange"`
	Candidates    string        `mapstructure:"candidates"`
	Parallelism   int           `mapstructure:"parallelism"`
}

type StabilityConfig struct {
	AdjacencyTolerance float64 `mapstructure:"adjacency_tolerance"` // mm
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"` // node_exporter textfile path, empty = off
}

var (
	ErrUnknownAlgorithm  = errors.New("unknown algorithm")
	ErrUnknownCandidates = errors.New("unknown candidate mode")
)

func setDefaults(v *viper.Viper) {
	d := model.DefaultSettings()
	v.SetDefault("pack.algorithm", string(d.Algorithm))
	v.SetDefault("pack.beam_width", d.BeamWidth)
	v.SetDefault("pack.grid_step", d.GridStep)
	v.SetDefault("pack.restarts", d.Restarts)
	v.SetDefault("pack.seed", d.Seed)
	v.SetDefault("pack.max_nodes", d.MaxNodes)
	v.SetDefault("pack.timeout", "0s")
	v.SetDefault("pack.nesting", d.Nesting)
	v.SetDefault("pack.enforce_flange", d.EnforceFlange)
	v.SetDefault("pack.candidates", string(d.Candidates))
	v.SetDefault("pack.parallelism", d.Parallelism)
	v.SetDefault("stability.adjacency_tolerance", 50.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("metrics.textfile", "")
}

// Load reads configuration from configPath (optional) and DUCTLOAD_*
// environment variables, then validates the packing section.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if _, err := cfg.Pack.Settings(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Settings converts the pack section into optimizer settings.
func (c PackConfig) Settings() (model.PackSettings, error) {
	s := model.PackSettings{
		Algorithm:     model.Algorithm(strings.ToLower(c.Algorithm)),
		BeamWidth:     c.BeamWidth,
		GridStep:      c.GridStep,
		Restarts:      c.Restarts,
		Seed:          c.Seed,
		MaxNodes:      c.MaxNodes,
		Nesting:       c.Nesting,
		EnforceFlange: c.EnforceFlange,
		Candidates:    model.CandidateMode(strings.ToLower(c.Candidates)),
		Parallelism:   c.Parallelism,
	}
	switch s.Algorithm {
	case model.AlgorithmGreedy, model.AlgorithmBeam, model.AlgorithmMultiStart:
	case "":
		s.Algorithm = model.AlgorithmBeam
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, c.Algorithm)
	}
	switch s.Candidates {
	case model.CandidatesGrid, model.CandidatesExtremePoints:
	case "":
		s.Candidates = model.CandidatesGrid
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownCandidates, c.Candidates)
	}
	return s, nil
}

// SetupLogger creates a logger on stderr with the configured level and format.
func SetupLogger(cfg LogConfig) *slog.Logger {
	return NewLogger(cfg, os.Stderr)
}

// NewLogger is SetupLogger writing to w.
func NewLogger(cfg LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
