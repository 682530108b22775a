// Package config loads the pipeline's tunable parameters.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jsangelo/index-based-alert-system/internal/alertindex"
	"github.com/jsangelo/index-based-alert-system/internal/clustering"
	"github.com/jsangelo/index-based-alert-system/internal/failure"
	"github.com/jsangelo/index-based-alert-system/internal/features"
	"github.com/jsangelo/index-based-alert-system/internal/geodesy"
	"github.com/jsangelo/index-based-alert-system/internal/pairwise"
	"github.com/jsangelo/index-based-alert-system/internal/sweep"
)

// EnvPrefix prefixes environment overrides, e.g. ALERTINDEX_DBSCAN_EPS.
const EnvPrefix = "ALERTINDEX"

const maxFileSize = 1 * 1024 * 1024

// Config holds every tunable of the pipeline. Fields are pointers so that a
// partial file leaves the rest at their defaults; the Get* methods resolve
// them.
type Config struct {
	DistanceLimitKm *float64 `json:"distance_limit_km,omitempty" mapstructure:"distance_limit_km"`
	TimeLimitDays   *int     `json:"time_limit_days,omitempty" mapstructure:"time_limit_days"`
	DBSCANEps       *float64 `json:"dbscan_eps,omitempty" mapstructure:"dbscan_eps"`

	// Alphas is a "min:max:step" range or a comma-separated list.
	Alphas        *string  `json:"alphas,omitempty" mapstructure:"alphas"`
	Scaling       *string  `json:"scaling,omitempty" mapstructure:"scaling"`
	Solver        *string  `json:"solver,omitempty" mapstructure:"solver"`
	Ftol          *float64 `json:"ftol,omitempty" mapstructure:"ftol"`
	MaxIterations *int     `json:"max_iterations,omitempty" mapstructure:"max_iterations"`

	Workers  *int    `json:"workers,omitempty" mapstructure:"workers"`
	Prune    *bool   `json:"prune,omitempty" mapstructure:"prune"`
	Geodesic *string `json:"geodesic,omitempty" mapstructure:"geodesic"`

	DataDir   *string `json:"data_dir,omitempty" mapstructure:"data_dir"`
	OutputDir *string `json:"output_dir,omitempty" mapstructure:"output_dir"`
}

// Keys lists every configuration key.
var Keys = []string{
	"distance_limit_km",
	"time_limit_days",
	"dbscan_eps",
	"alphas",
	"scaling",
	"solver",
	"ftol",
	"max_iterations",
	"workers",
	"prune",
	"geodesic",
	"data_dir",
	"output_dir",
}

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// Load reads the configuration from an optional JSON or YAML file, then
// ALERTINDEX_* environment variables, then any changed flag in flags whose
// name is a key with underscores replaced by dashes. Later sources win.
// An empty path skips the file; a nil flag set skips flags.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	for _, key := range Keys {
		if err := v.BindEnv(key); err != nil {
			return nil, failure.Config("load config", err)
		}
	}

	if path != "" {
		cleanPath := filepath.Clean(path)
		switch ext := filepath.Ext(cleanPath); ext {
		case ".json", ".yaml", ".yml":
		default:
			return nil, failure.Config("load config", fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext))
		}
		info, err := os.Stat(cleanPath)
		if err != nil {
			return nil, failure.Config("load config", fmt.Errorf("failed to stat config file: %w", err))
		}
		if info.Size() > maxFileSize {
			return nil, failure.Config("load config", fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize))
		}
		v.SetConfigFile(cleanPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, failure.Config("load config", fmt.Errorf("failed to read config file: %w", err))
		}
	}

	if flags != nil {
		for _, key := range Keys {
			f := flags.Lookup(strings.ReplaceAll(key, "_", "-"))
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, failure.Config("load config", err)
			}
		}
	}

	cfg := Empty()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, failure.Config("load config", fmt.Errorf("failed to parse config: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every set field.
func (c *Config) Validate() error {
	if err := c.Limits().Validate(); err != nil {
		return err
	}
	if err := clustering.ValidateEps(c.GetDBSCANEps()); err != nil {
		return err
	}
	if _, err := c.GetAlphas(); err != nil {
		return err
	}
	if _, err := c.GetScaling(); err != nil {
		return err
	}
	if _, err := c.NewSolver(); err != nil {
		return err
	}
	if c.Workers != nil && *c.Workers < 1 {
		return failure.Config("validate config", fmt.Errorf("workers must be >= 1, got %d", *c.Workers))
	}
	if _, err := c.GetMetric(); err != nil {
		return err
	}
	return nil
}

// GetDistanceLimitKm returns distance_limit_km or the default of 1 km.
func (c *Config) GetDistanceLimitKm() float64 {
	if c.DistanceLimitKm == nil {
		return 1
	}
	return *c.DistanceLimitKm
}

// GetTimeLimitDays returns time_limit_days or the default of 30.
func (c *Config) GetTimeLimitDays() int {
	if c.TimeLimitDays == nil {
		return 30
	}
	return *c.TimeLimitDays
}

// Limits returns the pairwise gating limits.
func (c *Config) Limits() pairwise.Limits {
	return pairwise.Limits{DistanceKm: c.GetDistanceLimitKm(), TimeDays: c.GetTimeLimitDays()}
}

// GetDBSCANEps returns dbscan_eps or clustering.DefaultEps.
func (c *Config) GetDBSCANEps() float64 {
	if c.DBSCANEps == nil {
		return clustering.DefaultEps
	}
	return *c.DBSCANEps
}

// GetAlphas parses alphas, defaulting to 0, 0.1, ..., 1.
func (c *Config) GetAlphas() ([]float64, error) {
	if c.Alphas == nil || *c.Alphas == "" {
		return alertindex.DefaultAlphas(), nil
	}
	alphas, err := sweep.ParseUnitGrid(*c.Alphas)
	if err != nil {
		return nil, failure.Config("validate config", fmt.Errorf("alphas: %w", err))
	}
	return alphas, nil
}

// GetScaling returns the feature scaling method, z-score by default.
func (c *Config) GetScaling() (features.Method, error) {
	if c.Scaling == nil {
		return features.ZScore, nil
	}
	return features.ParseMethod(*c.Scaling)
}

// GetSolver returns the solver name.
func (c *Config) GetSolver() string {
	if c.Solver == nil || *c.Solver == "" {
		return alertindex.SolverProjectedGradient
	}
	return *c.Solver
}

// GetFtol returns ftol or alertindex.DefaultFtol.
func (c *Config) GetFtol() float64 {
	if c.Ftol == nil {
		return alertindex.DefaultFtol
	}
	return *c.Ftol
}

// GetMaxIterations returns max_iterations or alertindex.DefaultMaxIterations.
func (c *Config) GetMaxIterations() int {
	if c.MaxIterations == nil {
		return alertindex.DefaultMaxIterations
	}
	return *c.MaxIterations
}

// NewSolver builds the configured solver.
func (c *Config) NewSolver() (alertindex.Solver, error) {
	return alertindex.NewSolver(c.GetSolver(), c.GetFtol(), c.GetMaxIterations())
}

// GetWorkers returns workers or the number of CPUs.
func (c *Config) GetWorkers() int {
	if c.Workers == nil {
		return runtime.NumCPU()
	}
	return *c.Workers
}

// GetPrune reports whether pairwise builds skip pairs outside the latitude
// bands of the distance limit.
func (c *Config) GetPrune() bool {
	if c.Prune == nil {
		return false
	}
	return *c.Prune
}

// GetMetric returns the configured geodesic metric, Karney by default.
func (c *Config) GetMetric() (geodesy.Metric, error) {
	name := ""
	if c.Geodesic != nil {
		name = *c.Geodesic
	}
	m, err := geodesy.ByName(name)
	if err != nil {
		return nil, failure.Config("validate config", err)
	}
	return m, nil
}

func (c *Config) GetDataDir() string {
	if c.DataDir == nil || *c.DataDir == "" {
		return "."
	}
	return *c.DataDir
}

func (c *Config) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "."
	}
	return *c.OutputDir
}

// InputPath resolves a relative input file name against the data directory.
func (c *Config) InputPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.GetDataDir(), name)
}
