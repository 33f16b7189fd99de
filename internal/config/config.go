/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package config loads the per-user YAML configuration and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"conduitroute/internal/bend"
	"conduitroute/internal/catalog"
	"conduitroute/internal/domain"
	applog "conduitroute/internal/log"
	"conduitroute/internal/router"

	"gopkg.in/yaml.v3"
)

// ConfigVersion is bumped when the file layout changes incompatibly.
const ConfigVersion = 1

// RoutingConfig holds the project defaults plus the pathfinding knobs used when a
// route job leaves them unset.
type RoutingConfig struct {
	domain.ConduitSettings `yaml:",inline"`

	VoxelSize       float64 `yaml:"voxel_size"`
	MaxIterations   int     `yaml:"max_iterations"`
	Clearance       float64 `yaml:"clearance"`
	BoundsPadding   float64 `yaml:"bounds_padding"`
	SimplifyEpsilon float64 `yaml:"simplify_epsilon"`
}

type BendConfig struct {
	TablePath      string  `yaml:"table_path"` // CSV; empty uses the built-in table
	MaxStickInches float64 `yaml:"max_stick_inches"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Source     bool   `yaml:"source"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// StorageConfig names the project used when a command is given no directory.
// Empty means commands require one.
type StorageConfig struct {
	ProjectDir string `yaml:"project_dir"`
}

type GeneralConfig struct {
	TelemetryOptIn bool `yaml:"telemetry_opt_in"`
}

// AppConfig is the user-editable configuration persisted as YAML in the user scope.
// Environment variables are read-only overrides applied at load time.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Routing       RoutingConfig `yaml:"routing"`
	Bend          BendConfig    `yaml:"bend"`
	Logging       LoggingConfig `yaml:"logging"`
	Storage       StorageConfig `yaml:"storage"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: ConfigVersion,
		Routing: RoutingConfig{
			ConduitSettings: domain.DefaultSettings(),
			VoxelSize:       domain.DefaultVoxelSize,
			MaxIterations:   router.DefaultMaxIterations,
			BoundsPadding:   10,
		},
		Bend:    BendConfig{MaxStickInches: bend.DefaultMaxStickInches},
		Logging: LoggingConfig{Level: "info", Format: "console", MaxSizeMB: 10, MaxBackups: 3},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath     = "CONDUIT_CONFIG"
	EnvTelemetryOptIn = "CONDUIT_TELEMETRY_OPT_IN"
	EnvConduitType    = "CONDUIT_DEFAULT_TYPE"
	EnvTradeSize      = "CONDUIT_DEFAULT_TRADE_SIZE"
	EnvMaterial       = "CONDUIT_DEFAULT_MATERIAL"
	EnvTolerance      = "CONDUIT_CONNECTION_TOLERANCE"
	EnvVoxelSize      = "CONDUIT_VOXEL_SIZE"
	EnvMaxIterations  = "CONDUIT_MAX_ITERATIONS"
	EnvBendTable      = "CONDUIT_BEND_TABLE"
	EnvMaxStick       = "CONDUIT_MAX_STICK_INCHES"
	EnvProjectDir     = "CONDUIT_PROJECT_DIR"
	EnvLogLevel       = "CONDUIT_LOG_LEVEL"
	EnvLogFormat      = "CONDUIT_LOG_FORMAT"
	EnvLogSource      = "CONDUIT_LOG_SOURCE"
	EnvLogFile        = "CONDUIT_LOG_FILE"
)

type envOverride struct {
	key   string
	env   string
	apply func(cfg *AppConfig, v string) error
}

var overrides = []envOverride{
	{"general.telemetry_opt_in", EnvTelemetryOptIn, func(c *AppConfig, v string) error { c.General.TelemetryOptIn = parseBool(v); return nil }},
	{"routing.default_conduit_type_id", EnvConduitType, func(c *AppConfig, v string) error { c.Routing.DefaultConduitTypeID = v; return nil }},
	{"routing.default_trade_size", EnvTradeSize, func(c *AppConfig, v string) error {
		c.Routing.DefaultTradeSize = catalog.NormalizeTradeSize(v)
		return nil
	}},
	{"routing.default_material", EnvMaterial, func(c *AppConfig, v string) error { c.Routing.DefaultMaterial = catalog.ParseMaterial(v); return nil }},
	{"routing.connection_tolerance", EnvTolerance, func(c *AppConfig, v string) error { return parseFloat(v, &c.Routing.ConnectionTolerance) }},
	{"routing.voxel_size", EnvVoxelSize, func(c *AppConfig, v string) error { return parseFloat(v, &c.Routing.VoxelSize) }},
	{"routing.max_iterations", EnvMaxIterations, func(c *AppConfig, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.Routing.MaxIterations = n
		return nil
	}},
	{"bend.table_path", EnvBendTable, func(c *AppConfig, v string) error { c.Bend.TablePath = v; return nil }},
	{"bend.max_stick_inches", EnvMaxStick, func(c *AppConfig, v string) error { return parseFloat(v, &c.Bend.MaxStickInches) }},
	{"storage.project_dir", EnvProjectDir, func(c *AppConfig, v string) error { c.Storage.ProjectDir = v; return nil }},
	{"logging.level", EnvLogLevel, func(c *AppConfig, v string) error { c.Logging.Level = strings.ToLower(v); return nil }},
	{"logging.format", EnvLogFormat, func(c *AppConfig, v string) error { c.Logging.Format = strings.ToLower(v); return nil }},
	{"logging.source", EnvLogSource, func(c *AppConfig, v string) error { c.Logging.Source = parseBool(v); return nil }},
	{"logging.file", EnvLogFile, func(c *AppConfig, v string) error { c.Logging.File = v; return nil }},
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func parseFloat(v string, dst *float64) error {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

// ConfigPath returns the per-user config file path. CONDUIT_CONFIG wins when set.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "ConduitRoute")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "ConduitRoute")
	default:
		base = filepath.Join(os.Getenv("HOME"), ".config", "conduitroute")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present) and applies environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Defaults()
		applyEnvOverrides(&cfg)
		return cfg, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path on top of Defaults. A missing file is not an
// error; a malformed one is, and the defaults are returned alongside it.
// Environment overrides that fail to parse are logged and skipped.
func LoadFrom(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Defaults(), fmt.Errorf("parse config %s: %w", path, err)
		}
		normalize(&cfg)
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes cfg as YAML to the user config path.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

func SaveTo(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func normalize(cfg *AppConfig) {
	if cfg.ConfigVersion == 0 {
		cfg.ConfigVersion = ConfigVersion
	}
	cfg.Routing.DefaultTradeSize = catalog.NormalizeTradeSize(cfg.Routing.DefaultTradeSize)
	cfg.Routing.DefaultMaterial = catalog.ParseMaterial(string(cfg.Routing.DefaultMaterial))
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	cfg.Logging.File = strings.TrimSpace(cfg.Logging.File)
}

func applyEnvOverrides(cfg *AppConfig) {
	for _, o := range overrides {
		v := strings.TrimSpace(os.Getenv(o.env))
		if v == "" {
			continue
		}
		if err := o.apply(cfg, v); err != nil {
			applog.WithComponent("config").Warn("ignoring env override",
				slog.String("env", o.env), slog.String("value", v), slog.Any("err", err))
		}
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	for _, o := range overrides {
		if o.key == key && os.Getenv(o.env) != "" {
			return o.env, true
		}
	}
	return "", false
}

// Validate reports every setting that would make routing or bending misbehave.
func (c AppConfig) Validate() error {
	var errs []error
	if c.Routing.VoxelSize <= 0 {
		errs = append(errs, fmt.Errorf("routing.voxel_size must be positive, got %g", c.Routing.VoxelSize))
	}
	if c.Routing.ConnectionTolerance < 0 {
		errs = append(errs, fmt.Errorf("routing.connection_tolerance must not be negative, got %g", c.Routing.ConnectionTolerance))
	}
	if c.Routing.MaxIterations < 0 {
		errs = append(errs, fmt.Errorf("routing.max_iterations must not be negative, got %d", c.Routing.MaxIterations))
	}
	if c.Bend.MaxStickInches <= 0 {
		errs = append(errs, fmt.Errorf("bend.max_stick_inches must be positive, got %g", c.Bend.MaxStickInches))
	}
	return errors.Join(errs...)
}

// Settings returns the project-wide defaults for a new model store.
func (r RoutingConfig) Settings() domain.ConduitSettings { return r.ConduitSettings }

// Apply fills the unset pathfinding fields of opts from the config.
func (r RoutingConfig) Apply(opts *domain.RoutingOptions) {
	if opts.VoxelSize <= 0 {
		opts.VoxelSize = r.VoxelSize
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = r.MaxIterations
	}
	if opts.Clearance <= 0 {
		opts.Clearance = r.Clearance
	}
	if opts.BoundsPadding <= 0 {
		opts.BoundsPadding = r.BoundsPadding
	}
	if opts.SimplifyEpsilon <= 0 {
		opts.SimplifyEpsilon = r.SimplifyEpsilon
	}
}

// Service builds the bend service from the configured table, or the built-in table.
func (b BendConfig) Service() (*bend.Service, error) {
	var entries []bend.Entry
	if b.TablePath != "" {
		var err error
		if entries, err = bend.LoadTableFile(b.TablePath); err != nil {
			return nil, err
		}
		if len(entries) == 0 {
			return nil, fmt.Errorf("%w: %s", bend.ErrEmptyTable, b.TablePath)
		}
	}
	return bend.NewService(entries, bend.WithMaxStickInches(b.MaxStickInches)), nil
}

// Options converts the logging section for log.Init.
func (l LoggingConfig) Options() applog.Options {
	return applog.Options{
		Level:      l.Level,
		Format:     l.Format,
		AddSource:  l.Source,
		File:       l.File,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
	}
}
