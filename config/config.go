// Package config loads omadb settings.
//
// Configuration comes from a single YAML file named by the OMADB_CONFIG
// environment variable or the --config flag. There is no discovery: with
// neither set, Default applies and command-line flags fill in the rest.
//
//	root: /media/player/OMGAUDIO
//	axes: [artist, album, 2D]
//	format: yaml
//	check: true
//	catalog_size: 1200
//	log:
//	  level: debug
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/omgaudio/omadb/catalog"
	"github.com/omgaudio/omadb/errors"
	"github.com/omgaudio/omadb/oma"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "OMADB_CONFIG"

// Output formats.
const (
	FormatText = "text"
	FormatYAML = "yaml"
	FormatCBOR = "cbor"
	FormatJSON = "json"
)

// Formats lists the accepted output formats.
var Formats = []string{FormatText, FormatYAML, FormatCBOR, FormatJSON}

// Config is the omadb configuration.
type Config struct {
	// Root is the OMGAUDIO folder holding the catalog tables.
	Root string `yaml:"root"`

	// Format selects the output encoding: text, yaml, cbor or json.
	Format string `yaml:"format"`

	// Log configures the zap logger.
	Log LogConfig `yaml:"log"`

	// Axes lists the trees to load, by name or file id.
	Axes []oma.Axis `yaml:"axes"`

	// Concurrency bounds parallel table decoding. Zero means one
	// goroutine per axis.
	Concurrency int `yaml:"concurrency"`

	// CatalogSize is the number of tracks in the master catalog. When
	// set, TPLB title ids beyond it are reported.
	CatalogSize int `yaml:"catalog_size"`

	// Check enables the index consistency check.
	Check bool `yaml:"check"`

	// AllowUnknownClasses keeps unsupported classes as raw payloads.
	AllowUnknownClasses bool `yaml:"allow_unknown_classes"`

	// Require fails the load when an axis table is missing.
	Require bool `yaml:"require"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn or error.
	Level string `yaml:"level"`

	// Development switches to zap's human-oriented development encoder.
	Development bool `yaml:"development"`
}

// Default returns the configuration used before any file or flag applies.
func Default() *Config {
	return &Config{
		Format: FormatText,
		Axes:   slices.Clone(oma.Axes),
		Check:  true,
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Load reads the file named by OMADB_CONFIG, or returns Default when the
// variable is unset.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads configuration from path on top of Default. ${VAR}
// references in root are expanded from the environment.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "config file "+path)
		}
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "read "+path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse "+path)
	}

	cfg.Root = os.ExpandEnv(cfg.Root)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(Formats, c.Format) {
		errs = append(errs, errors.InvalidInput(errors.PhaseConfig,
			fmt.Sprintf("format %q must be one of: %s", c.Format, strings.Join(Formats, ", "))))
	}
	if c.Concurrency < 0 {
		errs = append(errs, errors.InvalidInput(errors.PhaseConfig, "concurrency must not be negative"))
	}
	if c.CatalogSize < 0 {
		errs = append(errs, errors.InvalidInput(errors.PhaseConfig, "catalog_size must not be negative"))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log.level"))
	}

	return stderrors.Join(errs...)
}

// Logger builds the zap logger described by the log section. Logs go
// to stderr so they never mix with table output.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "log.level")
	}

	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

// CatalogOptions translates the configuration into catalog load options.
func (c *Config) CatalogOptions() []catalog.Option {
	opts := []catalog.Option{
		catalog.WithAxes(c.Axes...),
		catalog.WithConcurrency(c.Concurrency),
	}
	if c.Require {
		opts = append(opts, catalog.Require())
	}
	if c.AllowUnknownClasses {
		opts = append(opts, catalog.AllowUnknownClasses())
	}
	if !c.Check {
		opts = append(opts, catalog.SkipCheck())
	}
	if c.CatalogSize > 0 {
		opts = append(opts, catalog.WithCheckOptions(oma.WithCatalogSize(c.CatalogSize)))
	}
	return opts
}

// DecodeOptions returns the decode options for single table files.
func (c *Config) DecodeOptions() []oma.DecodeOption {
	if c.AllowUnknownClasses {
		return []oma.DecodeOption{oma.AllowUnknownClasses()}
	}
	return nil
}

// CheckOptions returns the index check options for single table files.
func (c *Config) CheckOptions() []oma.CheckOption {
	if c.CatalogSize > 0 {
		return []oma.CheckOption{oma.WithCatalogSize(c.CatalogSize)}
	}
	return nil
}
