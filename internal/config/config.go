package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log         Log         `toml:"log" yaml:"log"`
	Diagnostics Diagnostics `toml:"diagnostics" yaml:"diagnostics"`
	Output      Output      `toml:"output" yaml:"output"`
}

type Log struct {
	Level  string `toml:"level" yaml:"level"`   // debug, info, warn, error
	Format string `toml:"format" yaml:"format"` // text or json
}

type Diagnostics struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
	Color   bool `toml:"color" yaml:"color"`
}

type Output struct {
	Format string `toml:"format" yaml:"format"` // text or yaml
}

func Default() Config {
	return Config{
		Log:         Log{Level: "warn", Format: "text"},
		Diagnostics: Diagnostics{Enabled: true, Color: true},
		Output:      Output{Format: "text"},
	}
}

// Format is a configuration file syntax.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "toml"
}

// DetectFormat picks the syntax from the file extension, defaulting to TOML.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Load reads path over the defaults. Keys absent from the file keep their
// default value.
func Load(path string) (Config, error) {
	cfg := Default()
	content, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(content, DetectFormat(path), &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func Decode(content []byte, f Format, cfg *Config) error {
	switch f {
	case FormatYAML:
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return fmt.Errorf("parse yaml: %w", err)
		}
	default:
		if err := toml.Unmarshal(content, cfg); err != nil {
			return fmt.Errorf("parse toml: %w", err)
		}
	}
	return nil
}

const (
	EnvLogLevel     = "LOGSIM_LOG_LEVEL"
	EnvLogFormat    = "LOGSIM_LOG_FORMAT"
	EnvColor        = "LOGSIM_COLOR"
	EnvOutputFormat = "LOGSIM_OUTPUT_FORMAT"
)

// LoadEnv loads envPath into the process environment, when it exists, and
// applies the LOGSIM_* overrides to cfg.
func LoadEnv(cfg Config, envPath string) (Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("load %s: %w", envPath, err)
		}
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		cfg.Log.Level = v
	}
	if v, ok := os.LookupEnv(EnvLogFormat); ok {
		cfg.Log.Format = v
	}
	if v, ok := os.LookupEnv(EnvColor); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", EnvColor, err)
		}
		cfg.Diagnostics.Color = b
	}
	if v, ok := os.LookupEnv(EnvOutputFormat); ok {
		cfg.Output.Format = v
	}
	return cfg, cfg.Validate()
}

var ErrInvalid = errors.New("invalid configuration")

func (c Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalid, c.Log.Format)
	}
	switch c.Output.Format {
	case "text", "yaml":
	default:
		return fmt.Errorf("%w: output format %q", ErrInvalid, c.Output.Format)
	}
	return nil
}
