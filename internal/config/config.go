package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	pelletier "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"pydocket/internal/errors"
)

// FileName is the configuration file looked up in the working directory.
const FileName = ".pydocket.toml"

// EnvPrefix prefixes environment overrides, e.g. PYDOCKET_LOGGING_LEVEL.
const EnvPrefix = "PYDOCKET"

// CurrentVersion is the only supported schema version.
const CurrentVersion = 1

// Config represents the complete pydocket configuration
type Config struct {
	Version int           `toml:"version" mapstructure:"version"`
	Logging LoggingConfig `toml:"logging" mapstructure:"logging"`
	Read    ReadConfig    `toml:"read" mapstructure:"read"`
	Verify  VerifyConfig  `toml:"verify" mapstructure:"verify"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `toml:"level" mapstructure:"level"`
	Format string `toml:"format" mapstructure:"format"`
	File   string `toml:"file,omitempty" mapstructure:"file"`
}

// ReadConfig controls `pydocket read` output
type ReadConfig struct {
	Format string `toml:"format" mapstructure:"format"`
}

// VerifyConfig controls how documented example values are compared
type VerifyConfig struct {
	// Evaluate treats documented values as expressions rather than text.
	Evaluate bool `toml:"evaluate" mapstructure:"evaluate"`
	// Overrides set Evaluate for single example passages by breadcrumb path.
	Overrides []Override `toml:"override,omitempty" mapstructure:"override"`
}

// Override sets Evaluate for one example passage.
type Override struct {
	Path     string `toml:"path" mapstructure:"path"`
	Evaluate bool   `toml:"evaluate" mapstructure:"evaluate"`
}

// OverrideMap returns the overrides keyed by path.
func (v VerifyConfig) OverrideMap() map[string]bool {
	out := make(map[string]bool, len(v.Overrides))
	for _, o := range v.Overrides {
		out[o.Path] = o.Evaluate
	}
	return out
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "human",
		},
		Read: ReadConfig{
			Format: "yaml",
		},
		Verify: VerifyConfig{
			Evaluate: true,
		},
	}
}

// LoadConfig loads dir/.pydocket.toml, falling back to defaults when the
// file does not exist. PYDOCKET_* environment variables override both.
func LoadConfig(dir string) (*Config, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetDefault("version", def.Version)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.file", def.Logging.File)
	v.SetDefault("read.format", def.Read.Format)
	v.SetDefault("verify.evaluate", def.Verify.Evaluate)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		if err := CheckKeys(path); err != nil {
			return nil, err
		}
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, &ConfigError{Field: FileName, Message: err.Error()}
		}
	} else if !os.IsNotExist(err) {
		return nil, &ConfigError{Field: FileName, Message: err.Error()}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Field: FileName, Message: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CheckKeys rejects keys in the file at path that Config does not define.
func CheckKeys(path string) error {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return &ConfigError{Field: filepath.Base(path), Message: err.Error()}
	}
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}
	keys := make([]string, 0, len(undecoded))
	for _, k := range undecoded {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	return &ConfigError{Field: keys[0], Message: "unknown key(s): " + strings.Join(keys, ", ")}
}

// Save writes the configuration to dir/.pydocket.toml
func (c *Config) Save(dir string) error {
	data, err := pelletier.Marshal(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.WriteString("# pydocket configuration\n")
	buf.Write(data)
	return os.WriteFile(filepath.Join(dir, FileName), buf.Bytes(), 0644)
}

var (
	levels        = []string{"debug", "info", "warn", "warning", "error", "silent"}
	logFormats    = []string{"human", "json"}
	outputFormats = []string{"yaml", "json"}
)

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}
	if !oneOf(c.Logging.Level, levels) {
		return &ConfigError{Field: "logging.level", Message: "must be one of " + strings.Join(levels, ", ")}
	}
	if !oneOf(c.Logging.Format, logFormats) {
		return &ConfigError{Field: "logging.format", Message: "must be one of " + strings.Join(logFormats, ", ")}
	}
	if !oneOf(c.Read.Format, outputFormats) {
		return &ConfigError{Field: "read.format", Message: "must be one of " + strings.Join(outputFormats, ", ")}
	}
	for i, o := range c.Verify.Overrides {
		if strings.TrimSpace(o.Path) == "" {
			return &ConfigError{Field: fmt.Sprintf("verify.override[%d].path", i), Message: "must not be empty"}
		}
	}
	return nil
}

func oneOf(s string, allowed []string) bool {
	s = strings.ToLower(s)
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}

// Unwrap classifies every ConfigError as CONFIG_INVALID.
func (e *ConfigError) Unwrap() error {
	return errors.New(errors.ConfigInvalid, e.Message, nil)
}
