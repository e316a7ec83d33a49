package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/example/controlcard/internal/core/grid"
)

// Default backend endpoints.
const (
	DefaultRedeemURL = "https://sarkonline.com/wp-json/control-cards/v1/update-code"
	DefaultSubmitURL = "https://www.sarkonline.com/wp-json/sarkcv/v1/insert"
)

// EnvHome overrides the configuration directory.
const EnvHome = "CONTROLCARD_HOME"

// Config is the controlcard configuration stored in <home>/config.json.
type Config struct {
	Rows        int           `json:"rows" mapstructure:"rows"`
	Database    string        `json:"database,omitempty" mapstructure:"database"` // defaults to <home>/controlcard.db
	RedeemURL   string        `json:"redeemURL" mapstructure:"redeemURL"`
	SubmitURL   string        `json:"submitURL" mapstructure:"submitURL"`
	HTTPTimeout string        `json:"httpTimeout" mapstructure:"httpTimeout"`
	Logging     LoggingConfig `json:"logging" mapstructure:"logging"`
	Scan        ScanConfig    `json:"scan" mapstructure:"scan"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `json:"format" mapstructure:"format"` // console or json
	Output string `json:"output" mapstructure:"output"` // stderr, stdout or a file path
}

// ScanConfig controls the scan drop directory.
type ScanConfig struct {
	WatchDir string `json:"watchDir,omitempty" mapstructure:"watchDir"` // defaults to <home>/scans
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Rows:        grid.DefaultRows,
		RedeemURL:   DefaultRedeemURL,
		SubmitURL:   DefaultSubmitURL,
		HTTPTimeout: "15s",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
	}
}

// Home returns the configuration directory: $CONTROLCARD_HOME, or
// ~/.controlcard.
func Home() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".controlcard"), nil
}

// LoadConfig reads <home>/config.json. A missing file yields the defaults.
// CONTROLCARD_* environment variables override file values, e.g.
// CONTROLCARD_ROWS=40 or CONTROLCARD_LOGGING_LEVEL=debug.
func LoadConfig(home string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("rows", def.Rows)
	v.SetDefault("database", "")
	v.SetDefault("redeemURL", def.RedeemURL)
	v.SetDefault("submitURL", def.SubmitURL)
	v.SetDefault("httpTimeout", def.HTTPTimeout)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.output", def.Logging.Output)
	v.SetDefault("scan.watchDir", "")

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(home)

	v.SetEnvPrefix("CONTROLCARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Database == "" {
		cfg.Database = filepath.Join(home, "controlcard.db")
	}
	if cfg.Scan.WatchDir == "" {
		cfg.Scan.WatchDir = filepath.Join(home, "scans")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig writes config.json to home.
func SaveConfig(home string, cfg *Config) error {
	if err := os.MkdirAll(home, 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(home, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Timeout returns HTTPTimeout as a duration.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil {
		return 15 * time.Second
	}
	return d
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Rows <= 0 {
		return &ConfigError{Field: "rows", Message: fmt.Sprintf("must be positive (got %d)", c.Rows)}
	}
	if c.HTTPTimeout != "" {
		if d, err := time.ParseDuration(c.HTTPTimeout); err != nil || d <= 0 {
			return &ConfigError{Field: "httpTimeout", Message: fmt.Sprintf("invalid duration %q", c.HTTPTimeout)}
		}
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", c.Logging.Format)}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
