// Package config provides YAML-based configuration loading for meshrpc.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"meshrpc/pkg/codec"
	"meshrpc/pkg/transport"
)

// Guard policies for repeated starts.
const (
	GuardPerKind = "per-kind"
	GuardGlobal  = "global"
)

// Config is the root application configuration.
type Config struct {
	// AppName optional logical name of the node, published in contact cards
	AppName string `mapstructure:"app_name"`

	// Log holds logging configuration
	Log LogConfig `mapstructure:"log"`

	// RPC controls transport bootstrap and the wire encoding
	RPC RPCConfig `mapstructure:"rpc"`

	// Metrics controls the prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: list of outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	// Rotation controls file rotation when writing to files
	Rotation RotationConfig `mapstructure:"rotation"`
	// Development toggles development-friendly logging options
	Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// RPCConfig selects transports and the process-wide encoding.
type RPCConfig struct {
	// Encoding: cbor, proto or json
	Encoding string `mapstructure:"encoding"`
	// Guard: per-kind or global (see rpc.GuardPolicy)
	Guard string `mapstructure:"guard"`

	StartTimeoutMS int `mapstructure:"start_timeout_ms"`
	StopTimeoutMS  int `mapstructure:"stop_timeout_ms"`

	// ContactFile, when set, receives the contact card of the first started transport
	ContactFile string `mapstructure:"contact_file"`

	// Transports are started in order
	Transports []TransportConfig `mapstructure:"transports"`
}

// StartTimeout returns the per-transport start deadline.
func (c RPCConfig) StartTimeout() time.Duration {
	return time.Duration(c.StartTimeoutMS) * time.Millisecond
}

// StopTimeout returns the per-transport stop deadline.
func (c RPCConfig) StopTimeout() time.Duration {
	return time.Duration(c.StopTimeoutMS) * time.Millisecond
}

// MetricsConfig controls the prometheus HTTP endpoint.
type MetricsConfig struct {
	// Listen address for /metrics; empty disables the endpoint
	Listen string `mapstructure:"listen"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		AppName: "meshrpc-node",
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			Outputs:     []string{"stdout"},
			Development: true,
			Rotation: RotationConfig{
				Enable:     false,
				Filename:   "logs/meshrpc.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		RPC: RPCConfig{
			Encoding:       "cbor",
			Guard:          GuardPerKind,
			StartTimeoutMS: 5000,
			StopTimeoutMS:  5000,
			Transports: []TransportConfig{
				{Kind: "tcp", Contact: "127.0.0.1:7777", Mandatory: true},
			},
		},
	}
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment overrides.
// Environment variables use the prefix MESHRPC and `.`/`-` are replaced with `_`.
// Example: MESHRPC_RPC_ENCODING=json
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MESHRPC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults for viper so env-only configs work
	v.SetDefault("app_name", cfg.AppName)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	v.SetDefault("rpc.encoding", cfg.RPC.Encoding)
	v.SetDefault("rpc.guard", cfg.RPC.Guard)
	v.SetDefault("rpc.start_timeout_ms", cfg.RPC.StartTimeoutMS)
	v.SetDefault("rpc.stop_timeout_ms", cfg.RPC.StopTimeoutMS)
	v.SetDefault("rpc.contact_file", cfg.RPC.ContactFile)
	v.SetDefault("rpc.transports", cfg.RPC.Transports)
	v.SetDefault("metrics.listen", cfg.Metrics.Listen)

	if path == "" {
		if envPath := os.Getenv("MESHRPC_CONFIG"); envPath != "" {
			path = envPath
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		// Search common locations with base name `meshrpc`
		v.SetConfigName("meshrpc")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".meshrpc"))
		}
	}

	// Read config file if present; if not found, continue with defaults/env
	if err := v.ReadInConfig(); err != nil {
		var viperConfigFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &viperConfigFileNotFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes the configuration and reports every invalid field.
func (c *Config) Validate() error {
	var errs []error

	lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch lvl {
	case "debug", "info", "warn", "warning", "error":
		// ok
	default:
		errs = append(errs, fmt.Errorf("invalid log.level: %q", c.Log.Level))
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stdout"}
	}
	if strings.TrimSpace(c.AppName) == "" {
		c.AppName = "meshrpc-node"
	}

	if _, err := codec.ParseKind(c.RPC.Encoding); err != nil {
		errs = append(errs, fmt.Errorf("invalid rpc.encoding: %w", err))
	}
	c.RPC.Guard = strings.ToLower(strings.TrimSpace(c.RPC.Guard))
	switch c.RPC.Guard {
	case "":
		c.RPC.Guard = GuardPerKind
	case GuardPerKind, GuardGlobal:
	default:
		errs = append(errs, fmt.Errorf("invalid rpc.guard: %q", c.RPC.Guard))
	}
	if c.RPC.StartTimeoutMS < 0 || c.RPC.StopTimeoutMS < 0 {
		errs = append(errs, errors.New("rpc timeouts must not be negative"))
	}

	seen := make(map[transport.Kind]bool)
	for i := range c.RPC.Transports {
		c.RPC.Transports[i].Kind = strings.ToLower(strings.TrimSpace(c.RPC.Transports[i].Kind))
		k, err := transport.ParseKind(c.RPC.Transports[i].Kind)
		if err != nil {
			errs = append(errs, fmt.Errorf("rpc.transports[%d]: %w", i, err))
			continue
		}
		if seen[k] {
			errs = append(errs, fmt.Errorf("rpc.transports[%d]: duplicate kind %s", i, k))
		}
		seen[k] = true
	}
	return errors.Join(errs...)
}
