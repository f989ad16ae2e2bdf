package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"simpleserver/internal/compression"
)

// CurrentVersion is the config schema version this build understands
const CurrentVersion = 1

// ConfigPathEnvVar points at an explicit config file
const ConfigPathEnvVar = "SIMPLESERVER_CONFIG"

// Config represents the complete simpleserver configuration
type Config struct {
	Version     int               `json:"version" mapstructure:"version" toml:"version" yaml:"version"`
	Server      ServerConfig      `json:"server" mapstructure:"server" toml:"server" yaml:"server"`
	Compression CompressionConfig `json:"compression" mapstructure:"compression" toml:"compression" yaml:"compression"`
	Logging     LoggingConfig     `json:"logging" mapstructure:"logging" toml:"logging" yaml:"logging"`
	AccessLog   AccessLogConfig   `json:"accessLog" mapstructure:"accessLog" toml:"accessLog" yaml:"accessLog"`
}

// ServerConfig contains listener and root directory settings
type ServerConfig struct {
	Root              string `json:"root" mapstructure:"root" toml:"root" yaml:"root"`
	Host              string `json:"host" mapstructure:"host" toml:"host" yaml:"host"`
	Port              int    `json:"port" mapstructure:"port" toml:"port" yaml:"port"`
	ConfineToRoot     bool   `json:"confineToRoot" mapstructure:"confineToRoot" toml:"confineToRoot" yaml:"confineToRoot"`
	Serial            bool   `json:"serial" mapstructure:"serial" toml:"serial" yaml:"serial"`
	ReadTimeoutMs     int    `json:"readTimeoutMs" mapstructure:"readTimeoutMs" toml:"readTimeoutMs" yaml:"readTimeoutMs"`
	WriteTimeoutMs    int    `json:"writeTimeoutMs" mapstructure:"writeTimeoutMs" toml:"writeTimeoutMs" yaml:"writeTimeoutMs"`
	IdleTimeoutMs     int    `json:"idleTimeoutMs" mapstructure:"idleTimeoutMs" toml:"idleTimeoutMs" yaml:"idleTimeoutMs"`
	ShutdownTimeoutMs int    `json:"shutdownTimeoutMs" mapstructure:"shutdownTimeoutMs" toml:"shutdownTimeoutMs" yaml:"shutdownTimeoutMs"`
}

// CompressionConfig contains encoder settings
type CompressionConfig struct {
	GzipLevel     int `json:"gzipLevel" mapstructure:"gzipLevel" toml:"gzipLevel" yaml:"gzipLevel"`
	BrotliQuality int `json:"brotliQuality" mapstructure:"brotliQuality" toml:"brotliQuality" yaml:"brotliQuality"`
	BrotliWindow  int `json:"brotliWindow" mapstructure:"brotliWindow" toml:"brotliWindow" yaml:"brotliWindow"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `json:"level" mapstructure:"level" toml:"level" yaml:"level"`
	File       string `json:"file,omitempty" mapstructure:"file" toml:"file,omitempty" yaml:"file,omitempty"`
	MaxSize    string `json:"maxSize,omitempty" mapstructure:"maxSize" toml:"maxSize,omitempty" yaml:"maxSize,omitempty"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups" toml:"maxBackups" yaml:"maxBackups"`
}

// AccessLogConfig contains the SQLite access log settings
type AccessLogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled" toml:"enabled" yaml:"enabled"`
	Path    string `json:"path,omitempty" mapstructure:"path" toml:"path,omitempty" yaml:"path,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	comp := compression.DefaultOptions()
	return &Config{
		Version: CurrentVersion,
		Server: ServerConfig{
			Root:              ".",
			Host:              "localhost",
			Port:              8080,
			ConfineToRoot:     true,
			Serial:            true,
			ShutdownTimeoutMs: 10000,
		},
		Compression: CompressionConfig{
			GzipLevel:     comp.GzipLevel,
			BrotliQuality: comp.BrotliQuality,
			BrotliWindow:  comp.BrotliWindow,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxBackups: 3,
		},
		AccessLog: AccessLogConfig{
			Enabled: false,
		},
	}
}

// setDefaults registers every default with viper so partial files keep them
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("server.root", d.Server.Root)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.confineToRoot", d.Server.ConfineToRoot)
	v.SetDefault("server.serial", d.Server.Serial)
	v.SetDefault("server.readTimeoutMs", d.Server.ReadTimeoutMs)
	v.SetDefault("server.writeTimeoutMs", d.Server.WriteTimeoutMs)
	v.SetDefault("server.idleTimeoutMs", d.Server.IdleTimeoutMs)
	v.SetDefault("server.shutdownTimeoutMs", d.Server.ShutdownTimeoutMs)
	v.SetDefault("compression.gzipLevel", d.Compression.GzipLevel)
	v.SetDefault("compression.brotliQuality", d.Compression.BrotliQuality)
	v.SetDefault("compression.brotliWindow", d.Compression.BrotliWindow)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
	v.SetDefault("accessLog.enabled", d.AccessLog.Enabled)
}

// LoadResult describes where a configuration came from
type LoadResult struct {
	Config       *Config
	ConfigPath   string
	UsedDefaults bool
	EnvOverrides []EnvOverride
}

// LoadConfig loads configuration from path, or from ./simpleserver.toml
// when path is empty. A missing default file yields DefaultConfig; a
// missing explicit file is an error.
func LoadConfig(path string) (*Config, error) {
	result, err := LoadConfigWithDetails(path)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// LoadConfigWithDetails loads configuration and reports its sources.
// Precedence: env overrides > file > defaults. An empty path falls back to
// SIMPLESERVER_CONFIG, then to simpleserver.toml in the working directory.
func LoadConfigWithDetails(path string) (*LoadResult, error) {
	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("simpleserver")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	result := &LoadResult{}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); path != "" || !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		result.UsedDefaults = true
	} else {
		result.ConfigPath = v.ConfigFileUsed()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	result.EnvOverrides = applyEnvOverrides(&cfg)
	result.Config = &cfg
	return result, nil
}

// Save writes the configuration to path as TOML
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return f.Close()
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}
	if strings.TrimSpace(c.Server.Root) == "" {
		return &ConfigError{Field: "server.root", Message: "must not be empty"}
	}
	// 0 asks the kernel for a free port
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return &ConfigError{Field: "server.port", Message: fmt.Sprintf("%d is not a valid port", c.Server.Port)}
	}

	timeouts := map[string]int{
		"server.readTimeoutMs":     c.Server.ReadTimeoutMs,
		"server.writeTimeoutMs":    c.Server.WriteTimeoutMs,
		"server.idleTimeoutMs":     c.Server.IdleTimeoutMs,
		"server.shutdownTimeoutMs": c.Server.ShutdownTimeoutMs,
	}
	for field, ms := range timeouts {
		if ms < 0 {
			return &ConfigError{Field: field, Message: "must not be negative"}
		}
	}

	if err := c.CompressionOptions().Validate(); err != nil {
		return &ConfigError{Field: "compression", Message: err.Error()}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "silent":
	default:
		return &ConfigError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	if c.Logging.MaxBackups < 0 {
		return &ConfigError{Field: "logging.maxBackups", Message: "must not be negative"}
	}

	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// BaseURL returns the URL printed at startup
func (c *Config) BaseURL() string {
	return "http://" + c.Addr() + "/"
}

// CompressionOptions converts the compression section for the encoders
func (c *Config) CompressionOptions() compression.Options {
	return compression.Options{
		GzipLevel:     c.Compression.GzipLevel,
		BrotliQuality: c.Compression.BrotliQuality,
		BrotliWindow:  c.Compression.BrotliWindow,
	}
}

// Timeout converts a millisecond setting to a duration
func Timeout(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
