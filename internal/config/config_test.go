package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
)

// clearEnv unsets every supported env var for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, "")
	for envVar := range envVarMappings {
		t.Setenv(envVar, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.Server.Root != "." {
		t.Errorf("Server.Root = %q, want %q", cfg.Server.Root, ".")
	}
	if cfg.Addr() != "localhost:8080" {
		t.Errorf("Addr() = %q, want %q", cfg.Addr(), "localhost:8080")
	}
	if cfg.BaseURL() != "http://localhost:8080/" {
		t.Errorf("BaseURL() = %q", cfg.BaseURL())
	}
	if !cfg.Server.ConfineToRoot {
		t.Error("ConfineToRoot should default to true")
	}
	if !cfg.Server.Serial {
		t.Error("Serial should default to true")
	}
	if cfg.Server.WriteTimeoutMs != 0 || cfg.Server.ReadTimeoutMs != 0 {
		t.Error("request timeouts should be disabled by default")
	}
	if cfg.AccessLog.Enabled {
		t.Error("access log should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad version", func(c *Config) { c.Version = 7 }, "version"},
		{"empty root", func(c *Config) { c.Server.Root = "  " }, "server.root"},
		{"port zero picks a free port", func(c *Config) { c.Server.Port = 0 }, ""},
		{"negative port", func(c *Config) { c.Server.Port = -1 }, "server.port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"negative timeout", func(c *Config) { c.Server.IdleTimeoutMs = -1 }, "server.idleTimeoutMs"},
		{"no shutdown deadline", func(c *Config) { c.Server.ShutdownTimeoutMs = 0 }, ""},
		{"gzip level", func(c *Config) { c.Compression.GzipLevel = 11 }, "compression"},
		{"brotli window", func(c *Config) { c.Compression.BrotliWindow = 30 }, "compression"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"warning alias", func(c *Config) { c.Logging.Level = "WARNING" }, ""},
		{"negative backups", func(c *Config) { c.Logging.MaxBackups = -2 }, "logging.maxBackups"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}

			cfgErr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.wantField)
			}
		})
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "server.port", Message: "bad"}
	if got := err.Error(); got != "config error in field 'server.port': bad" {
		t.Errorf("Error() = %q", got)
	}
}

func TestLoadConfig_Default(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	result, err := LoadConfigWithDetails("")
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}
	if !result.UsedDefaults {
		t.Error("UsedDefaults should be true when no config file exists")
	}
	if result.ConfigPath != "" {
		t.Errorf("ConfigPath = %q, want empty", result.ConfigPath)
	}
	if result.Config.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", result.Config.Server.Port)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	configPath := filepath.Join(dir, "site.toml")
	content := `
version = 1

[server]
root = "/srv/www"
port = 9090
confineToRoot = false

[compression]
brotliQuality = 9
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := LoadConfigWithDetails(configPath)
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}
	cfg := result.Config

	if result.UsedDefaults {
		t.Error("UsedDefaults should be false")
	}
	if result.ConfigPath != configPath {
		t.Errorf("ConfigPath = %q, want %q", result.ConfigPath, configPath)
	}
	if cfg.Server.Root != "/srv/www" {
		t.Errorf("Server.Root = %q", cfg.Server.Root)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ConfineToRoot {
		t.Error("ConfineToRoot should be false from file")
	}
	if cfg.Compression.BrotliQuality != 9 {
		t.Errorf("BrotliQuality = %d, want 9", cfg.Compression.BrotliQuality)
	}

	// Keys missing from the file keep their defaults
	if cfg.Server.Host != "localhost" {
		t.Errorf("Server.Host = %q, want default", cfg.Server.Host)
	}
	if !cfg.Server.Serial {
		t.Error("Serial should keep its default")
	}
	if cfg.Compression.BrotliWindow != 22 {
		t.Errorf("BrotliWindow = %d, want 22", cfg.Compression.BrotliWindow)
	}
}

func TestLoadConfig_StandardLocation(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	if err := os.WriteFile("simpleserver.toml", []byte("[server]\nport = 8181\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.Port != 8181 {
		t.Errorf("Server.Port = %d, want 8181", cfg.Server.Port)
	}
}

func TestLoadConfig_JSONAndEnvPath(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "custom.json")
	if err := os.WriteFile(configPath, []byte(`{"version": 1, "server": {"host": "0.0.0.0"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)

	result, err := LoadConfigWithDetails("")
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}
	if result.Config.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", result.Config.Server.Host)
	}
	if result.ConfigPath != configPath {
		t.Errorf("ConfigPath = %q, want %q", result.ConfigPath, configPath)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	if _, err := LoadConfig(filepath.Join(dir, "missing.toml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[server\nport = "), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(bad); err == nil {
		t.Error("expected error for malformed TOML")
	}
}

func TestConfig_Save(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "simpleserver.toml")

	cfg := DefaultConfig()
	cfg.Server.Port = 9999
	cfg.Logging.File = "/var/log/simpleserver.log"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var decoded Config
	if _, err := toml.DecodeFile(path, &decoded); err != nil {
		t.Fatalf("DecodeFile() error = %v", err)
	}
	if decoded.Server.Port != 9999 {
		t.Errorf("decoded Server.Port = %d, want 9999", decoded.Server.Port)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Logging.File != "/var/log/simpleserver.log" {
		t.Errorf("Logging.File = %q", loaded.Logging.File)
	}
	if loaded.Compression != cfg.Compression {
		t.Errorf("Compression = %+v, want %+v", loaded.Compression, cfg.Compression)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config, overrides []EnvOverride)
	}{
		{
			name:    "port override",
			envVars: map[string]string{"SIMPLESERVER_PORT": "3000"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Server.Port != 3000 {
					t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
				}
				if len(overrides) != 1 || overrides[0].ConfigKey != "server.port" {
					t.Errorf("overrides = %+v", overrides)
				}
			},
		},
		{
			name: "multiple overrides",
			envVars: map[string]string{
				"SIMPLESERVER_ROOT":           "/tmp/site",
				"SIMPLESERVER_SERIAL":         "false",
				"SIMPLESERVER_LOG_LEVEL":      "debug",
				"SIMPLESERVER_ACCESS_LOG":     "true",
				"SIMPLESERVER_BROTLI_QUALITY": "11",
			},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Server.Root != "/tmp/site" {
					t.Errorf("Server.Root = %q", cfg.Server.Root)
				}
				if cfg.Server.Serial {
					t.Error("Serial should be false")
				}
				if cfg.Logging.Level != "debug" {
					t.Errorf("Logging.Level = %q", cfg.Logging.Level)
				}
				if !cfg.AccessLog.Enabled {
					t.Error("AccessLog.Enabled should be true")
				}
				if cfg.Compression.BrotliQuality != 11 {
					t.Errorf("BrotliQuality = %d", cfg.Compression.BrotliQuality)
				}
				if len(overrides) != 5 {
					t.Errorf("len(overrides) = %d, want 5", len(overrides))
				}
			},
		},
		{
			name:    "invalid int ignored",
			envVars: map[string]string{"SIMPLESERVER_PORT": "http"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Server.Port != 8080 {
					t.Errorf("Server.Port = %d, want 8080 (default)", cfg.Server.Port)
				}
				if len(overrides) != 0 {
					t.Errorf("len(overrides) = %d, want 0", len(overrides))
				}
			},
		},
		{
			name:    "invalid bool ignored",
			envVars: map[string]string{"SIMPLESERVER_CONFINE_TO_ROOT": "maybe"},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if !cfg.Server.ConfineToRoot {
					t.Error("ConfineToRoot should keep its default")
				}
				if len(overrides) != 0 {
					t.Errorf("len(overrides) = %d, want 0", len(overrides))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := DefaultConfig()
			overrides := applyEnvOverrides(cfg)
			tt.validate(t, cfg, overrides)
		})
	}
}

func TestLoadConfigWithDetails_EnvOverridesApplied(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "simpleserver.toml")
	if err := os.WriteFile(configPath, []byte("[server]\nport = 9090\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SIMPLESERVER_PORT", "7070")

	result, err := LoadConfigWithDetails(configPath)
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}
	if result.Config.Server.Port != 7070 {
		t.Errorf("env should win over file: port = %d", result.Config.Server.Port)
	}
	if len(result.EnvOverrides) != 1 {
		t.Errorf("len(EnvOverrides) = %d, want 1", len(result.EnvOverrides))
	}
}

func TestGetSupportedEnvVars(t *testing.T) {
	vars := GetSupportedEnvVars()
	if len(vars) != len(envVarMappings) {
		t.Errorf("len = %d, want %d", len(vars), len(envVarMappings))
	}
	for i, v := range vars {
		if !strings.HasPrefix(v.EnvVar, "SIMPLESERVER_") {
			t.Errorf("unexpected env var %q", v.EnvVar)
		}
		if i > 0 && vars[i-1].EnvVar > v.EnvVar {
			t.Error("env vars should be sorted")
		}
		// Every mapping must be applicable
		if !applyOverride(DefaultConfig(), v.ConfigKey, "1") {
			t.Errorf("applyOverride(%q) rejected a valid value", v.ConfigKey)
		}
	}

	if applyOverride(DefaultConfig(), "server.unknown", "x") {
		t.Error("unknown key should not apply")
	}
}
