package config

import (
	"os"
	"sort"
	"strconv"
)

// EnvOverride records a configuration value taken from the environment
type EnvOverride struct {
	EnvVar    string `json:"envVar" yaml:"envVar"`
	ConfigKey string `json:"configKey" yaml:"configKey"`
	Value     string `json:"value" yaml:"value"`
}

// envVarMappings maps environment variables to config keys
var envVarMappings = map[string]string{
	"SIMPLESERVER_ROOT":             "server.root",
	"SIMPLESERVER_HOST":             "server.host",
	"SIMPLESERVER_PORT":             "server.port",
	"SIMPLESERVER_CONFINE_TO_ROOT":  "server.confineToRoot",
	"SIMPLESERVER_SERIAL":           "server.serial",
	"SIMPLESERVER_WRITE_TIMEOUT_MS": "server.writeTimeoutMs",
	"SIMPLESERVER_GZIP_LEVEL":       "compression.gzipLevel",
	"SIMPLESERVER_BROTLI_QUALITY":   "compression.brotliQuality",
	"SIMPLESERVER_LOG_LEVEL":        "logging.level",
	"SIMPLESERVER_LOG_FILE":         "logging.file",
	"SIMPLESERVER_ACCESS_LOG":       "accessLog.enabled",
	"SIMPLESERVER_ACCESS_LOG_PATH":  "accessLog.path",
}

// GetSupportedEnvVars returns the supported environment variables, sorted
func GetSupportedEnvVars() []EnvOverride {
	vars := make([]EnvOverride, 0, len(envVarMappings))
	for envVar, key := range envVarMappings {
		vars = append(vars, EnvOverride{EnvVar: envVar, ConfigKey: key})
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].EnvVar < vars[j].EnvVar })
	return vars
}

// applyEnvOverrides applies set environment variables to cfg.
// Values that fail to parse are skipped.
func applyEnvOverrides(cfg *Config) []EnvOverride {
	var overrides []EnvOverride
	for _, v := range GetSupportedEnvVars() {
		value, ok := os.LookupEnv(v.EnvVar)
		if !ok || value == "" {
			continue
		}
		if applyOverride(cfg, v.ConfigKey, value) {
			overrides = append(overrides, EnvOverride{EnvVar: v.EnvVar, ConfigKey: v.ConfigKey, Value: value})
		}
	}
	return overrides
}

// applyOverride sets one config key from a string value
func applyOverride(cfg *Config, key string, value string) bool {
	switch key {
	case "server.root":
		cfg.Server.Root = value
	case "server.host":
		cfg.Server.Host = value
	case "server.port":
		return setInt(&cfg.Server.Port, value)
	case "server.confineToRoot":
		return setBool(&cfg.Server.ConfineToRoot, value)
	case "server.serial":
		return setBool(&cfg.Server.Serial, value)
	case "server.writeTimeoutMs":
		return setInt(&cfg.Server.WriteTimeoutMs, value)
	case "compression.gzipLevel":
		return setInt(&cfg.Compression.GzipLevel, value)
	case "compression.brotliQuality":
		return setInt(&cfg.Compression.BrotliQuality, value)
	case "logging.level":
		cfg.Logging.Level = value
	case "logging.file":
		cfg.Logging.File = value
	case "accessLog.enabled":
		return setBool(&cfg.AccessLog.Enabled, value)
	case "accessLog.path":
		cfg.AccessLog.Path = value
	default:
		return false
	}
	return true
}

func setInt(dst *int, value string) bool {
	n, err := strconv.Atoi(value)
	if err != nil {
		return false
	}
	*dst = n
	return true
}

func setBool(dst *bool, value string) bool {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	*dst = b
	return true
}
