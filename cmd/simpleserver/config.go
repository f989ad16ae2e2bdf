package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"simpleserver/internal/config"
	"simpleserver/internal/paths"
)

var (
	configFormat    string
	configInitForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage simpleserver configuration",
	Long:  "View and manage simpleserver configuration stored in " + paths.ConfigFile,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the effective configuration after defaults, file and environment.

Examples:
  simpleserver config show                # Pretty-print current config
  simpleserver config show --format json  # JSON with sources
  simpleserver config show --format toml  # Ready to save as ` + paths.ConfigFile,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long:  "Write the default configuration to " + paths.ConfigFile + " (or --config)",
	RunE:  runConfigInit,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List supported environment variables",
	Long:  "Display all supported simpleserver environment variable overrides",
	Run:   runConfigEnv,
}

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "human", "Output format (human, json, yaml, toml)")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEnvCmd)
	rootCmd.AddCommand(configCmd)
}

// ConfigShowResponse is the response format for config show
type ConfigShowResponse struct {
	ConfigPath   string               `json:"configPath,omitempty" yaml:"configPath,omitempty"`
	UsedDefaults bool                 `json:"usedDefaults" yaml:"usedDefaults"`
	EnvOverrides []config.EnvOverride `json:"envOverrides,omitempty" yaml:"envOverrides,omitempty"`
	Config       *config.Config       `json:"config" yaml:"config"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	result, err := loadConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	return writeConfig(cmd.OutOrStdout(), result, configFormat)
}

func writeConfig(w io.Writer, result *config.LoadResult, format string) error {
	response := ConfigShowResponse{
		ConfigPath:   result.ConfigPath,
		UsedDefaults: result.UsedDefaults,
		EnvOverrides: result.EnvOverrides,
		Config:       result.Config,
	}

	switch format {
	case "json":
		output, err := json.MarshalIndent(response, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(output))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(response); err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return enc.Close()
	case "toml":
		// Only the config itself; the output is a valid config file
		return toml.NewEncoder(w).Encode(result.Config)
	case "human":
		writeConfigHuman(w, result)
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeConfigHuman(w io.Writer, result *config.LoadResult) {
	fmt.Fprintln(w, "simpleserver Configuration")
	fmt.Fprintln(w, strings.Repeat("─", 50))

	if result.UsedDefaults {
		fmt.Fprintln(w, "Source: defaults (no config file found)")
	} else if result.ConfigPath != "" {
		fmt.Fprintf(w, "Source: %s\n", result.ConfigPath)
	}

	if len(result.EnvOverrides) > 0 {
		fmt.Fprintln(w, "\nEnvironment Overrides:")
		for _, ov := range result.EnvOverrides {
			fmt.Fprintf(w, "  %s=%s → %s\n", ov.EnvVar, ov.Value, ov.ConfigKey)
		}
	}

	cfg := result.Config
	defaults := config.DefaultConfig()

	fmt.Fprintln(w)
	printConfigSection(w, "version", cfg.Version, defaults.Version)

	fmt.Fprintln(w, "\nserver:")
	printConfigSection(w, "  root", cfg.Server.Root, defaults.Server.Root)
	printConfigSection(w, "  host", cfg.Server.Host, defaults.Server.Host)
	printConfigSection(w, "  port", cfg.Server.Port, defaults.Server.Port)
	printConfigSection(w, "  confineToRoot", cfg.Server.ConfineToRoot, defaults.Server.ConfineToRoot)
	printConfigSection(w, "  serial", cfg.Server.Serial, defaults.Server.Serial)
	printConfigSection(w, "  readTimeoutMs", cfg.Server.ReadTimeoutMs, defaults.Server.ReadTimeoutMs)
	printConfigSection(w, "  writeTimeoutMs", cfg.Server.WriteTimeoutMs, defaults.Server.WriteTimeoutMs)
	printConfigSection(w, "  idleTimeoutMs", cfg.Server.IdleTimeoutMs, defaults.Server.IdleTimeoutMs)
	printConfigSection(w, "  shutdownTimeoutMs", cfg.Server.ShutdownTimeoutMs, defaults.Server.ShutdownTimeoutMs)

	fmt.Fprintln(w, "\ncompression:")
	printConfigSection(w, "  gzipLevel", cfg.Compression.GzipLevel, defaults.Compression.GzipLevel)
	printConfigSection(w, "  brotliQuality", cfg.Compression.BrotliQuality, defaults.Compression.BrotliQuality)
	printConfigSection(w, "  brotliWindow", cfg.Compression.BrotliWindow, defaults.Compression.BrotliWindow)

	fmt.Fprintln(w, "\nlogging:")
	printConfigSection(w, "  level", cfg.Logging.Level, defaults.Logging.Level)
	printConfigSection(w, "  file", valueOrDefault(cfg.Logging.File, "(stderr only)"), "(stderr only)")
	printConfigSection(w, "  maxSize", cfg.Logging.MaxSize, defaults.Logging.MaxSize)
	printConfigSection(w, "  maxBackups", cfg.Logging.MaxBackups, defaults.Logging.MaxBackups)

	fmt.Fprintln(w, "\naccessLog:")
	printConfigSection(w, "  enabled", cfg.AccessLog.Enabled, defaults.AccessLog.Enabled)
	printConfigSection(w, "  path", valueOrDefault(cfg.AccessLog.Path, "(default)"), "(default)")

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Use 'simpleserver config show --format json' for machine-readable output")
	fmt.Fprintln(w, "Use 'simpleserver config env' to see supported environment variables")
}

func printConfigSection(w io.Writer, name string, value, defaultValue interface{}) {
	modified := ""
	if !isEqual(value, defaultValue) {
		modified = fmt.Sprintf(" (default: %v)", defaultValue)
	}
	fmt.Fprintf(w, "%s: %v%s\n", name, value, modified)
}

func isEqual(a, b interface{}) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPathFlag
	if path == "" {
		path = paths.ConfigFile
	}

	if !configInitForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
	return nil
}

func runConfigEnv(cmd *cobra.Command, args []string) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Supported Environment Variables")
	fmt.Fprintln(w, strings.Repeat("─", 50))
	fmt.Fprintln(w)

	for _, v := range config.GetSupportedEnvVars() {
		marker := ""
		if os.Getenv(v.EnvVar) != "" {
			marker = " (set)"
		}
		fmt.Fprintf(w, "  %-32s → %s%s\n", v.EnvVar, v.ConfigKey, marker)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-32s → %s\n", config.ConfigPathEnvVar, "config file path")
	fmt.Fprintf(w, "  %-32s → %s\n", paths.HomeEnvVar, "home directory (access log default)")
}
