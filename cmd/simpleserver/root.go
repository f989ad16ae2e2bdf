package main

import (
	"github.com/spf13/cobra"

	"simpleserver/internal/config"
	"simpleserver/internal/paths"
	"simpleserver/internal/version"
)

var (
	// configPathFlag is the CLI --config flag value
	configPathFlag string
	// logLevelFlag is the CLI --log-level flag value
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "simpleserver",
	Short: "simpleserver - static file server",
	Long: `simpleserver serves the files of one directory over HTTP.

Requests map directly onto files under the root directory; "/" serves
index.html. Responses are compressed with Brotli or gzip when the client
accepts them.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(version.Full() + "\n")
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "",
		"Config file (default: ./"+paths.ConfigFile+", or $"+config.ConfigPathEnvVar+")")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level: debug, info, warn, error, silent (overrides config)")
}

// loadConfig loads configuration with details for the --config flag
func loadConfig() (*config.LoadResult, error) {
	return config.LoadConfigWithDetails(configPathFlag)
}

// accessLogPath returns the configured access-log path or the default under the home directory
func accessLogPath(cfg *config.Config) (string, error) {
	if cfg.AccessLog.Path != "" {
		return cfg.AccessLog.Path, nil
	}
	return paths.GetAccessLogPath()
}
