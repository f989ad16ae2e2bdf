package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"simpleserver/internal/accesslog"
	"simpleserver/internal/config"
	"simpleserver/internal/fileserver"
	"simpleserver/internal/server"
	"simpleserver/internal/slogutil"
	"simpleserver/internal/version"
)

var (
	serveRoot      string
	serveHost      string
	servePort      int
	serveAccessLog bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the file server",
	Long: `Serve the root directory over HTTP until interrupted.

Examples:
  simpleserver serve                      # Serve the working directory on localhost:8080
  simpleserver serve --root ./public      # Serve another directory
  simpleserver serve --port 9000 --access-log`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveRoot, "root", "", "Root directory to serve (default: server.root)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default: server.host)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default: server.port)")
	serveCmd.Flags().BoolVar(&serveAccessLog, "access-log", false, "Record requests in the access log")
}

// applyServeFlags lets explicitly set flags win over config and env
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Server.Root = serveRoot
	}
	if flags.Changed("host") {
		cfg.Server.Host = serveHost
	}
	if flags.Changed("port") {
		cfg.Server.Port = servePort
	}
	if flags.Changed("access-log") {
		cfg.AccessLog.Enabled = serveAccessLog
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	result, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := result.Config
	applyServeFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	factory := slogutil.NewLoggerFactory(cfg, logLevelFlag)
	defer factory.Close()
	logger, err := factory.ServerLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Debug("Starting simpleserver", "version", version.Info())
	if result.ConfigPath != "" {
		logger.Debug("Loaded config", "path", result.ConfigPath)
	}
	for _, ov := range result.EnvOverrides {
		logger.Debug("Applied environment override", "env", ov.EnvVar, "key", ov.ConfigKey)
	}

	files, err := fileserver.New(cfg.Server.Root, fileserver.Options{
		ConfineToRoot: cfg.Server.ConfineToRoot,
		Compression:   cfg.CompressionOptions(),
	}, logger)
	if err != nil {
		return err
	}

	opts := server.Options{
		Addr:         cfg.Addr(),
		Serial:       cfg.Server.Serial,
		ReadTimeout:  config.Timeout(cfg.Server.ReadTimeoutMs),
		WriteTimeout: config.Timeout(cfg.Server.WriteTimeoutMs),
		IdleTimeout:  config.Timeout(cfg.Server.IdleTimeoutMs),
	}

	if cfg.AccessLog.Enabled {
		dbPath, err := accessLogPath(cfg)
		if err != nil {
			return fmt.Errorf("failed to get access log path: %w", err)
		}
		store, err := accesslog.Open(dbPath, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.AccessLog = store
		logger.Info("Recording access log", "path", dbPath)
	}

	srv := server.NewServer(opts, files, logger)
	ln, err := srv.Listen()
	if err != nil {
		return err
	}
	useListenerPort(cfg, ln.Addr())

	// Setup graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Serve(ln)
	}()

	logger.Info("Serving directory", "root", files.Root(), "addr", cfg.Addr())
	fmt.Fprintf(cmd.OutOrStdout(), "Server running at %s\n", cfg.BaseURL())

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error", "error", err.Error())
			return err
		}
	case sig := <-shutdown:
		logger.Info("Received shutdown signal", "signal", sig.String())

		ctx, cancel := shutdownContext(cfg.Server.ShutdownTimeoutMs)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Error during shutdown", "error", err.Error())
			return err
		}

		logger.Info("Server stopped gracefully")
	}

	return nil
}

// useListenerPort records the bound port so the banner shows the real
// address when port 0 was requested
func useListenerPort(cfg *config.Config, addr net.Addr) {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		cfg.Server.Port = tcp.Port
	}
}

// shutdownContext bounds the graceful shutdown; 0 waits for in-flight
// requests without a deadline
func shutdownContext(timeoutMs int) (context.Context, context.CancelFunc) {
	if timeoutMs == 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), config.Timeout(timeoutMs))
}
