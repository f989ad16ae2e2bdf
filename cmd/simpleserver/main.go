package main

import (
	"os"

	"simpleserver/internal/slogutil"
)

func main() {
	logger := slogutil.NewLogger(os.Stderr, slogutil.LevelFromString("info"))

	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command execution failed", "error", err.Error())
		os.Exit(1)
	}
}
