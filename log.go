package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// setupLog sends logs to stderr, or to log_file when configured.
func setupLog() (func() error, error) {
	log.SetOutput(os.Stderr)
	log.SetLevel(log.WarnLevel)
	if viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		log.SetFormatter(log.LogfmtFormatter)
	}

	logFile := viper.GetString("log_file")
	if logFile == "" {
		return func() error { return nil }, nil
	}

	path, err := homedir.Expand(logFile)
	if err != nil {
		return nil, fmt.Errorf("unable to expand log file path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("unable to open log file: %w", err)
	}

	log.SetOutput(f)
	log.SetFormatter(log.LogfmtFormatter)
	log.SetReportTimestamp(true)
	return f.Close, nil
}
