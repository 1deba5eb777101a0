package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ardanlabs/unwindgen/config"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "unwindgen",
	Short: "Generate exception-safe wrappers for the extern block of a binding crate",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(verbose)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ./"+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// configFile returns the file named by --config or the default file in
// the working directory.
func configFile() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultFile
}

// loadConfig reads configFile. A missing default file yields the defaults;
// a missing --config file is an error.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configFile())
	if configPath == "" && errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}

	return cfg, err
}
