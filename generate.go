package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ardanlabs/unwindgen/config"
	"github.com/ardanlabs/unwindgen/generator"
	"github.com/ardanlabs/unwindgen/parser"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the binding and native wrapper files",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringP("input", "i", "", "File holding the extern block")
	generateCmd.Flags().StringP("output", "o", "", "Output directory for the generated files")
	generateCmd.Flags().String("suffix", "", "Suffix appended to native wrapper names")
	generateCmd.Flags().StringSlice("skip", nil, "Declarations to leave unwrapped (replaces the configured list)")
	generateCmd.Flags().Bool("watch", false, "Regenerate whenever the input or config file changes")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	if err := generateFiles(cmd.OutOrStdout(), cfg); err != nil {
		return err
	}

	watch, _ := cmd.Flags().GetBool("watch")
	if !watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	current := cfg
	paths := func() []string { return watchPaths(current) }

	return watchFiles(ctx, paths, func() error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		current = cfg
		return generateFiles(cmd.OutOrStdout(), cfg)
	})
}

// watchPaths names the input and the config file in effect. The default
// config file is watched even while it does not exist, so creating it
// triggers a reload.
func watchPaths(cfg config.Config) []string {
	return []string{cfg.Input, configFile()}
}

// resolveConfig loads the config file and applies the flags that were set
// on the command line.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Input, _ = flags.GetString("input")
	}
	if flags.Changed("output") {
		cfg.OutputDir, _ = flags.GetString("output")
	}
	if flags.Changed("suffix") {
		cfg.Suffix, _ = flags.GetString("suffix")
	}
	if flags.Changed("skip") {
		cfg.Skip, _ = flags.GetStringSlice("skip")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func generateFiles(out io.Writer, cfg config.Config) error {
	src, err := os.ReadFile(cfg.Input)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	decls, err := parser.Parse(string(src))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", cfg.Input, err)
	}

	gen := generator.New(decls, cfg.Options(slog.Default()))

	files, err := gen.Generate()
	if err != nil {
		return fmt.Errorf("generating wrappers: %w", err)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		path := filepath.Join(cfg.OutputDir, name)
		if err := os.WriteFile(path, []byte(files[name]), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
		fmt.Fprintf(out, "Generated: %s\n", path)
	}

	slog.Info("wrappers generated", "input", cfg.Input, "declarations", len(decls))

	return nil
}
