package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ardanlabs/unwindgen/generator"
	"github.com/ardanlabs/unwindgen/parser"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the parsed declarations and whether each is wrapped",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringP("input", "i", "", "File holding the extern block")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("input") {
		cfg.Input, _ = cmd.Flags().GetString("input")
	}
	if cfg.Input == "" {
		return fmt.Errorf("no input file: pass --input or set input in the config")
	}

	src, err := os.ReadFile(cfg.Input)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	decls, err := parser.Parse(string(src))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", cfg.Input, err)
	}

	gen := generator.New(decls, cfg.Options(nil))
	out := cmd.OutOrStdout()

	for _, d := range decls {
		status := "wrap"
		if gen.Skipped(d.Name) {
			status = "skip"
		}
		fmt.Fprintf(out, "%s  %s\n", status, signature(d))
	}

	return nil
}

func signature(d parser.Declaration) string {
	var b strings.Builder

	if d.IsPublic() {
		b.WriteString(d.Visibility + " ")
	}
	b.WriteString("fn " + d.Name)
	if d.Lifetime != "" {
		b.WriteString("<" + d.Lifetime + ">")
	}

	params := make([]string, len(d.Args))
	for i, a := range d.Args {
		params[i] = a.Name + ": " + a.Type.Spelling
	}
	b.WriteString("(" + strings.Join(params, ", ") + ")")

	if d.Return != nil {
		b.WriteString(" -> " + d.Return.Spelling)
	}

	return b.String()
}
