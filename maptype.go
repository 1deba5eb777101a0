package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ardanlabs/unwindgen/generator"
)

var mapTypeCmd = &cobra.Command{
	Use:   "map-type SPELLING...",
	Short: "Print the C++ spelling of binding type spellings",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMapType,
}

func init() {
	rootCmd.AddCommand(mapTypeCmd)
}

func runMapType(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m := generator.NewTypeMapper(cfg.Types)
	for _, spelling := range args {
		fmt.Fprintf(cmd.OutOrStdout(), "%s => %s\n", spelling, m.MapSpelling(spelling))
	}

	return nil
}
