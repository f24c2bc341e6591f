package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"hexdis/internal/config"
	"hexdis/internal/format"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "schema [config|output]",
		Short:     "Generate JSON schema for the config file or the JSON output",
		Long:      "Generate JSON schema for the hexdis config file (default) or for the document written by --json",
		Hidden:    true,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"config", "output"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var target any = &config.Config{}
			if len(args) == 1 && args[0] == "output" {
				target = &format.Document{}
			}
			reflector := new(jsonschema.Reflector)
			bts, err := json.MarshalIndent(reflector.Reflect(target), "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal schema: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(bts))
			return nil
		},
	}
}
