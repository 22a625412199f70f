package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// configCmd prints the effective configuration after merging file,
// environment and flags. The bot token is never printed.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := json.MarshalIndent(globalConfig, "", "  ")
		if err != nil {
			return fmt.Errorf("rendering config: %w", err)
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
