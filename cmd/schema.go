package cmd

import (
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Describe the attendance register",
	Long: `Describe the attendance register the way the language model sees it:
metadata columns, class date columns, date range and counts.

Examples:
  attendq schema`,
	Run: func(cmd *cobra.Command, args []string) {
		app, cleanup := mustInitApp()
		defer cleanup()

		printJSON(app.Schema())
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
