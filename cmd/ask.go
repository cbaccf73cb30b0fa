package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about attendance",
	Long: `Ask a natural language question about the attendance register.
Relative dates (today, yesterday, 3 days ago, next Monday, on Friday) are
resolved first, then Claude writes a query expression which is evaluated
against the register.

Requires ANTHROPIC_API_KEY environment variable to be set.

Examples:
  attendq ask "How many students were present yesterday?"
  attendq ask "Who was absent on 2024-01-02?"
  attendq ask --json "What is Alice's attendance rate?"`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		question := strings.Join(args, " ")

		app, cleanup := mustInitApp()
		defer cleanup()

		state := app.Ask(context.Background(), question)

		if askJSON {
			printJSON(state)
			return
		}
		fmt.Println(state.Answer)
	},
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the full pipeline state as JSON")
	rootCmd.AddCommand(askCmd)
}
