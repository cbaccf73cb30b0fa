package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	queryExpr   string
	queryString string
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a query expression or raw SQL",
	Long: `Run a query without involving the language model.

--expr evaluates an expression with the configured engine against a copy of
the register bound to df, exactly as a synthesized expression would be.
--sql runs any DuckDB SQL against the attendance database.

Examples:
  attendq query --expr 'count(df.rows, #["2024-01-02"] == "P")'
  attendq query --expr 'presentOn("2024-01-02")'
  attendq query --engine sql --expr 'SELECT count(*) FROM df WHERE "2024-01-02" = '"'"'P'"'"''
  attendq query --sql "DESCRIBE attendance"`,
	Run: func(cmd *cobra.Command, args []string) {
		if queryExpr == "" && queryString == "" {
			HandleError(fmt.Errorf("one of --expr or --sql is required"), "Missing query parameter")
		}

		app, cleanup := mustInitApp()
		defer cleanup()

		if queryString != "" {
			rows, err := app.ExecuteQuery(queryString)
			if err != nil {
				HandleError(err, "Failed to execute query")
			}
			printJSON(rows)
			return
		}

		value, err := app.Eval(context.Background(), queryExpr)
		if err != nil {
			HandleError(err, "Failed to evaluate expression")
		}
		printJSON(value)
	},
}

func init() {
	queryCmd.Flags().StringVarP(&queryExpr, "expr", "x", "", "Expression to evaluate against df")
	queryCmd.Flags().StringVarP(&queryString, "sql", "q", "", "SQL query to execute against the database")
	queryCmd.MarkFlagsMutuallyExclusive("expr", "sql")
	rootCmd.AddCommand(queryCmd)
}
