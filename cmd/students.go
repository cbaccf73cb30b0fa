package cmd

import (
	"github.com/spf13/cobra"
)

var searchLimit int

var studentsCmd = &cobra.Command{
	Use:   "students [query]",
	Short: "Search for students",
	Long: `Search for students by name (case-insensitive, partial) or roll number.
With no query every student is listed. Results are returned as JSON.

Examples:
  attendq students
  attendq students ali
  attendq students --limit 5 12`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		query := ""
		if len(args) == 1 {
			query = args[0]
		}

		app, cleanup := mustInitApp()
		defer cleanup()

		students, err := app.SearchStudents(query, searchLimit)
		if err != nil {
			HandleError(err, "Failed to search students")
		}

		printJSON(students)
	},
}

func init() {
	studentsCmd.Flags().IntVarP(&searchLimit, "limit", "l", 100, "Maximum number of results")
	rootCmd.AddCommand(studentsCmd)
}
