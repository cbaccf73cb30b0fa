package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var studentCmd = &cobra.Command{
	Use:   "student [roll-number]",
	Short: "Get one student's attendance record",
	Long: `Get a student's attendance record by roll number: totals, rate and the
mark for every class date. Returns JSON.

Example:
  attendq student 12`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		roll := args[0]

		app, cleanup := mustInitApp()
		defer cleanup()

		student, err := app.GetStudent(roll)
		if err != nil {
			HandleError(err, "Failed to get student")
		}

		if student == nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "No student found with roll number: %s\n", roll)
			return
		}

		printJSON(student)
	},
}

func init() {
	rootCmd.AddCommand(studentCmd)
}
