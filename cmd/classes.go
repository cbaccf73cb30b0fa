package cmd

import (
	"github.com/spf13/cobra"
)

var classesCmd = &cobra.Command{
	Use:   "classes",
	Short: "List the classes in the register",
	Long: `List the classes found in the class_name column of the attendance data.
The list is empty when the register is not partitioned by class. Pass one
of them to --class to scope questions and reports to that class.

Examples:
  attendq classes
  attendq --class 7A summary`,
	Run: func(cmd *cobra.Command, args []string) {
		app, cleanup := mustInitApp()
		defer cleanup()

		classes, err := app.Classes()
		if err != nil {
			HandleError(err, "Failed to list classes")
		}
		if classes == nil {
			classes = []string{}
		}

		printJSON(classes)
	},
}

func init() {
	rootCmd.AddCommand(classesCmd)
}
