package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var summaryJSON bool

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize attendance per class date",
	Long: `Count present and absent students for every class date in the register.
Prints a table by default, or JSON with --json.

Examples:
  attendq summary
  attendq summary --json`,
	Run: func(cmd *cobra.Command, args []string) {
		app, cleanup := mustInitApp()
		defer cleanup()

		days, err := app.DailySummary()
		if err != nil {
			HandleError(err, "Failed to summarize attendance")
		}

		if summaryJSON {
			printJSON(days)
			return
		}
		renderSummary(os.Stdout, days)
	},
}

func renderSummary(w io.Writer, days []DaySummaryData) {
	if len(days) == 0 {
		fmt.Fprintln(w, "No class days recorded")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetHeader([]string{"Date", "Present", "Absent", "Rate"})

	for _, d := range days {
		rate := "-"
		if total := d.Present + d.Absent; total > 0 {
			rate = strconv.FormatFloat(float64(d.Present)/float64(total)*100, 'f', 1, 64) + "%"
		}
		table.Append([]string{d.Date, strconv.Itoa(d.Present), strconv.Itoa(d.Absent), rate})
	}
	table.Render()
}

func init() {
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "Print JSON instead of a table")
	rootCmd.AddCommand(summaryCmd)
}
