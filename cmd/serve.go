package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	addr     string
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long: `Start the HTTP server with a browser chat page and a JSON API.

Endpoints:
  POST /api/ask                 {"question": "..."} -> pipeline state
  GET  /api/schema              register summary
  GET  /api/students?q=         student search
  GET  /api/students/{roll}     one student's record
  GET  /api/summary             per-date counts
  GET  /metrics                 Prometheus metrics`,
		Run: func(cmd *cobra.Command, args []string) {
			runServe(cmd)
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "Address to listen on")
}

func runServe(cmd *cobra.Command) {
	if cmd.Flags().Changed("addr") {
		cfg.Addr = addr
	}

	app, cleanup := mustInitApp()
	defer cleanup()

	fmt.Printf("Starting attendq web server...\n")
	fmt.Printf("Data directory: %s\n", cfg.DataDir)
	fmt.Printf("Address: %s\n\n", cfg.Addr)

	if err := StartServer(app, cfg); err != nil {
		HandleError(err, "Server failed")
	}
}
