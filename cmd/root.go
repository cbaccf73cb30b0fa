package cmd

import (
	"github.com/spf13/cobra"

	"attendq/internal/config"
)

var (
	cfg        config.Config
	configPath string

	rootCmd = &cobra.Command{
		Use:   "attendq",
		Short: "attendq - Ask questions about class attendance",
		Long: `attendq answers natural-language questions about a class attendance
register. Questions go through date normalization, expression synthesis
with Claude, evaluation against the register and answer formatting.

When run without commands, it launches an interactive TUI.
Use subcommands for CLI mode with JSON output.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd)
		},
		Run: func(cmd *cobra.Command, args []string) {
			// No subcommand specified - launch TUI
			LaunchTUI(cfg)
		},
	}
)

// Flag values, applied over the file and environment when set.
var flagValues struct {
	dataDir     string
	dataURL     string
	class       string
	provider    string
	model       string
	engine      string
	promptStyle string
	examples    string
	today       string
	logLevel    string
	logFile     string
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	f.StringVarP(&flagValues.dataDir, "data-dir", "d", ".", "Directory containing the attendance data")
	f.StringVar(&flagValues.dataURL, "data-url", "", "URL of an attendance export (CSV or ZIP) to fetch when no data is present")
	f.StringVar(&flagValues.class, "class", "", "Answer for one class only (defaults to every student)")
	f.StringVar(&flagValues.provider, "provider", "anthropic", "LLM client: anthropic or fantasy")
	f.StringVar(&flagValues.model, "model", "claude-haiku-4-5", "Model used to write query expressions")
	f.StringVarP(&flagValues.engine, "engine", "e", "expr", "Query engine: expr or sql")
	f.StringVar(&flagValues.promptStyle, "prompt-style", "summary", "Prompt style: summary or basic")
	f.StringVar(&flagValues.examples, "examples", "", "File with few-shot examples (defaults to the built-in set)")
	f.StringVar(&flagValues.today, "today", "", "Pin today's date (YYYY-MM-DD) for relative dates")
	f.StringVar(&flagValues.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	f.StringVar(&flagValues.logFile, "log-file", "", "Log file (defaults to err.log in the data directory)")
}

// loadConfig resolves defaults, .env, the config file, the environment and
// explicitly set flags, in that order.
func loadConfig(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	c, err := config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	set := func(dst *string, name, value string) {
		if flags.Changed(name) {
			*dst = value
		}
	}
	set(&c.DataDir, "data-dir", flagValues.dataDir)
	set(&c.DataURL, "data-url", flagValues.dataURL)
	set(&c.Class, "class", flagValues.class)
	set(&c.Provider, "provider", flagValues.provider)
	set(&c.Model, "model", flagValues.model)
	set(&c.Engine, "engine", flagValues.engine)
	set(&c.PromptStyle, "prompt-style", flagValues.promptStyle)
	set(&c.Examples, "examples", flagValues.examples)
	set(&c.Today, "today", flagValues.today)
	set(&c.LogLevel, "log-level", flagValues.logLevel)
	set(&c.LogFile, "log-file", flagValues.logFile)

	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
