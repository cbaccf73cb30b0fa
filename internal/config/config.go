// Package config resolves attendq settings from defaults, an optional YAML
// file, the environment and command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"gopkg.in/yaml.v3"
)

const (
	defaultProvider    = "anthropic"
	defaultModel       = "claude-haiku-4-5"
	defaultEngine      = "expr"
	defaultPromptStyle = "summary"
	defaultLLMTimeout  = 60 * time.Second
	defaultAddr        = ":8080"
	defaultLogLevel    = "info"
)

type Config struct {
	DataDir string `yaml:"data_dir"`
	// DataURL points at an attendance export (CSV or ZIP) fetched when the
	// data directory has no attendance file.
	DataURL string `yaml:"data_url"`
	// Class restricts the register to one class when the data has a
	// class_name column. Empty means every class.
	Class       string        `yaml:"class"`
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"-"`
	Engine      string        `yaml:"engine"`
	PromptStyle string        `yaml:"prompt_style"`
	Examples    string        `yaml:"examples"`
	LLMTimeout  time.Duration `yaml:"llm_timeout"`
	LLMRetries  uint          `yaml:"llm_retries"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
	GuardPanics bool          `yaml:"guard_panics"`
	// SampleRows is how many register rows the prompt shows; 0 keeps the
	// prompt style's default.
	SampleRows   int    `yaml:"sample_rows"`
	SystemPrompt string `yaml:"system_prompt"`
	// Today pins the current date (YYYY-MM-DD) for date normalization.
	Today    string `yaml:"today"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
	Addr     string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir:     ".",
		Provider:    defaultProvider,
		Model:       defaultModel,
		Engine:      defaultEngine,
		PromptStyle: defaultPromptStyle,
		LLMTimeout:  defaultLLMTimeout,
		GuardPanics: true,
		LogLevel:    defaultLogLevel,
		Addr:        defaultAddr,
	}
}

// Load builds a config from defaults, the YAML file at path (skipped when
// path is empty) and the process environment.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		if err := c.LoadFile(path); err != nil {
			return Config{}, err
		}
	}
	c.ApplyEnv(os.Getenv)
	return c, nil
}

// LoadFile overlays the YAML file at path onto c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// LoadDotEnv loads .env style files into the process environment. Missing
// files are skipped and existing variables are never overridden.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment variables onto c.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.APIKey, "ANTHROPIC_API_KEY")
	set(&c.DataDir, "ATTENDQ_DATA_DIR")
	set(&c.DataURL, "ATTENDQ_DATA_URL")
	set(&c.Class, "ATTENDQ_CLASS")
	set(&c.Provider, "ATTENDQ_PROVIDER")
	set(&c.Model, "ATTENDQ_MODEL")
	set(&c.Engine, "ATTENDQ_ENGINE")
	set(&c.PromptStyle, "ATTENDQ_PROMPT_STYLE")
	set(&c.Examples, "ATTENDQ_EXAMPLES")
	set(&c.SystemPrompt, "ATTENDQ_SYSTEM_PROMPT")
	set(&c.Today, "ATTENDQ_TODAY")
	set(&c.LogLevel, "ATTENDQ_LOG_LEVEL")

	if v := getenv("ATTENDQ_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.CacheTTL = d
		}
	}
	if v := getenv("ATTENDQ_SAMPLE_ROWS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SampleRows = n
		}
	}
	if v := getenv("ATTENDQ_LLM_RETRIES"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			c.LLMRetries = uint(n)
		}
	}
}

func (c *Config) Validate() error {
	switch c.Provider {
	case "anthropic", "fantasy":
	default:
		return fmt.Errorf("unknown provider %q (want anthropic or fantasy)", c.Provider)
	}
	switch c.Engine {
	case "expr", "sql":
	default:
		return fmt.Errorf("unknown engine %q (want expr or sql)", c.Engine)
	}
	switch c.PromptStyle {
	case "summary", "basic":
	default:
		return fmt.Errorf("unknown prompt style %q (want summary or basic)", c.PromptStyle)
	}
	if c.LLMTimeout < 0 {
		return errors.New("llm timeout cannot be negative")
	}
	if c.SampleRows < 0 {
		return fmt.Errorf("sample rows cannot be negative, got %d", c.SampleRows)
	}
	if c.CacheTTL < 0 {
		return errors.New("cache TTL cannot be negative")
	}
	if c.Today != "" {
		if _, err := time.Parse("2006-01-02", c.Today); err != nil {
			return fmt.Errorf("invalid today %q: %w", c.Today, err)
		}
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Clock returns a fake clock pinned to Today when set, else the real clock.
func (c *Config) Clock() clockwork.Clock {
	if c.Today != "" {
		if t, err := time.ParseInLocation("2006-01-02", c.Today, time.Local); err == nil {
			return clockwork.NewFakeClockAt(t.Add(12 * time.Hour))
		}
	}
	return clockwork.NewRealClock()
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
