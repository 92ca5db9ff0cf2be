package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr                string   `yaml:"addr" toml:"addr"`
		ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds" toml:"read_timeout_seconds"`
		WriteTimeoutSeconds int      `yaml:"write_timeout_seconds" toml:"write_timeout_seconds"`
		AllowedOrigins      []string `yaml:"allowed_origins" toml:"allowed_origins"`
	} `yaml:"server" toml:"server"`
	LLM struct {
		Provider      string  `yaml:"provider" toml:"provider"`
		Model         string  `yaml:"model" toml:"model"`
		APIKeyEnv     string  `yaml:"api_key_env" toml:"api_key_env"`
		Endpoint      string  `yaml:"endpoint" toml:"endpoint"`
		MaxTokens     int     `yaml:"max_tokens" toml:"max_tokens"`
		Temperature   float32 `yaml:"temperature" toml:"temperature"`
		MaxToolRounds int     `yaml:"max_tool_rounds" toml:"max_tool_rounds"`
		TimeoutSecs   int     `yaml:"timeout_seconds" toml:"timeout_seconds"`
		Retry         struct {
			MaxAttempts       int     `yaml:"max_attempts" toml:"max_attempts"`
			InitialBackoffSec float64 `yaml:"initial_backoff_seconds" toml:"initial_backoff_seconds"`
			MaxBackoffSec     float64 `yaml:"max_backoff_seconds" toml:"max_backoff_seconds"`
		} `yaml:"retry" toml:"retry"`
	} `yaml:"llm" toml:"llm"`
	Data struct {
		Backend string `yaml:"backend" toml:"backend"`
		Path    string `yaml:"path" toml:"path"`
	} `yaml:"data" toml:"data"`
	WebSearch struct {
		Provider     string `yaml:"provider" toml:"provider"`
		APIKeyEnv    string `yaml:"api_key_env" toml:"api_key_env"`
		EngineID     string `yaml:"engine_id" toml:"engine_id"`
		MaxResults   int    `yaml:"max_results" toml:"max_results"`
		CacheMinutes int    `yaml:"cache_minutes" toml:"cache_minutes"`
		StaticAnswer string `yaml:"static_answer" toml:"static_answer"`
	} `yaml:"websearch" toml:"websearch"`
	Anomaly struct {
		Source          string  `yaml:"source" toml:"source"`
		APIKeyEnv       string  `yaml:"api_key_env" toml:"api_key_env"`
		AccessTokenEnv  string  `yaml:"access_token_env" toml:"access_token_env"`
		LookbackDays    int     `yaml:"lookback_days" toml:"lookback_days"`
		ReturnThreshold float64 `yaml:"return_threshold" toml:"return_threshold"`
		VolumeThreshold float64 `yaml:"volume_threshold" toml:"volume_threshold"`
	} `yaml:"anomaly" toml:"anomaly"`
	News struct {
		Feeds          []string `yaml:"feeds" toml:"feeds"`
		CacheMinutes   int      `yaml:"cache_minutes" toml:"cache_minutes"`
		TimeoutSeconds int      `yaml:"timeout_seconds" toml:"timeout_seconds"`
	} `yaml:"news" toml:"news"`
	Monitor struct {
		Schedule      string `yaml:"schedule" toml:"schedule"`
		JournalDir    string `yaml:"journal_dir" toml:"journal_dir"`
		RetentionDays int    `yaml:"retention_days" toml:"retention_days"`
	} `yaml:"monitor" toml:"monitor"`
	Notify struct {
		Email struct {
			Enabled     bool     `yaml:"enabled" toml:"enabled"`
			SMTPServer  string   `yaml:"smtp_server" toml:"smtp_server"`
			SMTPPort    int      `yaml:"smtp_port" toml:"smtp_port"`
			SMTPUser    string   `yaml:"smtp_user" toml:"smtp_user"`
			SMTPPassEnv string   `yaml:"smtp_pass_env" toml:"smtp_pass_env"`
			From        string   `yaml:"from" toml:"from"`
			To          []string `yaml:"to" toml:"to"`
		} `yaml:"email" toml:"email"`
	} `yaml:"notify" toml:"notify"`
	Logging struct {
		Level    string `yaml:"level" toml:"level"`
		Format   string `yaml:"format" toml:"format"`
		Detailed bool   `yaml:"detailed" toml:"detailed"`
		Tracing  bool   `yaml:"tracing" toml:"tracing"`
	} `yaml:"logging" toml:"logging"`
}

// Default returns a configuration that runs fully offline: in-memory data,
// canned web search and no model provider.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 120
	}

	c.LLM.Provider = strings.ToUpper(c.LLM.Provider)
	if c.LLM.Provider == "" {
		c.LLM.Provider = "NOOP"
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = defaultKeyEnv[c.LLM.Provider]
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.2
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 2048
	}
	if c.LLM.MaxToolRounds == 0 {
		c.LLM.MaxToolRounds = 4
	}
	if c.LLM.TimeoutSecs == 0 {
		c.LLM.TimeoutSecs = 60
	}
	if c.LLM.Retry.MaxAttempts == 0 {
		c.LLM.Retry.MaxAttempts = 3
	}
	if c.LLM.Retry.InitialBackoffSec == 0 {
		c.LLM.Retry.InitialBackoffSec = 2
	}
	if c.LLM.Retry.MaxBackoffSec == 0 {
		c.LLM.Retry.MaxBackoffSec = 30
	}

	c.Data.Backend = strings.ToUpper(c.Data.Backend)
	if c.Data.Backend == "" {
		c.Data.Backend = "MEMORY"
	}
	if c.Data.Backend == "BADGER" && c.Data.Path == "" {
		c.Data.Path = filepath.Join("data", "infocrux")
	}

	c.WebSearch.Provider = strings.ToUpper(c.WebSearch.Provider)
	if c.WebSearch.Provider == "" {
		c.WebSearch.Provider = "STATIC"
	}
	if c.WebSearch.APIKeyEnv == "" {
		c.WebSearch.APIKeyEnv = "GOOGLE_CSE_API_KEY"
	}
	if c.WebSearch.MaxResults == 0 {
		c.WebSearch.MaxResults = 5
	}
	if c.WebSearch.CacheMinutes == 0 {
		c.WebSearch.CacheMinutes = 30
	}

	c.Anomaly.Source = strings.ToUpper(c.Anomaly.Source)
	if c.Anomaly.Source == "" {
		c.Anomaly.Source = "STORE"
	}
	if c.Anomaly.APIKeyEnv == "" {
		c.Anomaly.APIKeyEnv = "KITE_API_KEY"
	}
	if c.Anomaly.AccessTokenEnv == "" {
		c.Anomaly.AccessTokenEnv = "KITE_ACCESS_TOKEN"
	}
	if c.Anomaly.LookbackDays == 0 {
		c.Anomaly.LookbackDays = 180
	}

	if c.News.CacheMinutes == 0 {
		c.News.CacheMinutes = 15
	}
	if c.News.TimeoutSeconds == 0 {
		c.News.TimeoutSeconds = 20
	}

	if c.Monitor.Schedule == "" {
		c.Monitor.Schedule = "*/5 9-15 * * 1-5"
	}
	if c.Monitor.RetentionDays == 0 {
		c.Monitor.RetentionDays = 30
	}

	if c.Notify.Email.SMTPPort == 0 {
		c.Notify.Email.SMTPPort = 587
	}
	if c.Notify.Email.SMTPPassEnv == "" {
		c.Notify.Email.SMTPPassEnv = "SMTP_PASS"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "INFO"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

var defaultKeyEnv = map[string]string{
	"GEMINI": "GEMINI_API_KEY",
	"CLAUDE": "ANTHROPIC_API_KEY",
	"OPENAI": "OPENAI_API_KEY",
}

func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "GEMINI", "CLAUDE", "OPENAI", "NOOP":
	default:
		return fmt.Errorf("invalid llm.provider '%s': must be 'GEMINI', 'CLAUDE', 'OPENAI' or 'NOOP'", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0-2, got %.2f", c.LLM.Temperature)
	}
	if c.LLM.MaxToolRounds < 1 || c.LLM.MaxToolRounds > 10 {
		return fmt.Errorf("llm.max_tool_rounds must be between 1-10, got %d", c.LLM.MaxToolRounds)
	}
	if c.LLM.Retry.MaxAttempts < 1 {
		return fmt.Errorf("llm.retry.max_attempts must be at least 1, got %d", c.LLM.Retry.MaxAttempts)
	}

	switch c.Data.Backend {
	case "MEMORY", "BADGER":
	default:
		return fmt.Errorf("invalid data.backend '%s': must be 'MEMORY' or 'BADGER'", c.Data.Backend)
	}

	switch c.WebSearch.Provider {
	case "STATIC", "NEWS", "NONE":
	case "CSE":
		if c.WebSearch.EngineID == "" {
			return errors.New("websearch.engine_id is required for the CSE provider")
		}
	default:
		return fmt.Errorf("invalid websearch.provider '%s': must be 'STATIC', 'NEWS', 'CSE' or 'NONE'", c.WebSearch.Provider)
	}

	switch c.Anomaly.Source {
	case "STORE", "KITE", "NONE":
	default:
		return fmt.Errorf("invalid anomaly.source '%s': must be 'STORE', 'KITE' or 'NONE'", c.Anomaly.Source)
	}

	if _, err := cron.ParseStandard(c.Monitor.Schedule); err != nil {
		return fmt.Errorf("invalid monitor.schedule '%s': %w", c.Monitor.Schedule, err)
	}

	e := c.Notify.Email
	if e.Enabled && (e.SMTPServer == "" || e.From == "" || len(e.To) == 0) {
		return errors.New("notify.email requires smtp_server, from and to when enabled")
	}
	return nil
}

// LLMAPIKey reads the model provider key from the environment.
func (c *Config) LLMAPIKey() string {
	return os.Getenv(c.LLM.APIKeyEnv)
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSecs) * time.Second
}

// LoadConfig reads a YAML or TOML file, chosen by extension, applies
// defaults and validates. Variables from a .env file in the working
// directory are loaded first when present.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var c Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

// LoadConfigOrDefault is LoadConfig, except a missing file yields Default.
func LoadConfigOrDefault(path string) (*Config, error) {
	c, err := LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return c, err
}
