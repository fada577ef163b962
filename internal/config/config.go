// Load envs from .env
// Load optional YAML config
// Validate config
// Provide default values

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go-upwork-analyzer/internal/validate"
)

const yamlPath = "configs/config.yaml"

// Config holds all runtime settings for the analyzer bot.
// Secrets come from the environment; everything else may also be
// set in configs/config.yaml, with env vars taking precedence.
type Config struct {
	// API keys and credentials (env only)
	GeminiAPIKey     string
	GmailUser        string
	GmailAppPassword string
	ReceiverEmail    string

	// Optional Telegram notification channel
	TelegramToken  string
	TelegramChatID int64

	// Scraping
	SearchQuery    string `yaml:"search_query"`
	PagesToScrape  int    `yaml:"pages_to_scrape"`
	MaxRetries     int    `yaml:"max_retries"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`

	// AI
	GeminiModel string `yaml:"gemini_model"`

	// Mail submission
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`

	// Scheduling
	ScheduleTime string `yaml:"schedule_time"` // HH:MM, 24h clock
	Timezone     string `yaml:"timezone"`

	// Logging
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// Paths
	DataDir string `yaml:"data_dir"`
}

// ConfigError carries every configuration violation found during Validate,
// so a misconfigured deploy reports all missing keys at once.
type ConfigError struct {
	Violations []string
}

func (e *ConfigError) Error() string {
	return "configuration errors: " + strings.Join(e.Violations, ", ")
}

// Load reads configs/config.yaml (if present) and environment variables,
// applying defaults for everything unset. godotenv makes a local .env file
// behave like real env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		SearchQuery:    "AI and ML engineer",
		PagesToScrape:  3,
		MaxRetries:     3,
		TimeoutSeconds: 30,
		GeminiModel:    "gemini-1.5-flash",
		SMTPHost:       "smtp.gmail.com",
		SMTPPort:       587,
		ScheduleTime:   "08:00",
		Timezone:       "Asia/Kolkata",
		LogLevel:       "INFO",
		LogFile:        "logs/app.log",
		DataDir:        "data",
	}

	if data, err := os.ReadFile(yamlPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", yamlPath, err)
		}
	}

	// Override with env vars
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GmailUser = os.Getenv("GMAIL_USER")
	cfg.GmailAppPassword = os.Getenv("GMAIL_APP_PASSWORD")
	cfg.ReceiverEmail = os.Getenv("RECEIVER_EMAIL")
	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")

	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", v, err)
		}
		cfg.TelegramChatID = id
	}

	setString(&cfg.SearchQuery, "SEARCH_QUERY")
	setString(&cfg.GeminiModel, "GEMINI_MODEL")
	setString(&cfg.SMTPHost, "SMTP_HOST")
	setString(&cfg.ScheduleTime, "SCHEDULE_TIME")
	setString(&cfg.Timezone, "TIMEZONE")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFile, "LOG_FILE")
	setString(&cfg.DataDir, "DATA_DIR")

	if err := setInt(&cfg.PagesToScrape, "PAGES_TO_SCRAPE"); err != nil {
		return nil, err
	}
	if err := setInt(&cfg.MaxRetries, "MAX_RETRIES"); err != nil {
		return nil, err
	}
	if err := setInt(&cfg.TimeoutSeconds, "TIMEOUT_SECONDS"); err != nil {
		return nil, err
	}
	if err := setInt(&cfg.SMTPPort, "SMTP_PORT"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

// Validate checks the credentials and settings the pipeline cannot run
// without. It returns a *ConfigError listing every violation, or nil.
func (c *Config) Validate() error {
	var violations []string

	if c.GeminiAPIKey == "" || c.GeminiAPIKey == "your_gemini_api_key_here" {
		violations = append(violations, "GEMINI_API_KEY not set")
	}
	if !validate.ValidEmail(c.GmailUser) {
		violations = append(violations, "GMAIL_USER invalid or not set")
	}
	if len(c.GmailAppPassword) < 10 {
		violations = append(violations, "GMAIL_APP_PASSWORD not set")
	}
	if !validate.ValidEmail(c.ReceiverEmail) {
		violations = append(violations, "RECEIVER_EMAIL invalid or not set")
	}
	if _, err := ParseClock(c.ScheduleTime); err != nil {
		violations = append(violations, fmt.Sprintf("SCHEDULE_TIME %q is not HH:MM", c.ScheduleTime))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		violations = append(violations, fmt.Sprintf("TIMEZONE %q unknown", c.Timezone))
	}

	if len(violations) > 0 {
		return &ConfigError{Violations: violations}
	}
	return nil
}

// ParseClock parses an HH:MM wall-clock string.
func ParseClock(s string) (time.Time, error) {
	return time.Parse("15:04", s)
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// RawDir is where unprocessed job snapshots land.
func (c *Config) RawDir() string { return filepath.Join(c.DataDir, "raw") }

// ProcessedDir holds post-validation snapshots.
func (c *Config) ProcessedDir() string { return filepath.Join(c.DataDir, "processed") }

// ReportsDir holds rendered PDF reports.
func (c *Config) ReportsDir() string { return filepath.Join(c.DataDir, "reports") }

// LogDir is derived from the configured log file path.
func (c *Config) LogDir() string { return filepath.Dir(c.LogFile) }

// EnsureDirs creates the data and log directories the pipeline writes to.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.RawDir(), c.ProcessedDir(), c.ReportsDir(), c.LogDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}
