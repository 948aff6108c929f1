package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/threadscout/engagement-bot/internal/keywords"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port          string
	Debug         bool
	SearchTimeout time.Duration

	// Display configuration
	TimeZone string
	Location *time.Location

	// Discussion provider configuration
	DiscussionProvider string // "reddit", "hackernews" or "stackoverflow"
	RedditClientID     string
	RedditClientSecret string
	UserAgent          string

	// Keyword extraction overrides, evaluated in order
	PhraseMappings     []keywords.PhraseMapping
	PhraseMappingsFile string

	// Storage configuration
	StorageBackend   string // "azure" or "sqlite"
	StorageAccount   string
	StorageContainer string
	SQLitePath       string
	SeedTweetsFile   string

	// Digest configuration
	DigestSchedule string // "daily", "weekly" or "off"

	// Notification configuration
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
}

// DefaultPhraseMappings are used when neither PHRASE_MAPPINGS nor PHRASE_MAPPINGS_FILE is set
var DefaultPhraseMappings = []keywords.PhraseMapping{
	{Phrase: "new video", Query: "creating video quickly"},
	{Phrase: "Typeframes", Query: "Typeframes video template"},
}

type phraseMappingsFile struct {
	PhraseMappings []keywords.PhraseMapping `yaml:"phrase_mappings"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Debug:         getBoolEnv("DEBUG", false),
		SearchTimeout: getDurationEnv("SEARCH_TIMEOUT", 20*time.Second),
		TimeZone:      getEnv("TIMEZONE", "UTC"),

		DiscussionProvider: strings.ToLower(getEnv("DISCUSSION_PROVIDER", "reddit")),
		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),
		UserAgent:          getEnv("USER_AGENT", "ThreadScout/1.0"),

		PhraseMappingsFile: getEnv("PHRASE_MAPPINGS_FILE", ""),

		StorageBackend:   strings.ToLower(getEnv("STORAGE_BACKEND", "sqlite")),
		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "threadscout"),
		SQLitePath:       getEnv("SQLITE_PATH", "threadscout.db"),
		SeedTweetsFile:   getEnv("SEED_TWEETS_FILE", ""),

		DigestSchedule: strings.ToLower(getEnv("DIGEST_SCHEDULE", "off")),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
	}

	mappings, err := loadPhraseMappings(cfg.PhraseMappingsFile, os.Getenv("PHRASE_MAPPINGS"))
	if err != nil {
		return nil, fmt.Errorf("failed to load phrase mappings: %w", err)
	}
	cfg.PhraseMappings = mappings

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return fmt.Errorf("TIMEZONE %q is not a valid location: %w", c.TimeZone, err)
	}
	c.Location = loc

	switch c.DiscussionProvider {
	case "reddit", "hackernews", "stackoverflow":
	default:
		return fmt.Errorf("DISCUSSION_PROVIDER must be 'reddit', 'hackernews' or 'stackoverflow'")
	}

	if c.SearchTimeout <= 0 {
		return fmt.Errorf("SEARCH_TIMEOUT must be positive")
	}

	switch c.StorageBackend {
	case "azure":
		if c.StorageAccount == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT is required when STORAGE_BACKEND is 'azure'")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required when STORAGE_BACKEND is 'sqlite'")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be 'azure' or 'sqlite'")
	}

	switch c.DigestSchedule {
	case "off":
	case "daily", "weekly":
		if c.TeamsWebhookURL == "" && c.NotificationEmail == "" {
			return fmt.Errorf("at least one notification method must be configured (TEAMS_WEBHOOK_URL or NOTIFICATION_EMAIL) when DIGEST_SCHEDULE is enabled")
		}
	default:
		return fmt.Errorf("DIGEST_SCHEDULE must be 'daily', 'weekly' or 'off'")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// loadPhraseMappings prefers the YAML file, then the inline env value, then the defaults.
// List order is preserved because the extractor lets the last matching phrase win.
func loadPhraseMappings(path, inline string) ([]keywords.PhraseMapping, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		var file phraseMappingsFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}

		for i, m := range file.PhraseMappings {
			if m.Phrase == "" {
				return nil, fmt.Errorf("phrase mapping %d has an empty phrase", i)
			}
		}
		return file.PhraseMappings, nil
	}

	if inline != "" {
		return ParsePhraseMappings(inline)
	}

	return append([]keywords.PhraseMapping(nil), DefaultPhraseMappings...), nil
}

// ParsePhraseMappings parses "phrase=query;phrase=query" into an ordered list
func ParsePhraseMappings(value string) ([]keywords.PhraseMapping, error) {
	var mappings []keywords.PhraseMapping

	for _, pair := range strings.Split(value, ";") {
		if strings.TrimSpace(pair) == "" {
			continue
		}

		phrase, query, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("phrase mapping %q must be in the form phrase=query", pair)
		}

		phrase = strings.TrimSpace(phrase)
		if phrase == "" {
			return nil, fmt.Errorf("phrase mapping %q has an empty phrase", pair)
		}

		mappings = append(mappings, keywords.PhraseMapping{
			Phrase: phrase,
			Query:  strings.TrimSpace(query),
		})
	}

	return mappings, nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
