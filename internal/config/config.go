package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string

	// Notion connection
	NotionToken   string
	NotionAPIURL  string
	NotionVersion string
	NotionRPS     float64
	NotionTimeout time.Duration

	// Collection name ("faqs", "team", "events", "blog") to database id.
	Collections     map[string]string
	CollectionsFile string

	// Auth for /api routes. Empty disables the check.
	APIKey string

	DefaultLocale string

	// Upload limit for /api/preview
	MaxUploadBytes int64
}

// collectionsFile is the YAML shape of COLLECTIONS_FILE.
type collectionsFile struct {
	Collections map[string]string `yaml:"collections"`
}

// Load reads the environment, then merges COLLECTIONS_FILE when set. Entries
// from the environment win over the file.
func Load() (Config, error) {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		NotionToken:   os.Getenv("NOTION_TOKEN"),
		NotionAPIURL:  envOr("NOTION_API_URL", "https://api.notion.com"),
		NotionVersion: envOr("NOTION_VERSION", "2025-09-03"),
		NotionRPS:     envFloat("NOTION_RPS", 3),
		NotionTimeout: envDuration("NOTION_TIMEOUT", 30*time.Second),

		CollectionsFile: os.Getenv("COLLECTIONS_FILE"),

		APIKey: os.Getenv("API_KEY"),

		DefaultLocale: envOr("DEFAULT_LOCALE", "en"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB
	}

	if cfg.NotionRPS < 0 {
		cfg.NotionRPS = 3
	}
	if cfg.NotionTimeout <= 0 {
		cfg.NotionTimeout = 30 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}

	cfg.Collections = map[string]string{}
	if cfg.CollectionsFile != "" {
		fromFile, err := loadCollections(cfg.CollectionsFile)
		if err != nil {
			return cfg, err
		}
		for name, id := range fromFile {
			cfg.Collections[name] = id
		}
	}
	for name, key := range map[string]string{
		"faqs":   "NOTION_FAQ_DB",
		"team":   "NOTION_TEAM_DB",
		"events": "NOTION_EVENTS_DB",
		"blog":   "NOTION_BLOG_DB",
	} {
		if v := os.Getenv(key); v != "" {
			cfg.Collections[name] = v
		}
	}

	return cfg, nil
}

func loadCollections(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read collections file: %w", err)
	}
	var f collectionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse collections file: %w", err)
	}
	return f.Collections, nil
}

func (c Config) Validate() error {
	if c.NotionToken == "" {
		return errors.New("NOTION_TOKEN is required")
	}
	if c.NotionAPIURL == "" {
		return errors.New("NOTION_API_URL must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
