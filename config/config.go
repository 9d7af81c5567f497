package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Config holds persistent client settings stored at <profileDir>/config.yaml.
type Config struct {
	Theme           string        `yaml:"theme,omitempty"`
	APIURL          string        `yaml:"api_url,omitempty"`
	WSURL           string        `yaml:"ws_url,omitempty"`
	LogLevel        string        `yaml:"log_level,omitempty"`
	ConversationTTL time.Duration `yaml:"conversation_ttl,omitempty"`
}

const (
	filename = "config.yaml"

	DefaultAPIURL          = "http://localhost:3000"
	DefaultConversationTTL = 24 * time.Hour
)

// Load reads <profileDir>/config.yaml, then .env files (working directory
// first, then the profile directory) and finally CV_* variables. A missing
// file yields the defaults.
func Load(profileDir string) (Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(filepath.Join(profileDir, filename))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return defaults(), fmt.Errorf("failed to parse config file: %w", err)
		}
	case !os.IsNotExist(err):
		return defaults(), fmt.Errorf("failed to read config file: %w", err)
	}

	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(profileDir, ".env"))
	cfg.applyEnv()

	if cfg.ConversationTTL <= 0 {
		cfg.ConversationTTL = DefaultConversationTTL
	}
	return cfg, nil
}

// Save writes cfg to <profileDir>/config.yaml, creating the directory if needed.
func Save(profileDir string, cfg Config) error {
	if err := os.MkdirAll(profileDir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(profileDir, filename), data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// WebSocketURL returns WSURL, or derives ws(s)://<api host>/ws from APIURL.
func (c Config) WebSocketURL() string {
	if c.WSURL != "" {
		return c.WSURL
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Host == "" {
		return "ws://localhost:3000/ws"
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return scheme + "://" + u.Host + "/ws"
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("CV_API_URL")); v != "" {
		c.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CV_WS_URL")); v != "" {
		c.WSURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CV_THEME")); v != "" {
		c.Theme = v
	}
	if v := strings.TrimSpace(os.Getenv("CV_LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
}

func defaults() Config {
	return Config{
		Theme:           "dark",
		APIURL:          DefaultAPIURL,
		ConversationTTL: DefaultConversationTTL,
	}
}
