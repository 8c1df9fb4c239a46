package engine

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	ChannelID    string
	TitlePattern string

	YouTubeAPIBase    string
	YouTubeAPIKey     string
	TranscriptAPIBase string
	TranscriptAPIKey  string
	AIAPIURL          string
	AIAPIKey          string
	DiscordWebhookURL string

	UseMockData      bool
	MaxSearchResults int
	HTTPClient       *http.Client
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, pipeline).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	if c.MaxSearchResults <= 0 {
		c.MaxSearchResults = 5
	}
	cfg = c
	Cfg = &cfg
}

// Validate checks the configuration before a run. The transcript API key is
// only required when mock data is disabled.
func (c *Config) Validate() error {
	if err := validateURL(c.YouTubeAPIBase, "YOUTUBE_API_BASE"); err != nil {
		return err
	}
	if err := validateURL(c.AIAPIURL, "AI_API_URL"); err != nil {
		return err
	}
	if err := validateURL(c.DiscordWebhookURL, "DISCORD_WEBHOOK_URL"); err != nil {
		return err
	}
	if len(c.YouTubeAPIKey) < 10 {
		return fmt.Errorf("YOUTUBE_API_KEY appears to be invalid (too short)")
	}
	if len(c.ChannelID) < 10 {
		return fmt.Errorf("KSFORWARD_CHANNEL_ID appears to be invalid (too short)")
	}
	if c.TitlePattern == "" {
		return fmt.Errorf("TITLE_PATTERN cannot be empty")
	}
	if !c.UseMockData {
		if err := validateURL(c.TranscriptAPIBase, "TRANSCRIPT_API_BASE"); err != nil {
			return err
		}
		if c.TranscriptAPIKey == "" {
			return fmt.Errorf("TRANSCRIPT_API_KEY cannot be empty")
		}
	}
	return nil
}

func validateURL(u, name string) error {
	if u == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return fmt.Errorf("%s must be an http(s) URL", name)
	}
	return nil
}

// SafeString formats the configuration for logging with secrets masked.
func (c *Config) SafeString() string {
	return fmt.Sprintf(
		"channel=%s pattern=%q youtube_key=%s transcript_key=%s ai_url=%s webhook=%s mock=%t",
		c.ChannelID,
		c.TitlePattern,
		MaskKey(c.YouTubeAPIKey),
		MaskKey(c.TranscriptAPIKey),
		c.AIAPIURL,
		MaskURL(c.DiscordWebhookURL),
		c.UseMockData,
	)
}
