package sources

import (
	"testing"
	"time"

	"github.com/ksforward/ksbot/internal/engine"
)

// setupEngine points the engine at test servers with retry waits collapsed to
// milliseconds. Restores the retry config on cleanup.
func setupEngine(t *testing.T, mutate func(*engine.Config)) {
	t.Helper()

	prev := engine.DefaultRetryConfig
	engine.DefaultRetryConfig = engine.RetryConfig{
		MaxRetries:  2,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2.0,
	}
	t.Cleanup(func() { engine.DefaultRetryConfig = prev })

	c := engine.Config{
		ChannelID:        "UCtest1234567890",
		TitlePattern:     "KS Forward",
		YouTubeAPIKey:    "test-youtube-key",
		TranscriptAPIKey: "test-transcript-key",
		MaxSearchResults: 5,
	}
	if mutate != nil {
		mutate(&c)
	}
	engine.Init(c)
}
