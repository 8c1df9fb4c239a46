// ksbot — automated KS Forward video summaries for Discord.
//
// Each invocation processes exactly one unit of work: find the newest
// matching video on the configured channel (or take one via --link), fetch
// its transcript, summarize it, and post the summary to a Discord webhook.
// Designed to run from cron/CI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ksforward/ksbot/internal/engine"
	"github.com/ksforward/ksbot/internal/pipeline"
)

var version = "dev"

var (
	summaryLink string
	mockMode    bool
)

var rootCmd = &cobra.Command{
	Use:   "ksbot",
	Short: "Summarize the latest KS Forward video to Discord",
	Long: `Finds the newest video on the configured channel whose title matches
the configured pattern, fetches its transcript, summarizes it through the AI
endpoint, and posts the summary to a Discord webhook.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(run())
	},
}

func init() {
	rootCmd.Flags().StringVar(&summaryLink, "link", "", "Summarize this specific video URL instead of searching the channel")
	rootCmd.Flags().BoolVar(&mockMode, "mock", false, "Use the embedded sample transcript instead of the transcript API")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() int {
	_ = godotenv.Load()
	initLogging()

	slog.Info("starting ksbot", slog.String("version", version))

	if err := initEngine(); err != nil {
		slog.Error("configuration invalid", slog.Any("error", err))
		return 1
	}
	defer engine.CloseCache()

	ctx := context.Background()
	var result pipeline.RunResult
	if summaryLink != "" {
		result = pipeline.RunLink(ctx, summaryLink)
	} else {
		result = pipeline.Run(ctx)
	}

	slog.Info("metrics", slog.String("counters", engine.FormatMetrics()))

	if !result.Done() {
		retryable := engine.Retryable(result.Err)
		slog.Error("run failed",
			slog.String("stage", string(result.Stage)),
			slog.Any("error", result.Err),
			slog.String("category", engine.Category(result.Err)),
			slog.Bool("retryable", retryable))
		if retryable {
			return 2
		}
		return 1
	}

	slog.Info("run completed",
		slog.String("video", result.Video.ID),
		slog.String("title", result.Video.Title))
	return 0
}

// initLogging configures the default slog handler from LOG_LEVEL.
func initLogging() {
	var level slog.Level
	switch strings.ToLower(env.Str("LOG_LEVEL", "info")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// initEngine assembles the engine configuration from the environment and
// opens the transcript cache.
func initEngine() error {
	c := engine.Config{
		ChannelID:         env.Str("KSFORWARD_CHANNEL_ID", ""),
		TitlePattern:      env.Str("TITLE_PATTERN", "KS Forward"),
		YouTubeAPIBase:    env.Str("YOUTUBE_API_BASE", "https://www.googleapis.com/youtube/v3"),
		YouTubeAPIKey:     env.Str("YOUTUBE_API_KEY", ""),
		TranscriptAPIBase: env.Str("TRANSCRIPT_API_BASE", "https://api.supadata.ai/v1"),
		TranscriptAPIKey:  env.Str("TRANSCRIPT_API_KEY", ""),
		AIAPIURL:          env.Str("AI_API_URL", ""),
		AIAPIKey:          env.Str("AI_API_KEY", ""),
		DiscordWebhookURL: env.Str("DISCORD_WEBHOOK_URL", ""),
		UseMockData:       mockMode || strings.EqualFold(env.Str("USE_MOCK_DATA", "false"), "true"),
		MaxSearchResults:  env.Int("MAX_SEARCH_RESULTS", 5),
		HTTPClient: &http.Client{
			Timeout: env.Duration("HTTP_TIMEOUT", 15*time.Second),
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	if err := c.Validate(); err != nil {
		return err
	}
	engine.Init(c)
	slog.Info("configuration loaded", slog.String("config", c.SafeString()))

	cachePath := env.Str("TRANSCRIPT_CACHE_PATH", filepath.Join(os.Getenv("HOME"), ".ksbot", "transcripts.db"))
	if err := engine.InitCache(cachePath); err != nil {
		// A dead cache degrades every run to a remote fetch but never
		// blocks one.
		slog.Warn("transcript cache unavailable", slog.Any("error", err))
	}
	return nil
}
