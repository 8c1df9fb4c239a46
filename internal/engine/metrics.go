package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across a run.
var metrics struct {
	YouTubeSearchRequests atomic.Int64
	VideoLookupRequests   atomic.Int64
	TranscriptRequests    atomic.Int64
	CacheHits             atomic.Int64
	CacheMisses           atomic.Int64
	AICalls               atomic.Int64
	AIErrors              atomic.Int64
	WebhookPosts          atomic.Int64
	WebhookErrors         atomic.Int64
}

// GetMetrics returns a snapshot of all counters.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"youtube_search_requests": metrics.YouTubeSearchRequests.Load(),
		"video_lookup_requests":   metrics.VideoLookupRequests.Load(),
		"transcript_requests":     metrics.TranscriptRequests.Load(),
		"cache_hits":              metrics.CacheHits.Load(),
		"cache_misses":            metrics.CacheMisses.Load(),
		"ai_calls":                metrics.AICalls.Load(),
		"ai_errors":               metrics.AIErrors.Load(),
		"webhook_posts":           metrics.WebhookPosts.Load(),
		"webhook_errors":          metrics.WebhookErrors.Load(),
	}
}

// FormatMetrics returns counters as a single text line for the final log.
func FormatMetrics() string {
	m := GetMetrics()
	keys := []string{
		"youtube_search_requests", "video_lookup_requests",
		"transcript_requests", "cache_hits", "cache_misses",
		"ai_calls", "ai_errors",
		"webhook_posts", "webhook_errors",
	}
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s=%d", k, m[k])
	}
	return sb.String()
}

// IncrYouTubeSearch increments the YouTube search counter.
func IncrYouTubeSearch() { metrics.YouTubeSearchRequests.Add(1) }

// IncrVideoLookup increments the video detail lookup counter.
func IncrVideoLookup() { metrics.VideoLookupRequests.Add(1) }

// IncrTranscriptFetch increments the remote transcript fetch counter.
func IncrTranscriptFetch() { metrics.TranscriptRequests.Add(1) }

// IncrCacheHit increments the cache hit counter.
func IncrCacheHit() { metrics.CacheHits.Add(1) }

// IncrCacheMiss increments the cache miss counter.
func IncrCacheMiss() { metrics.CacheMisses.Add(1) }

// IncrAICall increments the AI call counter.
func IncrAICall() { metrics.AICalls.Add(1) }

// IncrAIError increments the AI error counter.
func IncrAIError() { metrics.AIErrors.Add(1) }

// IncrWebhookPost increments the webhook post counter.
func IncrWebhookPost() { metrics.WebhookPosts.Add(1) }

// IncrWebhookError increments the webhook error counter.
func IncrWebhookError() { metrics.WebhookErrors.Add(1) }
