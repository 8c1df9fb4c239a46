package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/ksforward/ksbot/internal/engine"
)

// YouTube Data API v3. Search results come back ordered by publish date
// descending, so the first title match is the newest matching video.

var videoIDRE = regexp.MustCompile(`(?:youtube\.com/watch\?(?:.*&)?v=|youtu\.be/)([a-zA-Z0-9_-]{11})`)

// ExtractVideoID pulls the 11-char video ID from any YouTube URL format.
func ExtractVideoID(rawURL string) string {
	m := videoIDRE.FindStringSubmatch(rawURL)
	if len(m) >= 2 {
		return m[1]
	}
	return ""
}

// --- YouTube Data API v3 types ---

type ytSearchResp struct {
	Items []ytSearchItem `json:"items"`
}

type ytSearchItem struct {
	ID      ytItemID  `json:"id"`
	Snippet ytSnippet `json:"snippet"`
}

type ytItemID struct {
	VideoID string `json:"videoId"`
}

type ytSnippet struct {
	Title       string `json:"title"`
	PublishedAt string `json:"publishedAt"`
	PublishTime string `json:"publishTime"`
}

type ytVideosResp struct {
	Items []ytVideoItem `json:"items"`
}

type ytVideoItem struct {
	ID      string    `json:"id"`
	Snippet ytSnippet `json:"snippet"`
}

// FindLatestMatching returns the newest completed video on the channel whose
// title contains titlePattern (case-insensitive). engine.ErrNoMatch when
// nothing in the search window matches.
func FindLatestMatching(ctx context.Context, channelID, titlePattern string) (*engine.VideoRef, error) {
	engine.IncrYouTubeSearch()

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("channelId", channelID)
	params.Set("order", "date")
	params.Set("type", "video")
	params.Set("eventType", "completed")
	params.Set("maxResults", fmt.Sprintf("%d", engine.Cfg.MaxSearchResults))
	params.Set("key", engine.Cfg.YouTubeAPIKey)

	apiURL := engine.Cfg.YouTubeAPIBase + "/search?" + params.Encode()
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}
	defer resp.Body.Close()

	var result ytSearchResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &engine.MalformedResponseError{Endpoint: "youtube search", Reason: err.Error()}
	}

	pattern := strings.ToLower(titlePattern)
	for _, item := range result.Items {
		if item.ID.VideoID == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(item.Snippet.Title), pattern) {
			continue
		}
		published := item.Snippet.PublishTime
		if published == "" {
			published = item.Snippet.PublishedAt
		}
		ref := &engine.VideoRef{
			ID:          item.ID.VideoID,
			Title:       item.Snippet.Title,
			PublishedAt: published,
			URL:         engine.WatchURL(item.ID.VideoID),
		}
		slog.Info("found matching video",
			slog.String("id", ref.ID),
			slog.String("title", ref.Title),
			slog.String("published", ref.PublishedAt))
		return ref, nil
	}

	return nil, fmt.Errorf("%w: %q in %d results", engine.ErrNoMatch, titlePattern, len(result.Items))
}

// LookupVideo resolves an arbitrary video URL into a VideoRef via the
// /videos endpoint.
func LookupVideo(ctx context.Context, videoURL string) (*engine.VideoRef, error) {
	videoID := ExtractVideoID(videoURL)
	if videoID == "" {
		return nil, fmt.Errorf("no video id in %q", videoURL)
	}

	engine.IncrVideoLookup()

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("id", videoID)
	params.Set("key", engine.Cfg.YouTubeAPIKey)

	apiURL := engine.Cfg.YouTubeAPIBase + "/videos?" + params.Encode()
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("youtube videos: %w", err)
	}
	defer resp.Body.Close()

	var result ytVideosResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &engine.MalformedResponseError{Endpoint: "youtube videos", Reason: err.Error()}
	}
	if len(result.Items) == 0 {
		return nil, fmt.Errorf("%w: video %s", engine.ErrNoMatch, videoID)
	}

	item := result.Items[0]
	return &engine.VideoRef{
		ID:          videoID,
		Title:       item.Snippet.Title,
		PublishedAt: item.Snippet.PublishedAt,
		URL:         engine.WatchURL(videoID),
	}, nil
}
