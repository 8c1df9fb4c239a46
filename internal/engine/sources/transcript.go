package sources

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ksforward/ksbot/internal/engine"
)

// Transcript API: GET {base}/transcript?url=<watch url> with an x-api-key
// header. Segments are joined into one plain-text transcript.

//go:embed sample_transcript.json
var sampleTranscriptJSON []byte

type transcriptResp struct {
	Lang           string              `json:"lang"`
	AvailableLangs []string            `json:"availableLangs"`
	Content        []transcriptSegment `json:"content"`
}

type transcriptSegment struct {
	Lang     string  `json:"lang"`
	Text     string  `json:"text"`
	Offset   float64 `json:"offset"`
	Duration float64 `json:"duration"`
}

// joinSegments flattens transcript segments into a single space-separated
// text.
func joinSegments(resp transcriptResp) string {
	var sb strings.Builder
	for _, seg := range resp.Content {
		if seg.Text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(seg.Text)
	}
	return sb.String()
}

// GetTranscript obtains the transcript for a video. Mock mode returns the
// embedded sample and touches neither cache nor network. Otherwise the cache
// is consulted first; on a miss the remote API is called and the result
// written through. Cache write failures are logged and swallowed — the
// transcript is already in hand.
func GetTranscript(ctx context.Context, ref *engine.VideoRef) (string, error) {
	if engine.Cfg.UseMockData {
		slog.Info("using mock transcript", slog.String("id", ref.ID))
		return mockTranscript()
	}

	entry, ok, err := engine.CacheGetTranscript(ctx, ref.ID)
	if err != nil {
		slog.Warn("transcript cache read failed", slog.String("id", ref.ID), slog.Any("error", err))
	}
	if ok {
		slog.Info("transcript cache hit",
			slog.String("id", ref.ID),
			slog.Time("fetched_at", entry.FetchedAt))
		return entry.Text, nil
	}

	text, err := fetchTranscript(ctx, ref)
	if err != nil {
		return "", err
	}

	if err := engine.CachePutTranscript(ctx, ref.ID, text); err != nil {
		slog.Warn("transcript cache write failed", slog.String("id", ref.ID), slog.Any("error", err))
	}
	return text, nil
}

// fetchTranscript calls the remote transcript API.
func fetchTranscript(ctx context.Context, ref *engine.VideoRef) (string, error) {
	engine.IncrTranscriptFetch()

	params := url.Values{}
	params.Set("url", ref.URL)

	apiURL := engine.Cfg.TranscriptAPIBase + "/transcript?" + params.Encode()
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentBot)
		req.Header.Set("x-api-key", engine.Cfg.TranscriptAPIKey)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return "", fmt.Errorf("transcript fetch %s: %w", ref.ID, err)
	}
	defer resp.Body.Close()

	var result transcriptResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &engine.MalformedResponseError{Endpoint: "transcript", Reason: err.Error()}
	}

	text := joinSegments(result)
	if text == "" {
		return "", &engine.MalformedResponseError{Endpoint: "transcript", Reason: "empty transcript"}
	}

	slog.Info("transcript fetched",
		slog.String("id", ref.ID),
		slog.String("lang", result.Lang),
		slog.Int("length", len(text)))
	return text, nil
}

// mockTranscript parses the embedded fixture, shaped like a real API
// response.
func mockTranscript() (string, error) {
	var result transcriptResp
	if err := json.Unmarshal(sampleTranscriptJSON, &result); err != nil {
		return "", fmt.Errorf("mock transcript: %w", err)
	}
	return joinSegments(result), nil
}
