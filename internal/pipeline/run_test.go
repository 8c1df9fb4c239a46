package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ksforward/ksbot/internal/engine"
)

// stubBackends wires every upstream the pipeline talks to into one httptest
// mux and points the engine at it.
type stubBackends struct {
	mux        *http.ServeMux
	srv        *httptest.Server
	aiStatus       int
	aiAnswer       string
	ytItems        string
	posted         int
	transcript     string
	transcriptHits int
}

func newStubBackends(t *testing.T) *stubBackends {
	t.Helper()
	b := &stubBackends{
		mux:      http.NewServeMux(),
		aiStatus: http.StatusOK,
		aiAnswer: "A summary of the episode.",
		ytItems: `{"items":[{"id":{"videoId":"bbbbbbbbbbb"},` +
			`"snippet":{"title":"KS Forward Ep5","publishedAt":"2026-08-28T10:00:00Z","publishTime":"2026-08-28T10:00:00Z"}}]}`,
		transcript: `{"lang":"en","content":[{"lang":"en","text":"hello world","offset":0,"duration":1}]}`,
	}
	b.mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, b.ytItems)
	})
	b.mux.HandleFunc("/transcript", func(w http.ResponseWriter, r *http.Request) {
		b.transcriptHits++
		fmt.Fprint(w, b.transcript)
	})
	b.mux.HandleFunc("/ai", func(w http.ResponseWriter, r *http.Request) {
		if b.aiStatus != http.StatusOK {
			http.Error(w, "ai down", b.aiStatus)
			return
		}
		fmt.Fprintf(w, `{"answer":%q}`, b.aiAnswer)
	})
	b.mux.HandleFunc("/webhook", func(w http.ResponseWriter, r *http.Request) {
		b.posted++
		w.WriteHeader(http.StatusNoContent)
	})
	b.srv = httptest.NewServer(b.mux)
	t.Cleanup(b.srv.Close)

	prev := engine.DefaultRetryConfig
	engine.DefaultRetryConfig = engine.RetryConfig{
		MaxRetries:  2,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2.0,
	}
	t.Cleanup(func() { engine.DefaultRetryConfig = prev })

	engine.Init(engine.Config{
		ChannelID:         "UCtest1234567890",
		TitlePattern:      "KS Forward",
		YouTubeAPIBase:    b.srv.URL,
		YouTubeAPIKey:     "test-youtube-key",
		TranscriptAPIBase: b.srv.URL,
		TranscriptAPIKey:  "test-transcript-key",
		AIAPIURL:          b.srv.URL + "/ai",
		DiscordWebhookURL: b.srv.URL + "/webhook",
		MaxSearchResults:  5,
	})
	return b
}

func TestRunHappyPath(t *testing.T) {
	b := newStubBackends(t)

	res := Run(context.Background())
	if !res.Done() {
		t.Fatalf("expected done, got state=%s stage=%s err=%v", res.State, res.Stage, res.Err)
	}
	if res.Video == nil || res.Video.ID != "bbbbbbbbbbb" {
		t.Errorf("unexpected video %+v", res.Video)
	}
	if b.posted != 1 {
		t.Errorf("expected one webhook post, got %d", b.posted)
	}
}

func TestRunNoMatchingVideo(t *testing.T) {
	b := newStubBackends(t)
	b.ytItems = `{"items":[{"id":{"videoId":"aaaaaaaaaaa"},"snippet":{"title":"Unrelated","publishedAt":"2026-08-29T10:00:00Z"}}]}`

	res := Run(context.Background())
	if res.State != StateFailed || res.Stage != StageLocatingVideo {
		t.Fatalf("expected failure at locating_video, got state=%s stage=%s", res.State, res.Stage)
	}
	if !errors.Is(res.Err, engine.ErrNoMatch) {
		t.Errorf("expected ErrNoMatch, got %v", res.Err)
	}
	if b.posted != 0 {
		t.Error("no-match run must not post to the webhook")
	}
}

func TestRunSummarizerDownIsRetryableFailure(t *testing.T) {
	b := newStubBackends(t)
	b.aiStatus = http.StatusServiceUnavailable

	res := Run(context.Background())
	if res.State != StateFailed || res.Stage != StageSummarizing {
		t.Fatalf("expected failure at summarizing, got state=%s stage=%s err=%v", res.State, res.Stage, res.Err)
	}
	if !engine.Retryable(res.Err) {
		t.Error("a 503 from the summarizer should be retryable")
	}
	if b.posted != 0 {
		t.Error("a failed summarize must not reach the webhook")
	}
}

func TestRunMockModeSkipsTranscriptAPI(t *testing.T) {
	b := newStubBackends(t)
	engine.Cfg.UseMockData = true

	res := Run(context.Background())
	if !res.Done() {
		t.Fatalf("expected done, got state=%s err=%v", res.State, res.Err)
	}
	if b.transcriptHits != 0 {
		t.Errorf("mock mode must not call the transcript API, got %d hits", b.transcriptHits)
	}
}

func TestRunLink(t *testing.T) {
	b := newStubBackends(t)
	b.mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"items":[{"id":"dQw4w9WgXcQ","snippet":{"title":"KS Forward Classic","publishedAt":"2026-01-01T00:00:00Z"}}]}`)
	})

	res := RunLink(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if !res.Done() {
		t.Fatalf("expected done, got state=%s stage=%s err=%v", res.State, res.Stage, res.Err)
	}
	if res.Video.Title != "KS Forward Classic" {
		t.Errorf("unexpected title %q", res.Video.Title)
	}
}
