package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ksforward/ksbot/internal/engine"
)

// AI summarization endpoint: POST {persona, user_id, messages} → {answer}.

const (
	summaryPersona = "ks-discord"
	summaryUserID  = "ks-discord"
)

type summaryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type summaryRequest struct {
	Persona  string           `json:"persona"`
	UserID   string           `json:"user_id"`
	Messages []summaryMessage `json:"messages"`
}

type summaryResponse struct {
	Answer string `json:"answer"`
}

// Summarize submits the transcript and returns the prose answer.
func Summarize(ctx context.Context, transcript string) (string, error) {
	engine.IncrAICall()

	body, err := json.Marshal(summaryRequest{
		Persona: summaryPersona,
		UserID:  summaryUserID,
		Messages: []summaryMessage{
			{Role: "user", Content: transcript},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal summary request: %w", err)
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, engine.Cfg.AIAPIURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", engine.UserAgentBot)
		if engine.Cfg.AIAPIKey != "" {
			req.Header.Set("X-API-Key", engine.Cfg.AIAPIKey)
		}
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		engine.IncrAIError()
		return "", fmt.Errorf("ai summarize: %w", err)
	}
	defer resp.Body.Close()

	var result summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		engine.IncrAIError()
		return "", &engine.MalformedResponseError{Endpoint: "ai", Reason: err.Error()}
	}

	answer := extractAnswer(result.Answer)
	if answer == "" {
		engine.IncrAIError()
		return "", &engine.MalformedResponseError{Endpoint: "ai", Reason: "missing answer field"}
	}

	slog.Info("summary generated",
		slog.Int("length", len(answer)),
		slog.String("preview", engine.TruncateRunes(answer, 100, "...")))
	return answer, nil
}

// stripFences removes markdown code fences from model output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// extractAnswer unwraps an answer that arrives as a (possibly fenced) JSON
// blob with its own answer field. Plain prose passes through untouched.
func extractAnswer(raw string) string {
	s := stripFences(raw)
	if !strings.HasPrefix(s, "{") {
		return s
	}
	var nested summaryResponse
	if err := json.Unmarshal([]byte(s), &nested); err == nil && nested.Answer != "" {
		return strings.TrimSpace(nested.Answer)
	}
	return s
}
