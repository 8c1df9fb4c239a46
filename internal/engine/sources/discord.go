package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/ksforward/ksbot/internal/engine"
)

// Discord webhook delivery. A summary is split into embed-sized chunks and
// posted in ascending order, at most ten embeds per request (Discord's
// webhook limit). A mid-sequence failure aborts: chunks already posted stay
// posted, the rest are never attempted, and the error reports the count.

const (
	// Discord caps embed descriptions at 4096 chars; 4000 leaves margin.
	maxEmbedDesc        = 4000
	maxEmbedsPerRequest = 10
	embedColor          = 0x5865F2 // blurple

	// How far back from the limit to look for a whitespace break before
	// falling back to a hard split.
	boundaryLookback = 256

	footerText = "KS Forward"
)

// webhookLimiter paces webhook requests; Discord rate-limits per webhook.
var webhookLimiter = rate.NewLimiter(rate.Every(500*time.Millisecond), 1)

type webhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Color       int           `json:"color"`
	Timestamp   string        `json:"timestamp"`
	Footer      *discordFooter `json:"footer,omitempty"`
}

type discordFooter struct {
	Text string `json:"text"`
}

// splitChunks splits s into pieces of at most limit runes, preferring to
// break at the last newline, then the last space, within the lookback
// window. The single boundary rune is consumed by the split. With no
// boundary in the window the split is hard at the limit.
func splitChunks(s string, limit int) []string {
	runes := []rune(s)
	if len(runes) <= limit {
		return []string{s}
	}

	var chunks []string
	for len(runes) > limit {
		cut, skip := splitPoint(runes, limit)
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut+skip:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

// splitPoint returns the break index and how many runes the boundary itself
// consumes.
func splitPoint(runes []rune, limit int) (cut, skip int) {
	floor := limit - boundaryLookback
	if floor < 1 {
		floor = 1
	}
	for _, boundary := range []rune{'\n', ' '} {
		for j := limit; j > floor; j-- {
			if runes[j-1] == boundary {
				return j - 1, 1
			}
		}
	}
	return limit, 0
}

// Publish splits the summary into chunks and posts them to the webhook in
// ascending order.
func Publish(ctx context.Context, title, summary string) error {
	chunks := splitChunks(summary, maxEmbedDesc)
	timestamp := time.Now().Format("2006-01-02T15:04:05.000Z07:00")

	embeds := make([]discordEmbed, 0, len(chunks))
	for i, chunk := range chunks {
		displayTitle := title
		if len(chunks) > 1 {
			displayTitle = fmt.Sprintf("%s (%d/%d)", title, i+1, len(chunks))
		}
		embeds = append(embeds, discordEmbed{
			Title:       displayTitle,
			Description: chunk,
			Color:       embedColor,
			Timestamp:   timestamp,
			Footer:      &discordFooter{Text: footerText},
		})
	}

	slog.Info("publishing summary",
		slog.String("title", title),
		slog.Int("chunks", len(embeds)))

	delivered := 0
	for start := 0; start < len(embeds); start += maxEmbedsPerRequest {
		end := min(start+maxEmbedsPerRequest, len(embeds))
		if err := postWebhook(ctx, embeds[start:end]); err != nil {
			engine.IncrWebhookError()
			return &engine.PartialDeliveryError{
				Delivered: delivered,
				Total:     len(embeds),
				Err:       err,
			}
		}
		delivered = end
	}

	slog.Info("summary published", slog.Int("chunks", delivered))
	return nil
}

// postWebhook sends one batch of embeds.
func postWebhook(ctx context.Context, embeds []discordEmbed) error {
	body, err := json.Marshal(webhookPayload{Embeds: embeds})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	if err := webhookLimiter.Wait(ctx); err != nil {
		return err
	}

	engine.IncrWebhookPost()
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, engine.Cfg.DiscordWebhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", engine.UserAgentBot)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	resp.Body.Close()
	return nil
}
