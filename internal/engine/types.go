package engine

import "time"

// VideoRef identifies the video a run operates on. Immutable once located.
type VideoRef struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	PublishedAt string `json:"published_at"`
	URL         string `json:"url"`
}

// TranscriptEntry is one cached transcript row.
type TranscriptEntry struct {
	VideoID   string    `json:"video_id"`
	Text      string    `json:"text"`
	FetchedAt time.Time `json:"fetched_at"`
}

// WatchURL builds the canonical watch URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
