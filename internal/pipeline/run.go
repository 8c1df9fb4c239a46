// Package pipeline sequences one locate → transcript → summarize → notify
// unit of work and reports its terminal state.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/ksforward/ksbot/internal/engine"
	"github.com/ksforward/ksbot/internal/engine/sources"
)

// Stage names the pipeline step an error originated from.
type Stage string

// Pipeline stages, in execution order.
const (
	StageLocatingVideo      Stage = "locating_video"
	StageFetchingTranscript Stage = "fetching_transcript"
	StageSummarizing        Stage = "summarizing"
	StageNotifying          Stage = "notifying"
)

// State is the run's position in the state machine.
type State int

// Run states. A run moves strictly forward; any stage error jumps to
// StateFailed and nothing later executes.
const (
	StateIdle State = iota
	StateLocatingVideo
	StateFetchingTranscript
	StateSummarizing
	StateNotifying
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLocatingVideo:
		return "locating_video"
	case StateFetchingTranscript:
		return "fetching_transcript"
	case StateSummarizing:
		return "summarizing"
	case StateNotifying:
		return "notifying"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// RunResult is the terminal outcome of a run: Done, or Failed with the
// originating stage and cause.
type RunResult struct {
	State State
	Stage Stage
	Err   error
	Video *engine.VideoRef
}

// Done reports whether the run completed.
func (r RunResult) Done() bool { return r.State == StateDone }

func failed(stage Stage, video *engine.VideoRef, err error) RunResult {
	return RunResult{State: StateFailed, Stage: stage, Err: err, Video: video}
}

// Run processes the newest channel video matching the configured title
// pattern.
func Run(ctx context.Context) RunResult {
	slog.Info("locating latest video",
		slog.String("channel", engine.Cfg.ChannelID),
		slog.String("pattern", engine.Cfg.TitlePattern))

	ref, err := sources.FindLatestMatching(ctx, engine.Cfg.ChannelID, engine.Cfg.TitlePattern)
	if err != nil {
		return failed(StageLocatingVideo, nil, err)
	}
	return summarizeAndNotify(ctx, ref)
}

// RunLink processes one specific video URL instead of searching the channel.
func RunLink(ctx context.Context, videoURL string) RunResult {
	slog.Info("looking up video", slog.String("url", videoURL))

	ref, err := sources.LookupVideo(ctx, videoURL)
	if err != nil {
		return failed(StageLocatingVideo, nil, err)
	}
	return summarizeAndNotify(ctx, ref)
}

// summarizeAndNotify drives the three stages after a video is in hand.
func summarizeAndNotify(ctx context.Context, ref *engine.VideoRef) RunResult {
	slog.Info("fetching transcript", slog.String("id", ref.ID))
	transcript, err := sources.GetTranscript(ctx, ref)
	if err != nil {
		return failed(StageFetchingTranscript, ref, err)
	}
	slog.Info("transcript ready", slog.Int("length", len(transcript)))

	slog.Info("summarizing", slog.String("id", ref.ID))
	summary, err := sources.Summarize(ctx, transcript)
	if err != nil {
		return failed(StageSummarizing, ref, err)
	}

	slog.Info("notifying", slog.String("title", ref.Title))
	if err := sources.Publish(ctx, ref.Title, summary); err != nil {
		return failed(StageNotifying, ref, err)
	}

	return RunResult{State: StateDone, Video: ref}
}
