package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) {
	t.Helper()
	require.NoError(t, InitCache(filepath.Join(t.TempDir(), "transcripts.db")))
	t.Cleanup(func() { _ = CloseCache() })
}

func TestCacheRoundTrip(t *testing.T) {
	newTestCache(t)
	ctx := context.Background()

	_, ok, err := CacheGetTranscript(ctx, "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.False(t, ok, "expected miss on empty cache")

	require.NoError(t, CachePutTranscript(ctx, "dQw4w9WgXcQ", "hello transcript"))

	entry, ok, err := CacheGetTranscript(ctx, "dQw4w9WgXcQ")
	require.NoError(t, err)
	require.True(t, ok, "expected hit after put")
	assert.Equal(t, "hello transcript", entry.Text)
	assert.Equal(t, "dQw4w9WgXcQ", entry.VideoID)
	assert.False(t, entry.FetchedAt.IsZero())
}

func TestCacheOverwrite(t *testing.T) {
	newTestCache(t)
	ctx := context.Background()

	require.NoError(t, CachePutTranscript(ctx, "vid-1", "first"))
	require.NoError(t, CachePutTranscript(ctx, "vid-1", "second"))

	entry, ok, err := CacheGetTranscript(ctx, "vid-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", entry.Text)
}

func TestCacheNoExpiry(t *testing.T) {
	newTestCache(t)
	ctx := context.Background()

	require.NoError(t, CachePutTranscript(ctx, "vid-old", "ancient text"))

	// Age the entry well past anything a TTL policy would keep.
	_, err := cacheDB.Exec(`UPDATE transcripts SET fetched_at = '2019-01-01T00:00:00Z' WHERE video_id = 'vid-old'`)
	require.NoError(t, err)

	entry, ok, err := CacheGetTranscript(ctx, "vid-old")
	require.NoError(t, err)
	require.True(t, ok, "old entries must still be served")
	assert.Equal(t, "ancient text", entry.Text)
	assert.Equal(t, 2019, entry.FetchedAt.Year())
}

func TestCacheSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcripts.db")
	ctx := context.Background()

	require.NoError(t, InitCache(path))
	require.NoError(t, CachePutTranscript(ctx, "vid-2", "durable"))
	require.NoError(t, CloseCache())

	require.NoError(t, InitCache(path))
	t.Cleanup(func() { _ = CloseCache() })

	entry, ok, err := CacheGetTranscript(ctx, "vid-2")
	require.NoError(t, err)
	require.True(t, ok, "entry must survive a process restart")
	assert.Equal(t, "durable", entry.Text)
}

func TestCacheUninitialized(t *testing.T) {
	require.NoError(t, CloseCache())
	ctx := context.Background()

	_, ok, err := CacheGetTranscript(ctx, "vid-3")
	assert.NoError(t, err)
	assert.False(t, ok, "uninitialized cache reads as empty")

	err = CachePutTranscript(ctx, "vid-3", "text")
	var cacheErr *CacheError
	assert.ErrorAs(t, err, &cacheErr)
	assert.False(t, Retryable(err), "cache errors are not transient")
	assert.Equal(t, "cache", Category(err))
}
