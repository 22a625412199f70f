package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mldwnk1488/soundcloudbot/internal/extractor"
	"github.com/mldwnk1488/soundcloudbot/internal/models"
)

type fakeProvider struct {
	entries []extractor.Entry
	err     error
	calls   int
	delay   time.Duration
}

func (f *fakeProvider) Search(ctx context.Context, _ string, _ int) ([]extractor.Entry, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.entries, f.err
}

func TestShortQueryRejectedWithoutProviderCall(t *testing.T) {
	provider := &fakeProvider{}
	svc := New(provider, 15, time.Second)

	_, err := svc.Search(context.Background(), "ab")
	assert.ErrorIs(t, err, ErrQueryTooShort)
	assert.Equal(t, 0, provider.calls)

	_, err = svc.Search(context.Background(), "  ab  ")
	assert.ErrorIs(t, err, ErrQueryTooShort)
	assert.Equal(t, 0, provider.calls)
}

func TestSearchNormalizesResults(t *testing.T) {
	provider := &fakeProvider{entries: []extractor.Entry{
		{Title: "DJ Example - Night Drive", Uploader: "djexample", Webpage: "https://soundcloud.com/djexample/night-drive", Duration: 225},
		{Title: "untitled loop", Uploader: "someone", URL: "https://soundcloud.com/someone/loop", Duration: 61},
	}}
	svc := New(provider, 15, time.Second)

	results, err := svc.Search(context.Background(), "night drive")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "DJ Example", results[0].Artist)
	assert.Equal(t, "Night Drive", results[0].Title)
	assert.Equal(t, "3:45", results[0].Duration)
	assert.NotEmpty(t, results[0].ID)

	// No split pattern: uploader becomes the artist.
	assert.Equal(t, "someone", results[1].Artist)
	assert.Equal(t, "untitled loop", results[1].Title)
	assert.Equal(t, "1:01", results[1].Duration)

	assert.NotEqual(t, results[0].ID, results[1].ID)
}

func TestSearchIDStableForSamePermalink(t *testing.T) {
	entry := extractor.Entry{Title: "A - Bcde", Webpage: "https://soundcloud.com/a/b"}
	provider := &fakeProvider{entries: []extractor.Entry{entry}}
	svc := New(provider, 15, time.Second)

	first, err := svc.Search(context.Background(), "query one")
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), "query two")
	require.NoError(t, err)
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestSearchTimeout(t *testing.T) {
	provider := &fakeProvider{delay: 200 * time.Millisecond}
	svc := New(provider, 15, 10*time.Millisecond)

	_, err := svc.Search(context.Background(), "slow query")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestSearchProviderError(t *testing.T) {
	provider := &fakeProvider{err: extractor.ErrUnreachable}
	svc := New(provider, 15, time.Second)

	_, err := svc.Search(context.Background(), "broken")
	assert.ErrorIs(t, err, ErrProvider)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:05", FormatDuration(5))
	assert.Equal(t, "1:00", FormatDuration(60))
	assert.Equal(t, "3:45", FormatDuration(225))
	assert.Equal(t, "12:03", FormatDuration(723))
	assert.Equal(t, "?", FormatDuration(0))
}

func TestSplitArtistTitle(t *testing.T) {
	cases := []struct {
		raw, uploader, artist, title string
	}{
		{"Artist - Track Name", "up", "Artist", "Track Name"},
		{"Artist – Track Name", "up", "Artist", "Track Name"},
		{"Artist — Track Name", "up", "Artist", "Track Name"},
		{"Artist | Track Name", "up", "Artist", "Track Name"},
		{"Artist: Track Name", "up", "Artist", "Track Name"},
		{"Artist «Track Name»", "up", "Artist", "Track Name"},
		{"no separator here", "uploader", "uploader", "no separator here"},
		{"x - ab", "up", "up", "x - ab"}, // split title too short
	}
	for _, tc := range cases {
		artist, title := SplitArtistTitle(tc.raw, tc.uploader)
		assert.Equal(t, tc.artist, artist, tc.raw)
		assert.Equal(t, tc.title, title, tc.raw)
	}

	// Overlong artist candidate falls through to the uploader.
	longArtist := ""
	for i := 0; i < 60; i++ {
		longArtist += "a"
	}
	artist, title := SplitArtistTitle(longArtist+" - Track Name", "up")
	assert.Equal(t, "up", artist)
	assert.Equal(t, longArtist+" - Track Name", title)
}

func sessionResults(n int) []models.TrackSummary {
	out := make([]models.TrackSummary, n)
	for i := range out {
		out[i] = models.TrackSummary{ID: fmt.Sprintf("id%02d", i), Title: fmt.Sprintf("t%d", i)}
	}
	return out
}

func TestSessionPaging(t *testing.T) {
	s := NewSession("q", sessionResults(13))

	page := s.Page()
	require.Len(t, page, PageSize)
	assert.Equal(t, "id00", page[0].ID)
	current, total := s.PageInfo()
	assert.Equal(t, 1, current)
	assert.Equal(t, 3, total)

	s.Next()
	assert.Equal(t, "id05", s.Page()[0].ID)

	s.Next()
	page = s.Page()
	assert.Equal(t, "id08", page[0].ID) // clamped to the last full window
	require.Len(t, page, PageSize)

	s.Next() // already at the end, stays put
	assert.Equal(t, "id08", s.Page()[0].ID)

	s.Prev()
	s.Prev()
	s.Prev() // clamped at zero
	assert.Equal(t, "id00", s.Page()[0].ID)
}

func TestSessionShortResultSet(t *testing.T) {
	s := NewSession("q", sessionResults(3))

	assert.Len(t, s.Page(), 3)
	s.Next()
	assert.Len(t, s.Page(), 3)
	current, total := s.PageInfo()
	assert.Equal(t, 1, current)
	assert.Equal(t, 1, total)
}

func TestSessionByID(t *testing.T) {
	s := NewSession("q", sessionResults(6))

	r, ok := s.ByID("id04")
	require.True(t, ok)
	assert.Equal(t, "t4", r.Title)

	_, ok = s.ByID("missing")
	assert.False(t, ok)
}
