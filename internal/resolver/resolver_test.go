package resolver

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mldwnk1488/soundcloudbot/internal/extractor"
	"github.com/mldwnk1488/soundcloudbot/internal/models"
	"github.com/mldwnk1488/soundcloudbot/internal/store"
)

type fakeMetadata struct {
	info  extractor.Info
	err   error
	calls int
}

func (f *fakeMetadata) Resolve(_ context.Context, _ string) (extractor.Info, error) {
	f.calls++
	return f.info, f.err
}

func newTestResolver(t *testing.T, meta *fakeMetadata) (*Resolver, store.Store) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(meta, db), db
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "AB", CleanTitle(`A<>:"/\|?*B`))
	assert.Equal(t, "plain title", CleanTitle("plain title"))

	long := strings.Repeat("x", 60)
	got := CleanTitle(long)
	assert.Len(t, got, 50)
	assert.Equal(t, "...", got[47:])
}

func TestCleanTitleTruncatesOnRunes(t *testing.T) {
	// 60 Cyrillic characters are 120 bytes; a byte-indexed cut would
	// split a rune in half.
	long := strings.Repeat("п", 60)
	got := CleanTitle(long)

	assert.True(t, utf8.ValidString(got))
	runes := []rune(got)
	assert.Len(t, runes, 50)
	assert.Equal(t, "...", string(runes[47:]))
	assert.Equal(t, strings.Repeat("п", 47), string(runes[:47]))

	// 50 characters exactly stay untouched even though they exceed 50
	// bytes.
	exact := strings.Repeat("ї", 50)
	assert.Equal(t, exact, CleanTitle(exact))
}

func TestResolveTrack(t *testing.T) {
	meta := &fakeMetadata{info: extractor.Info{Title: "My Track", Uploader: "dj"}}
	r, _ := newTestResolver(t, meta)

	ref, manifest, err := r.Resolve(context.Background(), "https://soundcloud.com/dj/my-track")
	require.NoError(t, err)
	assert.Equal(t, models.KindTrack, ref.Kind)
	assert.Equal(t, "My Track", ref.Title)
	assert.Equal(t, "dj", ref.Owner)
	assert.Equal(t, 1, ref.ItemCount)
	assert.Empty(t, manifest)
}

func TestResolvePlaylist(t *testing.T) {
	meta := &fakeMetadata{info: extractor.Info{
		Type:     "playlist",
		Title:    "Mix",
		Uploader: "dj",
		Entries: []extractor.Entry{
			{Title: "One"}, {Title: "Two"}, {Title: "Three"},
		},
	}}
	r, _ := newTestResolver(t, meta)

	ref, manifest, err := r.Resolve(context.Background(), "https://soundcloud.com/dj/sets/mix")
	require.NoError(t, err)
	assert.Equal(t, models.KindPlaylist, ref.Kind)
	assert.Equal(t, 3, ref.ItemCount)
	assert.Equal(t, []string{"One", "Two", "Three"}, manifest)
}

func TestSingleItemContainerCollapsesToTrack(t *testing.T) {
	meta := &fakeMetadata{info: extractor.Info{
		Type:    "playlist",
		Title:   "Mix",
		Entries: []extractor.Entry{{Title: "Only One", Uploader: "dj"}},
	}}
	r, _ := newTestResolver(t, meta)

	ref, _, err := r.Resolve(context.Background(), "https://soundcloud.com/dj/sets/solo")
	require.NoError(t, err)
	assert.Equal(t, models.KindTrack, ref.Kind)
	assert.Equal(t, "Only One", ref.Title)
	assert.Equal(t, "dj", ref.Owner)
	assert.Equal(t, 1, ref.ItemCount)
}

func TestEmptyContainer(t *testing.T) {
	meta := &fakeMetadata{info: extractor.Info{Type: "playlist", Title: "Empty"}}
	r, _ := newTestResolver(t, meta)

	_, _, err := r.Resolve(context.Background(), "https://soundcloud.com/dj/sets/empty")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestResolveUsesCacheOnSecondCall(t *testing.T) {
	meta := &fakeMetadata{info: extractor.Info{Title: "Cached", Uploader: "dj"}}
	r, _ := newTestResolver(t, meta)
	url := "https://soundcloud.com/dj/cached"

	first, _, err := r.Resolve(context.Background(), url)
	require.NoError(t, err)

	second, _, err := r.Resolve(context.Background(), url)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, meta.calls)
}

func TestResolvePropagatesExtractorError(t *testing.T) {
	meta := &fakeMetadata{err: extractor.ErrUnsupported}
	r, _ := newTestResolver(t, meta)

	_, _, err := r.Resolve(context.Background(), "https://example.com/nope")
	assert.ErrorIs(t, err, extractor.ErrUnsupported)
}

func TestLastDeliveryPerUser(t *testing.T) {
	meta := &fakeMetadata{}
	r, db := newTestResolver(t, meta)
	url := "https://soundcloud.com/dj/track"

	_, seen := r.LastDelivery(1, url)
	assert.False(t, seen)

	require.NoError(t, db.AppendDownloadRecord(models.DownloadRecord{
		RequesterID: 1, URL: url, Title: "Track",
	}))

	rec, seen := r.LastDelivery(1, url)
	assert.True(t, seen)
	assert.Equal(t, "Track", rec.Title)

	_, seen = r.LastDelivery(2, url)
	assert.False(t, seen)
}
