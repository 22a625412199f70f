package store

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mldwnk1488/soundcloudbot/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUserRoundTrip(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.UpsertUser(models.UserProfile{
		ID: 7, Username: "dj", FirstName: "D", Language: "en",
	}))

	language, err := db.UserLanguage(7)
	require.NoError(t, err)
	assert.Equal(t, "en", language)

	// Upsert without a language keeps the stored one.
	require.NoError(t, db.UpsertUser(models.UserProfile{ID: 7, Username: "dj2"}))
	language, err = db.UserLanguage(7)
	require.NoError(t, err)
	assert.Equal(t, "en", language)

	require.NoError(t, db.SetUserLanguage(7, "ru"))
	language, err = db.UserLanguage(7)
	require.NoError(t, err)
	assert.Equal(t, "ru", language)
}

func TestUserLanguageUnknownUser(t *testing.T) {
	db := openTestDB(t)

	_, err := db.UserLanguage(404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAllUserIDs(t *testing.T) {
	db := openTestDB(t)
	for _, id := range []int64{30, 10, 20} {
		require.NoError(t, db.UpsertUser(models.UserProfile{ID: id}))
	}

	ids, err := db.AllUserIDs()
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20, 30}, ids)
}

func TestCachedContentRoundTrip(t *testing.T) {
	db := openTestDB(t)
	url := "https://soundcloud.com/a/sets/mix"

	_, err := db.CachedContent(url)
	assert.ErrorIs(t, err, ErrNotFound)

	entry := models.CacheEntry{
		Content: models.ContentReference{
			URL: url, Kind: models.KindPlaylist, Title: "Mix", Owner: "a", ItemCount: 3,
		},
		Manifest: []string{"one", "two", "three"},
	}
	require.NoError(t, db.PutCachedContent(entry))

	got, err := db.CachedContent(url)
	require.NoError(t, err)
	assert.Equal(t, entry.Content, got.Content)
	assert.Equal(t, entry.Manifest, got.Manifest)
	assert.False(t, got.CachedAt.IsZero())
}

func TestHistoryOrderAndLimit(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		require.NoError(t, db.AppendDownloadRecord(models.DownloadRecord{
			RequesterID: 1,
			URL:         "https://soundcloud.com/x",
			Title:       "Mix",
			ItemCount:   i + 1,
			TotalBytes:  int64(i) * 100,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	history, err := db.History(1, 5)
	require.NoError(t, err)
	require.Len(t, history, 5)

	// Most recent first.
	for i := 0; i < len(history)-1; i++ {
		assert.True(t, history[i].CreatedAt.After(history[i+1].CreatedAt))
	}
	assert.Equal(t, 7, history[0].ItemCount)
}

func TestLastDownloadIsPerUser(t *testing.T) {
	db := openTestDB(t)
	url := "https://soundcloud.com/a/track"

	require.NoError(t, db.AppendDownloadRecord(models.DownloadRecord{
		RequesterID: 1, URL: url, Title: "Track",
	}))

	rec, err := db.LastDownload(1, url)
	require.NoError(t, err)
	assert.Equal(t, "Track", rec.Title)

	// Shared content cache, but history is per user.
	_, err = db.LastDownload(2, url)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatsAggregation(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.UpsertUser(models.UserProfile{ID: 1}))
	require.NoError(t, db.UpsertUser(models.UserProfile{ID: 2}))

	require.NoError(t, db.AppendDownloadRecord(models.DownloadRecord{
		RequesterID: 1, URL: "u1", ItemCount: 3, TotalBytes: 300,
	}))
	require.NoError(t, db.AppendDownloadRecord(models.DownloadRecord{
		RequesterID: 1, URL: "u2", ItemCount: 2, TotalBytes: 200,
	}))
	require.NoError(t, db.AppendDownloadRecord(models.DownloadRecord{
		RequesterID: 2, URL: "u1", ItemCount: 5, TotalBytes: 500,
	}))

	userStats, err := db.UserStats(1)
	require.NoError(t, err)
	assert.Equal(t, models.UserStats{Downloads: 2, Items: 5, TotalBytes: 500}, userStats)

	globalStats, err := db.GlobalStats()
	require.NoError(t, err)
	assert.Equal(t, models.GlobalStats{Users: 2, Downloads: 3, Items: 10, TotalBytes: 1000}, globalStats)
}

// History reads iterate the keyspace while writers queue for the write
// lock. Hammer both sides and fail fast if they wedge each other.
func TestHistoryReadsDoNotBlockWriters(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.AppendDownloadRecord(models.DownloadRecord{
		RequesterID: 1, URL: "https://soundcloud.com/x", ItemCount: 1, TotalBytes: 100,
	}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				for j := 0; j < 25; j++ {
					_ = db.AppendDownloadRecord(models.DownloadRecord{
						RequesterID: int64(n%2 + 1),
						URL:         "https://soundcloud.com/x",
						ItemCount:   1,
						TotalBytes:  100,
					})
				}
			}(i)
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 25; j++ {
					_, _ = db.History(1, 5)
					_, _ = db.UserStats(1)
					_, _ = db.GlobalStats()
				}
			}()
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("history readers and writers deadlocked")
	}
}

func TestAppendStatistic(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.AppendStatistic(models.StatRecord{
		RequesterID: 1, Action: "download", ItemCount: 3, TotalBytes: 300,
	}))
}
