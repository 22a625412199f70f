// Package store persists user profiles, the content cache, download
// history and statistics in a bitcask key-value store. Values are JSON;
// keys are prefixed per record family so related records can be walked
// with a prefix scan.
package store

import (
	"errors"

	"github.com/mldwnk1488/soundcloudbot/internal/models"
)

// ErrNotFound is returned when a key is not found in the store.
var ErrNotFound = errors.New("key not found")

// Store is the persistence interface the bot consumes. Implementations
// must be safe for concurrent use. Callers treat failures as
// non-fatal: informational reads degrade to defaults instead of
// aborting a job.
type Store interface {
	UpsertUser(profile models.UserProfile) error
	UserLanguage(userID int64) (string, error)
	SetUserLanguage(userID int64, language string) error
	AllUserIDs() ([]int64, error)

	CachedContent(url string) (models.CacheEntry, error)
	PutCachedContent(entry models.CacheEntry) error

	AppendDownloadRecord(rec models.DownloadRecord) error
	AppendStatistic(rec models.StatRecord) error
	LastDownload(userID int64, url string) (models.DownloadRecord, error)
	History(userID int64, limit int) ([]models.DownloadRecord, error)
	UserStats(userID int64) (models.UserStats, error)
	GlobalStats() (models.GlobalStats, error)

	Close() error
}
