package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"git.mills.io/prologic/bitcask"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/mldwnk1488/soundcloudbot/internal/models"
)

// Key prefixes. History keys embed the user id so one user's records
// sit under a single scan prefix.
const (
	userKeyPrefix  = "user_"
	cacheKeyPrefix = "cache_"
	histKeyPrefix  = "hist_"
	statKeyPrefix  = "stat_"
)

// Playlist manifests can outgrow bitcask's default 64 KiB value cap.
const maxValueSize = 1 << 20

// DB wraps a bitcask instance and implements Store.
type DB struct {
	db *bitcask.Bitcask
}

var _ Store = (*DB)(nil)

// Open initializes and returns a DB instance at path.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}

	db, err := bitcask.Open(path, bitcask.WithMaxValueSize(maxValueSize))
	if err != nil {
		return nil, fmt.Errorf("opening bitcask database at %s: %w", path, err)
	}

	log.Infof("Database opened at %s", path)
	return &DB{db: db}, nil
}

// Close closes the underlying bitcask instance.
func (d *DB) Close() error {
	log.Info("Closing database...")
	return d.db.Close()
}

func (d *DB) getJSON(key string, out interface{}) error {
	raw, err := d.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, bitcask.ErrKeyNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("getting key %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshalling value for key %s: %w", key, err)
	}
	return nil
}

func (d *DB) putJSON(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshalling value for key %s: %w", key, err)
	}
	if err := d.db.Put([]byte(key), raw); err != nil {
		return fmt.Errorf("putting key %s: %w", key, err)
	}
	return nil
}

func userKey(userID int64) string {
	return userKeyPrefix + strconv.FormatInt(userID, 10)
}

func userHistPrefix(userID int64) string {
	return histKeyPrefix + strconv.FormatInt(userID, 10) + "_"
}

// UpsertUser stores the profile, preserving an existing language and
// creation time when the caller left them unset.
func (d *DB) UpsertUser(profile models.UserProfile) error {
	var existing models.UserProfile
	err := d.getJSON(userKey(profile.ID), &existing)
	if err == nil {
		if profile.Language == "" {
			profile.Language = existing.Language
		}
		if profile.CreatedAt.IsZero() {
			profile.CreatedAt = existing.CreatedAt
		}
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	return d.putJSON(userKey(profile.ID), profile)
}

// UserLanguage returns the stored language preference.
func (d *DB) UserLanguage(userID int64) (string, error) {
	var profile models.UserProfile
	if err := d.getJSON(userKey(userID), &profile); err != nil {
		return "", err
	}
	return profile.Language, nil
}

// SetUserLanguage updates the language preference, creating a minimal
// profile when the user is unknown.
func (d *DB) SetUserLanguage(userID int64, language string) error {
	var profile models.UserProfile
	err := d.getJSON(userKey(userID), &profile)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	profile.ID = userID
	profile.Language = language
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	return d.putJSON(userKey(userID), profile)
}

// AllUserIDs returns every known user id.
func (d *DB) AllUserIDs() ([]int64, error) {
	var ids []int64
	err := d.db.Scan([]byte(userKeyPrefix), func(key []byte) error {
		idStr := strings.TrimPrefix(string(key), userKeyPrefix)
		id, parseErr := strconv.ParseInt(idStr, 10, 64)
		if parseErr != nil {
			log.Warnf("Skipping malformed user key %q", string(key))
			return nil
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning user keys: %w", err)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// CachedContent returns the cache entry for a content URL.
func (d *DB) CachedContent(url string) (models.CacheEntry, error) {
	var entry models.CacheEntry
	err := d.getJSON(cacheKeyPrefix+url, &entry)
	return entry, err
}

// PutCachedContent stores a resolved reference and its item manifest.
func (d *DB) PutCachedContent(entry models.CacheEntry) error {
	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now().UTC()
	}
	return d.putJSON(cacheKeyPrefix+entry.Content.URL, entry)
}

// AppendDownloadRecord appends one history row. Keys carry a
// nanosecond timestamp plus a short random suffix for uniqueness;
// readers order by the record's CreatedAt field.
func (d *DB) AppendDownloadRecord(rec models.DownloadRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	key := fmt.Sprintf("%s%020d_%s", userHistPrefix(rec.RequesterID), rec.CreatedAt.UnixNano(), uuid.NewString()[:8])
	return d.putJSON(key, rec)
}

// AppendStatistic appends one aggregate statistics increment.
func (d *DB) AppendStatistic(rec models.StatRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return d.putJSON(statKeyPrefix+uuid.NewString(), rec)
}

// keysWithPrefix collects matching keys before any value reads happen.
// Calling Get from inside the Scan callback would re-enter the store's
// lock while a queued writer is waiting, which deadlocks.
func (d *DB) keysWithPrefix(prefix string) ([]string, error) {
	var keys []string
	err := d.db.Scan([]byte(prefix), func(key []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning keys with prefix %s: %w", prefix, err)
	}
	return keys, nil
}

func (d *DB) historyRecords(prefix string) ([]models.DownloadRecord, error) {
	keys, err := d.keysWithPrefix(prefix)
	if err != nil {
		return nil, err
	}
	records := make([]models.DownloadRecord, 0, len(keys))
	for _, key := range keys {
		var rec models.DownloadRecord
		if getErr := d.getJSON(key, &rec); getErr != nil {
			log.WithError(getErr).Warnf("Skipping unreadable history key %q", key)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func (d *DB) userRecords(userID int64) ([]models.DownloadRecord, error) {
	records, err := d.historyRecords(userHistPrefix(userID))
	if err != nil {
		return nil, fmt.Errorf("reading history for user %d: %w", userID, err)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// LastDownload returns the most recent history row for (user, url).
// Only the requester's own history is consulted: content another user
// downloaded is still new for this one.
func (d *DB) LastDownload(userID int64, url string) (models.DownloadRecord, error) {
	records, err := d.userRecords(userID)
	if err != nil {
		return models.DownloadRecord{}, err
	}
	for _, rec := range records {
		if rec.URL == url {
			return rec, nil
		}
	}
	return models.DownloadRecord{}, ErrNotFound
}

// History returns up to limit most recent records for a user.
func (d *DB) History(userID int64, limit int) ([]models.DownloadRecord, error) {
	records, err := d.userRecords(userID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// UserStats aggregates one user's history.
func (d *DB) UserStats(userID int64) (models.UserStats, error) {
	records, err := d.userRecords(userID)
	if err != nil {
		return models.UserStats{}, err
	}
	var stats models.UserStats
	for _, rec := range records {
		stats.Downloads++
		stats.Items += rec.ItemCount
		stats.TotalBytes += rec.TotalBytes
	}
	return stats, nil
}

// GlobalStats aggregates across all users' history.
func (d *DB) GlobalStats() (models.GlobalStats, error) {
	var stats models.GlobalStats

	ids, err := d.AllUserIDs()
	if err != nil {
		return stats, err
	}
	stats.Users = len(ids)

	records, err := d.historyRecords(histKeyPrefix)
	if err != nil {
		return stats, err
	}
	for _, rec := range records {
		stats.Downloads++
		stats.Items += rec.ItemCount
		stats.TotalBytes += rec.TotalBytes
	}
	return stats, nil
}
