package models

import "time"

// ContentKind distinguishes a single track from a multi-track playlist.
type ContentKind string

const (
	KindTrack    ContentKind = "track"
	KindPlaylist ContentKind = "playlist"
)

// DeliveryFormat is the user's chosen packaging for a download.
type DeliveryFormat string

const (
	FormatZip             DeliveryFormat = "zip"
	FormatIndividualItems DeliveryFormat = "items"
)

// ContentReference is the normalized description of a resolved link.
// Immutable once produced by the resolver.
type ContentReference struct {
	URL       string      `json:"url"`
	Kind      ContentKind `json:"kind"`
	Title     string      `json:"title"`
	Owner     string      `json:"owner"`
	ItemCount int         `json:"itemCount"`
}

// Job is one admitted unit of fetch-and-deliver work. The admission
// queue owns it until it becomes active; ownership then transfers to
// the pipeline for the duration of processing.
type Job struct {
	RequesterID int64            `json:"requesterId"`
	Content     ContentReference `json:"content"`
	Format      DeliveryFormat   `json:"format"`
	IsReplay    bool             `json:"isReplay"`
	Language    string           `json:"language"`
}

// TrackSummary is one normalized search result.
type TrackSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Duration  string `json:"duration"` // formatted M:SS
	Permalink string `json:"permalink"`
	RawTitle  string `json:"rawTitle"`
}

// CacheEntry memoizes a resolved reference plus the ordered item titles.
// Keyed by content URL; never evicted in-process.
type CacheEntry struct {
	Content  ContentReference `json:"content"`
	Manifest []string         `json:"manifest"`
	CachedAt time.Time        `json:"cachedAt"`
}

// DownloadRecord is an append-only history row, written once per
// completed non-replay job.
type DownloadRecord struct {
	RequesterID int64     `json:"requesterId"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	ItemCount   int       `json:"itemCount"`
	TotalBytes  int64     `json:"totalBytes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// StatRecord is one aggregate statistics increment.
type StatRecord struct {
	RequesterID int64     `json:"requesterId"`
	Action      string    `json:"action"`
	ItemCount   int       `json:"itemCount"`
	TotalBytes  int64     `json:"totalBytes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UserProfile is the persisted per-user record.
type UserProfile struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserStats aggregates one user's completed downloads.
type UserStats struct {
	Downloads  int   `json:"downloads"`
	Items      int   `json:"items"`
	TotalBytes int64 `json:"totalBytes"`
}

// GlobalStats aggregates across all users.
type GlobalStats struct {
	Users      int   `json:"users"`
	Downloads  int   `json:"downloads"`
	Items      int   `json:"items"`
	TotalBytes int64 `json:"totalBytes"`
}

// Delivered summarizes a successfully completed pipeline run.
type Delivered struct {
	ItemCount  int   `json:"itemCount"`
	TotalBytes int64 `json:"totalBytes"`
}
