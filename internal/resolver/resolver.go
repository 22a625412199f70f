// Package resolver turns a raw content URL into a classified
// ContentReference, consulting the shared cache before reaching for the
// extractor and populating it afterwards.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/mldwnk1488/soundcloudbot/internal/extractor"
	"github.com/mldwnk1488/soundcloudbot/internal/models"
	"github.com/mldwnk1488/soundcloudbot/internal/store"
)

// ErrEmpty is returned for a container that resolves to zero items.
var ErrEmpty = errors.New("content contains no items")

// Unreachable and unsupported URLs surface the extractor's sentinels
// unchanged; callers test with errors.Is against extractor.ErrUnreachable
// and extractor.ErrUnsupported.

const (
	maxTitleLength = 50
	truncatedLen   = 47
)

// Metadata is the slice of the extractor the resolver needs.
type Metadata interface {
	Resolve(ctx context.Context, url string) (extractor.Info, error)
}

// Resolver resolves and caches content references.
type Resolver struct {
	meta Metadata
	db   store.Store
}

// New returns a Resolver backed by the given metadata source and store.
func New(meta Metadata, db store.Store) *Resolver {
	return &Resolver{meta: meta, db: db}
}

// CleanTitle strips characters that are unsafe in filenames and
// truncates long titles with an ellipsis. Truncation counts runes, not
// bytes, so multi-byte titles are never cut mid-character.
func CleanTitle(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return -1
		}
		return r
	}, title)
	cleaned = strings.TrimSpace(cleaned)
	if runes := []rune(cleaned); len(runes) > maxTitleLength {
		cleaned = string(runes[:truncatedLen]) + "..."
	}
	return cleaned
}

// Resolve returns the classified reference for a URL, along with the
// item manifest for containers. Cache hits skip the extractor entirely.
func (r *Resolver) Resolve(ctx context.Context, url string) (models.ContentReference, []string, error) {
	if entry, err := r.db.CachedContent(url); err == nil {
		log.WithField("url", url).Debug("Cache hit for content reference")
		return entry.Content, entry.Manifest, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		log.WithError(err).Warn("Content cache read failed, resolving fresh")
	}

	info, err := r.meta.Resolve(ctx, url)
	if err != nil {
		return models.ContentReference{}, nil, fmt.Errorf("resolving %s: %w", url, err)
	}

	ref, manifest, err := classify(url, info)
	if err != nil {
		return models.ContentReference{}, nil, err
	}

	if putErr := r.db.PutCachedContent(models.CacheEntry{Content: ref, Manifest: manifest}); putErr != nil {
		log.WithError(putErr).Warn("Content cache write failed")
	}
	return ref, manifest, nil
}

// classify maps flattened metadata onto a content reference. A
// container holding exactly one item collapses to a plain track.
func classify(url string, info extractor.Info) (models.ContentReference, []string, error) {
	if info.Type == "playlist" {
		switch len(info.Entries) {
		case 0:
			return models.ContentReference{}, nil, fmt.Errorf("%w: %s", ErrEmpty, url)
		case 1:
			entry := info.Entries[0]
			title := entry.Title
			if title == "" {
				title = info.Title
			}
			return models.ContentReference{
				URL:       url,
				Kind:      models.KindTrack,
				Title:     CleanTitle(title),
				Owner:     firstNonEmpty(entry.Uploader, info.Owner()),
				ItemCount: 1,
			}, nil, nil
		}

		manifest := make([]string, 0, len(info.Entries))
		for _, entry := range info.Entries {
			manifest = append(manifest, CleanTitle(entry.Title))
		}
		return models.ContentReference{
			URL:       url,
			Kind:      models.KindPlaylist,
			Title:     CleanTitle(info.Title),
			Owner:     info.Owner(),
			ItemCount: len(info.Entries),
		}, manifest, nil
	}

	return models.ContentReference{
		URL:       url,
		Kind:      models.KindTrack,
		Title:     CleanTitle(info.Title),
		Owner:     info.Owner(),
		ItemCount: 1,
	}, nil, nil
}

// LastDelivery reports whether this user already received the content,
// failing open: a broken store never blocks a download.
func (r *Resolver) LastDelivery(userID int64, url string) (models.DownloadRecord, bool) {
	rec, err := r.db.LastDownload(userID, url)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.WithError(err).Warn("History lookup failed, treating content as new")
		}
		return models.DownloadRecord{}, false
	}
	return rec, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
