// Package search wraps provider-side track search: query validation,
// timeout enforcement, result normalization and paging sessions.
package search

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"github.com/zeebo/blake3"

	"github.com/mldwnk1488/soundcloudbot/internal/extractor"
	"github.com/mldwnk1488/soundcloudbot/internal/models"
)

var (
	ErrQueryTooShort = errors.New("search query is too short")
	ErrTimeout       = errors.New("search timed out")
	ErrProvider      = errors.New("search provider failed")
)

// MinQueryLength is the minimum accepted query length in runes.
const MinQueryLength = 3

// PageSize is the number of results shown per page.
const PageSize = 5

// Provider is the slice of the extractor the search service needs.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]extractor.Entry, error)
}

// Service runs bounded searches against a provider.
type Service struct {
	provider Provider
	limit    int
	timeout  time.Duration
}

// New returns a search Service fetching up to limit results per query.
func New(provider Provider, limit int, timeout time.Duration) *Service {
	return &Service{provider: provider, limit: limit, timeout: timeout}
}

// Search validates the query and returns normalized results. Queries
// shorter than MinQueryLength are rejected before the provider is
// called at all.
func (s *Service) Search(ctx context.Context, query string) ([]models.TrackSummary, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return nil, fmt.Errorf("%w: %q", ErrQueryTooShort, query)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	entries, err := s.provider.Search(ctx, query, s.limit)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %q after %s", ErrTimeout, query, s.timeout)
		}
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	results := make([]models.TrackSummary, 0, len(entries))
	for _, entry := range entries {
		permalink := entry.PermalinkURL()
		if permalink == "" {
			continue
		}
		artist, title := SplitArtistTitle(entry.Title, entry.Uploader)
		results = append(results, models.TrackSummary{
			ID:        trackID(permalink),
			Title:     title,
			Artist:    artist,
			Duration:  FormatDuration(entry.Duration),
			Permalink: permalink,
			RawTitle:  entry.Title,
		})
	}

	log.WithFields(log.Fields{
		"query":   query,
		"results": len(results),
		"took":    time.Since(started).Round(time.Millisecond),
	}).Debug("Search completed")
	return results, nil
}

// trackID derives a short stable identifier from the permalink, small
// enough to travel inside a callback payload.
func trackID(permalink string) string {
	sum := blake3.Sum256([]byte(permalink))
	return hex.EncodeToString(sum[:8])
}

// FormatDuration renders whole seconds as M:SS.
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return "?"
	}
	total := int(seconds + 0.5)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Session is one user's paged view over a result set.
type Session struct {
	Query   string
	Results []models.TrackSummary
	Offset  int
}

// NewSession returns a session positioned at the first page.
func NewSession(query string, results []models.TrackSummary) *Session {
	return &Session{Query: query, Results: results}
}

// Page returns the results visible at the current offset.
func (s *Session) Page() []models.TrackSummary {
	if s.Offset >= len(s.Results) {
		return nil
	}
	end := s.Offset + PageSize
	if end > len(s.Results) {
		end = len(s.Results)
	}
	return s.Results[s.Offset:end]
}

// Next advances one page, clamping at the last full window.
func (s *Session) Next() {
	s.Offset = clampOffset(s.Offset+PageSize, len(s.Results))
}

// Prev moves one page back, clamping at zero.
func (s *Session) Prev() {
	s.Offset = clampOffset(s.Offset-PageSize, len(s.Results))
}

// PageInfo returns the 1-based current page and the page count.
func (s *Session) PageInfo() (current, total int) {
	total = (len(s.Results) + PageSize - 1) / PageSize
	if total == 0 {
		total = 1
	}
	current = s.Offset/PageSize + 1
	if current > total {
		current = total
	}
	return current, total
}

// ByID finds a result by its short identifier.
func (s *Session) ByID(id string) (models.TrackSummary, bool) {
	for _, r := range s.Results {
		if r.ID == id {
			return r, true
		}
	}
	return models.TrackSummary{}, false
}

func clampOffset(offset, length int) int {
	max := length - PageSize
	if max < 0 {
		max = 0
	}
	if offset > max {
		return max
	}
	if offset < 0 {
		return 0
	}
	return offset
}
