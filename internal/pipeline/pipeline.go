// Package pipeline executes one admitted job end to end: fetch into a
// scratch directory, package per the chosen format, deliver, and record
// history. The scratch directory is removed no matter how the run ends.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mldwnk1488/soundcloudbot/internal/lang"
	"github.com/mldwnk1488/soundcloudbot/internal/models"
	"github.com/mldwnk1488/soundcloudbot/internal/store"
	"github.com/mldwnk1488/soundcloudbot/internal/transport"
)

var (
	// ErrFetchFailed wraps extractor failures; the underlying cause
	// stays reachable through errors.Is.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrNoOutput means the fetch finished but produced no files.
	ErrNoOutput = errors.New("fetch produced no files")

	// ErrPackagingFailed marks an archive that could not be built.
	ErrPackagingFailed = errors.New("packaging failed")

	// ErrNothingDelivered means every delivery attempt failed.
	ErrNothingDelivered = errors.New("no files could be delivered")
)

// Fetcher is the slice of the extractor the pipeline needs.
type Fetcher interface {
	Fetch(ctx context.Context, url, destDir string) error
}

// Pipeline runs jobs. One instance serves all jobs; the admission queue
// guarantees only one runs at a time.
type Pipeline struct {
	fetcher      Fetcher
	sender       transport.Transport
	db           store.Store
	workDir      string
	partSize     int64
	fetchTimeout time.Duration
}

// New returns a Pipeline writing scratch data under workDir and
// packing archives up to partSize bytes.
func New(fetcher Fetcher, sender transport.Transport, db store.Store, workDir string, partSize int64, fetchTimeout time.Duration) *Pipeline {
	return &Pipeline{
		fetcher:      fetcher,
		sender:       sender,
		db:           db,
		workDir:      workDir,
		partSize:     partSize,
		fetchTimeout: fetchTimeout,
	}
}

// Run processes one job and reports what was delivered. The chat id is
// where files and per-file notices go; job.Language selects captions.
func (p *Pipeline) Run(ctx context.Context, chatID int64, job models.Job) (models.Delivered, error) {
	scratch, err := os.MkdirTemp(p.workDir, "job-")
	if err != nil {
		return models.Delivered{}, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(scratch); rmErr != nil {
			log.WithError(rmErr).Warnf("Failed to remove scratch directory %s", scratch)
		}
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()
	if err := p.fetcher.Fetch(fetchCtx, job.Content.URL, scratch); err != nil {
		return models.Delivered{}, fmt.Errorf("%w: %s: %w", ErrFetchFailed, job.Content.URL, err)
	}

	files, totalBytes, err := enumerate(scratch)
	if err != nil {
		return models.Delivered{}, err
	}
	if len(files) == 0 {
		return models.Delivered{}, fmt.Errorf("%w: %s", ErrNoOutput, job.Content.URL)
	}

	log.WithFields(log.Fields{
		"requester": job.RequesterID,
		"files":     len(files),
		"bytes":     totalBytes,
		"format":    job.Format,
	}).Info("Fetch complete, delivering")

	switch job.Format {
	case models.FormatIndividualItems:
		err = p.deliverItems(chatID, job, files)
	default:
		err = p.deliverArchive(chatID, job, scratch, files)
	}
	if err != nil {
		return models.Delivered{}, err
	}

	delivered := models.Delivered{ItemCount: len(files), TotalBytes: totalBytes}
	p.record(job, delivered)
	return delivered, nil
}

// enumerate lists the fetched files in name order with their byte
// total. Sizes are measured before packaging, so history reflects the
// audio payload rather than archive overhead.
func enumerate(dir string) ([]string, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("listing %s: %w", dir, err)
	}

	var files []string
	var total int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, 0, fmt.Errorf("stating %s: %w", entry.Name(), err)
		}
		files = append(files, filepath.Join(dir, entry.Name()))
		total += info.Size()
	}
	sort.Strings(files)
	return files, total, nil
}

func (p *Pipeline) deliverItems(chatID int64, job models.Job, files []string) error {
	tr := func(key string) string { return lang.Get(job.Language, key) }

	if _, err := p.sender.SendMessage(chatID, fmt.Sprintf(tr("sending_tracks"), len(files))); err != nil {
		log.WithError(err).Warn("Failed to send delivery notice")
	}

	delivered := 0
	for i, path := range files {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		caption := fmt.Sprintf(tr("track_caption"), stem, i+1, len(files))
		if err := p.sender.SendAudioFile(chatID, path, caption); err != nil {
			log.WithError(err).Warnf("Failed to send %s", filepath.Base(path))
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return fmt.Errorf("%w: %d files attempted", ErrNothingDelivered, len(files))
	}
	if _, err := p.sender.SendMessage(chatID, tr("all_tracks_sent")); err != nil {
		log.WithError(err).Warn("Failed to send delivery notice")
	}
	return nil
}

func (p *Pipeline) deliverArchive(chatID int64, job models.Job, scratch string, files []string) error {
	tr := func(key string) string { return lang.Get(job.Language, key) }

	base := job.Content.Title
	if base == "" {
		base = "soundcloud"
	}
	packed, err := PackIntoParts(files, scratch, base, p.partSize)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPackagingFailed, err)
	}

	for _, path := range packed.Skipped {
		msg := fmt.Sprintf(tr("part_skipped"), filepath.Base(path))
		if _, sendErr := p.sender.SendMessage(chatID, msg); sendErr != nil {
			log.WithError(sendErr).Warn("Failed to send skip notice")
		}
	}
	if len(packed.Parts) == 0 {
		return fmt.Errorf("%w: every file exceeded the part size limit", ErrNothingDelivered)
	}

	if _, err := p.sender.SendMessage(chatID, fmt.Sprintf(tr("sending_archive"), len(packed.Parts))); err != nil {
		log.WithError(err).Warn("Failed to send delivery notice")
	}

	delivered := 0
	for i, part := range packed.Parts {
		caption := fmt.Sprintf(tr("part_caption"), base, i+1, len(packed.Parts))
		if err := p.sender.SendDocumentFile(chatID, part, caption); err != nil {
			log.WithError(err).Warnf("Failed to send part %d/%d", i+1, len(packed.Parts))
			msg := fmt.Sprintf(tr("part_send_error"), i+1)
			if _, sendErr := p.sender.SendMessage(chatID, msg); sendErr != nil {
				log.WithError(sendErr).Warn("Failed to send part failure notice")
			}
		} else {
			delivered++
		}
		// Each part is deleted as soon as it has been handled so the
		// scratch directory never holds the payload twice over.
		if rmErr := os.Remove(part); rmErr != nil {
			log.WithError(rmErr).Warnf("Failed to remove part %s", filepath.Base(part))
		}
	}
	if delivered == 0 {
		return fmt.Errorf("%w: %d parts attempted", ErrNothingDelivered, len(packed.Parts))
	}
	if _, err := p.sender.SendMessage(chatID, fmt.Sprintf(tr("archive_sent"), delivered)); err != nil {
		log.WithError(err).Warn("Failed to send delivery notice")
	}
	return nil
}

// record writes history and statistics for completed jobs. Replays are
// deliberately not recorded again. Store failures are logged, never
// surfaced: bookkeeping must not fail a delivered job.
func (p *Pipeline) record(job models.Job, delivered models.Delivered) {
	if job.IsReplay {
		return
	}
	err := p.db.AppendDownloadRecord(models.DownloadRecord{
		RequesterID: job.RequesterID,
		URL:         job.Content.URL,
		Title:       job.Content.Title,
		ItemCount:   delivered.ItemCount,
		TotalBytes:  delivered.TotalBytes,
	})
	if err != nil {
		log.WithError(err).Warn("Failed to append download record")
	}
	err = p.db.AppendStatistic(models.StatRecord{
		RequesterID: job.RequesterID,
		Action:      "download",
		ItemCount:   delivered.ItemCount,
		TotalBytes:  delivered.TotalBytes,
	})
	if err != nil {
		log.WithError(err).Warn("Failed to append statistic")
	}
}
