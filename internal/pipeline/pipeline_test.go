package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mldwnk1488/soundcloudbot/internal/models"
	"github.com/mldwnk1488/soundcloudbot/internal/store"
	"github.com/mldwnk1488/soundcloudbot/internal/transport"
)

type fakeFetcher struct {
	files map[string]int // name -> size
	links []string       // dangling symlinks, unreadable at packing time
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string, destDir string) error {
	if f.err != nil {
		return f.err
	}
	for name, size := range f.files {
		path := filepath.Join(destDir, name)
		if err := os.WriteFile(path, bytes.Repeat([]byte{'x'}, size), 0644); err != nil {
			return err
		}
	}
	for _, name := range f.links {
		if err := os.Symlink(filepath.Join(destDir, "missing"), filepath.Join(destDir, name)); err != nil {
			return err
		}
	}
	return nil
}

type sentFile struct {
	path    string
	caption string
	existed bool
}

type fakeSender struct {
	audio     []sentFile
	documents []sentFile
	texts     []string
	audioErr  error
	docErr    error
}

func (f *fakeSender) SendMessage(_ int64, text string) (int, error) {
	f.texts = append(f.texts, text)
	return 1, nil
}

func (f *fakeSender) SendKeyboard(_ int64, text string, _ transport.Keyboard) (int, error) {
	f.texts = append(f.texts, text)
	return 1, nil
}

func (f *fakeSender) EditMessage(_ int64, _ int, _ string, _ transport.Keyboard) error {
	return nil
}

func (f *fakeSender) SendAudioFile(_ int64, path, caption string) error {
	_, statErr := os.Stat(path)
	f.audio = append(f.audio, sentFile{path: path, caption: caption, existed: statErr == nil})
	return f.audioErr
}

func (f *fakeSender) SendDocumentFile(_ int64, path, caption string) error {
	_, statErr := os.Stat(path)
	f.documents = append(f.documents, sentFile{path: path, caption: caption, existed: statErr == nil})
	return f.docErr
}

func (f *fakeSender) AnswerCallback(string) error { return nil }

func newTestPipeline(t *testing.T, fetcher *fakeFetcher, sender *fakeSender, partSize int64) (*Pipeline, store.Store, string) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	workDir := t.TempDir()
	return New(fetcher, sender, db, workDir, partSize, time.Minute), db, workDir
}

func trackJob(format models.DeliveryFormat) models.Job {
	return models.Job{
		RequesterID: 1,
		Content: models.ContentReference{
			URL:   "https://soundcloud.com/dj/mix",
			Kind:  models.KindPlaylist,
			Title: "Mix",
		},
		Format:   format,
		Language: "en",
	}
}

func TestRunDeliversIndividualItems(t *testing.T) {
	fetcher := &fakeFetcher{files: map[string]int{"b.mp3": 20, "a.mp3": 10, "c.mp3": 30}}
	sender := &fakeSender{}
	p, db, workDir := newTestPipeline(t, fetcher, sender, 45)

	delivered, err := p.Run(context.Background(), 100, trackJob(models.FormatIndividualItems))
	require.NoError(t, err)
	assert.Equal(t, models.Delivered{ItemCount: 3, TotalBytes: 60}, delivered)

	require.Len(t, sender.audio, 3)
	// Name order, with position captions.
	assert.Equal(t, "a — track 1/3", sender.audio[0].caption)
	assert.Equal(t, "b — track 2/3", sender.audio[1].caption)
	assert.Equal(t, "c — track 3/3", sender.audio[2].caption)
	for _, sent := range sender.audio {
		assert.True(t, sent.existed, "file should exist at send time: %s", sent.path)
	}
	assert.Equal(t, []string{"Sending 3 tracks...", "All tracks sent."}, sender.texts)

	// Scratch directory is gone.
	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// History was written with pre-packaging byte totals.
	rec, err := db.LastDownload(1, "https://soundcloud.com/dj/mix")
	require.NoError(t, err)
	assert.Equal(t, 3, rec.ItemCount)
	assert.Equal(t, int64(60), rec.TotalBytes)
}

func TestRunDeliversArchiveParts(t *testing.T) {
	fetcher := &fakeFetcher{files: map[string]int{
		"a.mp3": 10, "b.mp3": 10, "c.mp3": 10, "d.mp3": 10, "e.mp3": 10, "f.mp3": 10, "g.mp3": 5,
	}}
	sender := &fakeSender{}
	p, _, _ := newTestPipeline(t, fetcher, sender, 45)

	delivered, err := p.Run(context.Background(), 100, trackJob(models.FormatZip))
	require.NoError(t, err)
	assert.Equal(t, 7, delivered.ItemCount)
	assert.Equal(t, int64(65), delivered.TotalBytes)

	require.Len(t, sender.documents, 2)
	assert.Equal(t, "Mix — part 1/2", sender.documents[0].caption)
	assert.Equal(t, "Mix — part 2/2", sender.documents[1].caption)
	for _, sent := range sender.documents {
		assert.True(t, sent.existed)
		_, statErr := os.Stat(sent.path)
		assert.True(t, os.IsNotExist(statErr), "part should be deleted after sending: %s", sent.path)
	}
	assert.Equal(t, []string{"Sending archive in 2 part(s)...", "Archive sent (2 parts)."}, sender.texts)
}

func TestRunArchiveSkipsOversizeWithNotice(t *testing.T) {
	fetcher := &fakeFetcher{files: map[string]int{"ok.mp3": 10, "huge.mp3": 50}}
	sender := &fakeSender{}
	p, _, _ := newTestPipeline(t, fetcher, sender, 45)

	delivered, err := p.Run(context.Background(), 100, trackJob(models.FormatZip))
	require.NoError(t, err)
	assert.Equal(t, 2, delivered.ItemCount)

	require.Len(t, sender.documents, 1)
	require.Len(t, sender.texts, 3)
	assert.Contains(t, sender.texts[0], "huge.mp3")
	assert.Equal(t, "Sending archive in 1 part(s)...", sender.texts[1])
	assert.Equal(t, "Archive sent (1 parts).", sender.texts[2])
}

func TestRunUnreadableFileIsPackagingFailure(t *testing.T) {
	fetcher := &fakeFetcher{files: map[string]int{"a.mp3": 10}, links: []string{"b.mp3"}}
	sender := &fakeSender{}
	p, db, _ := newTestPipeline(t, fetcher, sender, 45)

	_, err := p.Run(context.Background(), 100, trackJob(models.FormatZip))
	assert.ErrorIs(t, err, ErrPackagingFailed)

	_, err = db.LastDownload(1, "https://soundcloud.com/dj/mix")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunReplaySkipsBookkeeping(t *testing.T) {
	fetcher := &fakeFetcher{files: map[string]int{"a.mp3": 10}}
	sender := &fakeSender{}
	p, db, _ := newTestPipeline(t, fetcher, sender, 45)

	job := trackJob(models.FormatIndividualItems)
	job.IsReplay = true
	_, err := p.Run(context.Background(), 100, job)
	require.NoError(t, err)

	_, err = db.LastDownload(1, job.Content.URL)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunFetchErrorCleansUpAndRecordsNothing(t *testing.T) {
	fetcher := &fakeFetcher{err: assert.AnError}
	sender := &fakeSender{}
	p, db, workDir := newTestPipeline(t, fetcher, sender, 45)

	_, err := p.Run(context.Background(), 100, trackJob(models.FormatZip))
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.ErrorIs(t, err, assert.AnError, "the underlying cause stays inspectable")

	entries, readErr := os.ReadDir(workDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)

	_, err = db.LastDownload(1, "https://soundcloud.com/dj/mix")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRunEmptyFetchIsNoOutput(t *testing.T) {
	fetcher := &fakeFetcher{files: map[string]int{}}
	sender := &fakeSender{}
	p, _, _ := newTestPipeline(t, fetcher, sender, 45)

	_, err := p.Run(context.Background(), 100, trackJob(models.FormatZip))
	assert.ErrorIs(t, err, ErrNoOutput)
}

func TestRunAllSendsFailed(t *testing.T) {
	fetcher := &fakeFetcher{files: map[string]int{"a.mp3": 10}}
	sender := &fakeSender{audioErr: assert.AnError}
	p, db, _ := newTestPipeline(t, fetcher, sender, 45)

	_, err := p.Run(context.Background(), 100, trackJob(models.FormatIndividualItems))
	assert.ErrorIs(t, err, ErrNothingDelivered)

	_, err = db.LastDownload(1, "https://soundcloud.com/dj/mix")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
