// Package bot holds the conversation logic: command and callback
// handling, the per-user flow state machine, and the serve loop that
// drains the admission queue one job at a time.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mldwnk1488/soundcloudbot/internal/helpers"
	"github.com/mldwnk1488/soundcloudbot/internal/lang"
	"github.com/mldwnk1488/soundcloudbot/internal/models"
	"github.com/mldwnk1488/soundcloudbot/internal/pipeline"
	"github.com/mldwnk1488/soundcloudbot/internal/queue"
	"github.com/mldwnk1488/soundcloudbot/internal/resolver"
	"github.com/mldwnk1488/soundcloudbot/internal/search"
	"github.com/mldwnk1488/soundcloudbot/internal/store"
	"github.com/mldwnk1488/soundcloudbot/internal/transport"
)

// Options are the tunables the bot core needs beyond its collaborators.
type Options struct {
	AdminID         int64
	PromoText       string
	DefaultLanguage string
	ResolveTimeout  time.Duration
	HistoryLimit    int
}

// Bot wires the conversation layer to the queue, pipeline and store.
type Bot struct {
	sender   transport.Transport
	db       store.Store
	resolver *resolver.Resolver
	searcher *search.Service
	queue    *queue.Queue
	pipe     *pipeline.Pipeline
	sessions *Sessions
	opts     Options
	wg       sync.WaitGroup
}

// New assembles a Bot.
func New(sender transport.Transport, db store.Store, res *resolver.Resolver, searcher *search.Service, q *queue.Queue, pipe *pipeline.Pipeline, opts Options) *Bot {
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = lang.DefaultLanguage
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 5
	}
	return &Bot{
		sender:   sender,
		db:       db,
		resolver: res,
		searcher: searcher,
		queue:    q,
		pipe:     pipe,
		sessions: NewSessions(),
		opts:     opts,
	}
}

// Wait blocks until background work (processing, broadcasts) finishes.
func (b *Bot) Wait() {
	b.wg.Wait()
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.sender.SendMessage(chatID, text); err != nil {
		log.WithError(err).Warnf("Failed to send message to chat %d", chatID)
	}
}

// tr resolves a key in the session's language.
func (b *Bot) tr(sess *Session, key string) string {
	language := sess.Language
	if language == "" {
		language = b.opts.DefaultLanguage
	}
	return lang.Get(language, key)
}

// languageFor loads the stored language preference, falling back to the
// configured default. Store failures degrade to the default.
func (b *Bot) languageFor(userID int64) string {
	language, err := b.db.UserLanguage(userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.WithError(err).Warn("Language lookup failed, using default")
		}
		return ""
	}
	return language
}

// enqueue submits a job and tells the requester where they stand.
// Position zero means the slot was free and processing starts now.
func (b *Bot) enqueue(sess *Session, userID int64, job models.Job) {
	job.RequesterID = userID
	pos := b.queue.Submit(userID, job)
	if pos == 0 {
		b.send(sess.Chat(), fmt.Sprintf(b.tr(sess, "download_started"), job.Content.Title))
		b.startProcessing(job)
		return
	}
	text := b.tr(sess, "you_in_queue") + "\n" +
		fmt.Sprintf(b.tr(sess, "queue_position"), pos) + "\n" +
		fmt.Sprintf(b.tr(sess, "total_in_queue"), b.queue.Depth()) + "\n" +
		b.tr(sess, "will_notify_start")
	b.send(sess.Chat(), text)
}

func (b *Bot) startProcessing(job models.Job) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.process(job)
	}()
}

// process drains the queue starting with the job that was just
// admitted. After each job finishes, the next waiter (if any) is
// promoted and notified.
func (b *Bot) process(first models.Job) {
	job := first
	for {
		b.runJob(job)

		next, nextJob, ok := b.queue.PopNext()
		if !ok {
			return
		}
		chatID := b.sessions.ChatFor(next)
		b.send(chatID, lang.Get(nextJob.Language, "congrats_first"))
		b.send(chatID, fmt.Sprintf(lang.Get(nextJob.Language, "download_started"), nextJob.Content.Title))
		job = nextJob
	}
}

// runJob executes one job through the pipeline. MarkFinished is
// deferred so the slot frees even when the pipeline fails.
func (b *Bot) runJob(job models.Job) {
	b.queue.MarkStarted(job.RequesterID)
	defer b.queue.MarkFinished()

	chatID := b.sessions.ChatFor(job.RequesterID)
	b.send(chatID, lang.Get(job.Language, "processing"))

	started := time.Now()
	delivered, err := b.pipe.Run(context.Background(), chatID, job)
	if err != nil {
		log.WithError(err).WithField("requester", job.RequesterID).Error("Job failed")
		switch {
		case errors.Is(err, pipeline.ErrNoOutput):
			b.send(chatID, lang.Get(job.Language, "no_output"))
		case errors.Is(err, pipeline.ErrPackagingFailed):
			b.send(chatID, lang.Get(job.Language, "packaging_failed"))
		default:
			b.send(chatID, lang.Get(job.Language, "download_failed"))
		}
		return
	}

	log.WithFields(log.Fields{
		"requester": job.RequesterID,
		"items":     delivered.ItemCount,
		"bytes":     delivered.TotalBytes,
		"took":      time.Since(started).Round(time.Second),
	}).Info("Job delivered")
	b.send(chatID, fmt.Sprintf(lang.Get(job.Language, "delivery_done"),
		delivered.ItemCount, helpers.BytesToSize(uint64(delivered.TotalBytes))))
	if b.opts.PromoText != "" {
		b.send(chatID, b.opts.PromoText)
	}
}
