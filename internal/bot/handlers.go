package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/mldwnk1488/soundcloudbot/internal/extractor"
	"github.com/mldwnk1488/soundcloudbot/internal/helpers"
	"github.com/mldwnk1488/soundcloudbot/internal/lang"
	"github.com/mldwnk1488/soundcloudbot/internal/models"
	"github.com/mldwnk1488/soundcloudbot/internal/resolver"
	"github.com/mldwnk1488/soundcloudbot/internal/search"
)

// touch refreshes the session for an incoming update and persists the
// user profile.
func (b *Bot) touch(profile models.UserProfile, chatID int64) *Session {
	sess := b.sessions.Get(profile.ID)
	sess.setChat(chatID)
	sess.mu.Lock()
	if sess.Language == "" {
		sess.Language = b.languageFor(profile.ID)
	}
	sess.mu.Unlock()
	if err := b.db.UpsertUser(profile); err != nil {
		log.WithError(err).Warnf("Failed to upsert user %d", profile.ID)
	}
	return sess
}

// HandleCommand dispatches one slash command.
func (b *Bot) HandleCommand(profile models.UserProfile, chatID int64, command, args string) {
	sess := b.touch(profile, chatID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch command {
	case "start":
		b.handleStart(sess)
	case "language":
		sess.State = StateAwaitingLanguage
		if _, err := b.sender.SendKeyboard(chatID, b.tr(sess, "choose_language"), languageKeyboard(lang.Supported)); err != nil {
			log.WithError(err).Warn("Failed to send language keyboard")
		}
	case "search":
		sess.Reset()
		sess.State = StateSearchAwaitingQuery
		b.send(chatID, b.tr(sess, "search_placeholder"))
	case "queue":
		b.handleQueue(sess, profile.ID)
	case "status":
		b.handleStatus(sess, profile.ID)
	case "history":
		b.handleHistory(sess, profile.ID)
	case "stats":
		b.handleStats(sess, profile.ID)
	case "cancel":
		b.handleCancel(sess, profile.ID)
	case "announce":
		b.handleAnnounce(sess, profile.ID, args)
	case "statsall":
		b.handleGlobalStats(sess, profile.ID)
	default:
		b.send(chatID, b.tr(sess, "welcome"))
	}
}

// HandleText dispatches a plain text message according to the session
// state: a search query when one is expected, otherwise a content link.
func (b *Bot) HandleText(profile models.UserProfile, chatID int64, text string) {
	sess := b.touch(profile, chatID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	text = strings.TrimSpace(text)

	switch sess.State {
	case StateSearchAwaitingQuery:
		b.handleSearchQuery(sess, text)
	default:
		if helpers.IsLikelyURL(text) {
			b.handleLink(sess, profile.ID, text)
			return
		}
		b.send(chatID, b.tr(sess, "send_link_first"))
	}
}

func (b *Bot) handleStart(sess *Session) {
	if sess.Language == "" {
		sess.State = StateAwaitingLanguage
		if _, err := b.sender.SendKeyboard(sess.Chat(), lang.Get(b.opts.DefaultLanguage, "choose_language"), languageKeyboard(lang.Supported)); err != nil {
			log.WithError(err).Warn("Failed to send language keyboard")
		}
		return
	}
	b.send(sess.Chat(), b.tr(sess, "welcome"))
	if b.opts.PromoText != "" {
		b.send(sess.Chat(), b.opts.PromoText)
	}
}

// handleLink resolves a content URL and moves the user to either the
// replay confirmation or the format choice.
func (b *Bot) handleLink(sess *Session, userID int64, url string) {
	b.send(sess.Chat(), b.tr(sess, "getting_info"))

	ctx, cancel := context.WithTimeout(context.Background(), b.opts.ResolveTimeout)
	defer cancel()
	ref, manifest, err := b.resolver.Resolve(ctx, url)
	if err != nil {
		log.WithError(err).WithField("url", url).Warn("Resolve failed")
		switch {
		case errors.Is(err, resolver.ErrEmpty):
			b.send(sess.Chat(), b.tr(sess, "empty_playlist"))
		case errors.Is(err, extractor.ErrUnsupported):
			b.send(sess.Chat(), b.tr(sess, "unsupported_link"))
		default:
			b.send(sess.Chat(), b.tr(sess, "unreachable_link"))
		}
		return
	}

	b.send(sess.Chat(), b.previewText(sess, ref, manifest))
	b.presentContent(sess, userID, ref)
}

// presentContent stages a resolved reference as the pending job and
// routes to either the replay confirmation or the format choice.
func (b *Bot) presentContent(sess *Session, userID int64, ref models.ContentReference) {
	sess.Pending = models.Job{
		RequesterID: userID,
		Content:     ref,
		Language:    b.jobLanguage(sess),
	}

	if rec, seen := b.resolver.LastDelivery(userID, ref.URL); seen {
		sess.LastRecord = rec
		sess.State = StateAwaitingReplayConfirm
		text := b.tr(sess, "already_downloaded") + "\n" +
			fmt.Sprintf("%s: %s", b.tr(sess, "downloaded_at"), rec.CreatedAt.Format("2006-01-02 15:04")) + "\n" +
			b.tr(sess, "download_again")
		if _, err := b.sender.SendKeyboard(sess.Chat(), text, b.replayKeyboard(sess)); err != nil {
			log.WithError(err).Warn("Failed to send replay keyboard")
		}
		return
	}

	b.askFormat(sess)
}

func (b *Bot) askFormat(sess *Session) {
	sess.State = StateAwaitingFormat
	if _, err := b.sender.SendKeyboard(sess.Chat(), b.tr(sess, "choose_format"), b.formatKeyboard(sess)); err != nil {
		log.WithError(err).Warn("Failed to send format keyboard")
	}
}

// previewText builds the resolved content summary shown before the
// format choice.
func (b *Bot) previewText(sess *Session, ref models.ContentReference, manifest []string) string {
	owner := ref.Owner
	if owner == "" {
		owner = b.tr(sess, "unknown_artist")
	}
	title := ref.Title
	if title == "" {
		title = b.tr(sess, "unknown")
	}

	if ref.Kind == models.KindPlaylist {
		lines := []string{
			b.tr(sess, "playlist"),
			fmt.Sprintf("%s: %s", b.tr(sess, "title"), title),
			fmt.Sprintf("%s: %s", b.tr(sess, "artist"), owner),
			fmt.Sprintf("%s: %d", b.tr(sess, "track_count"), ref.ItemCount),
		}
		for i, item := range manifest {
			if i >= 10 {
				lines = append(lines, "...")
				break
			}
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, item))
		}
		return strings.Join(lines, "\n")
	}

	return strings.Join([]string{
		b.tr(sess, "track"),
		fmt.Sprintf("%s: %s", b.tr(sess, "title"), title),
		fmt.Sprintf("%s: %s", b.tr(sess, "artist"), owner),
	}, "\n")
}

func (b *Bot) handleSearchQuery(sess *Session, query string) {
	b.send(sess.Chat(), b.tr(sess, "searching"))

	results, err := b.searcher.Search(context.Background(), query)
	if err != nil {
		switch {
		case errors.Is(err, search.ErrQueryTooShort):
			b.send(sess.Chat(), b.tr(sess, "search_too_short"))
			return // stay in the query state
		case errors.Is(err, search.ErrTimeout):
			b.send(sess.Chat(), b.tr(sess, "search_timeout"))
		default:
			log.WithError(err).Warn("Search failed")
			b.send(sess.Chat(), b.tr(sess, "search_error"))
		}
		sess.Reset()
		return
	}
	if len(results) == 0 {
		b.send(sess.Chat(), fmt.Sprintf(b.tr(sess, "search_no_results"), query))
		sess.Reset()
		return
	}

	sess.Search = search.NewSession(query, results)
	sess.State = StateSearchShowingResults
	msgID, err := b.sender.SendKeyboard(sess.Chat(), b.resultsHeader(sess), b.resultsKeyboard(sess))
	if err != nil {
		log.WithError(err).Warn("Failed to send search results")
		sess.Reset()
		return
	}
	sess.ResultsMsg = msgID
}

func (b *Bot) handleQueue(sess *Session, userID int64) {
	if !b.queue.IsActive() {
		b.send(sess.Chat(), b.tr(sess, "queue_empty"))
		return
	}
	text := b.tr(sess, "processing_now") + "\n" +
		fmt.Sprintf(b.tr(sess, "total_in_queue"), b.queue.Depth())
	if pos := b.queue.PositionOf(userID); pos > 0 {
		text += "\n" + fmt.Sprintf(b.tr(sess, "queue_position"), pos)
	}
	b.send(sess.Chat(), text)
}

// handleStatus reports the queue state and whether the store answers.
func (b *Bot) handleStatus(sess *Session, userID int64) {
	var lines []string
	if b.queue.IsActive() {
		lines = append(lines,
			b.tr(sess, "processing_now"),
			fmt.Sprintf(b.tr(sess, "total_in_queue"), b.queue.Depth()))
		if pos := b.queue.PositionOf(userID); pos > 0 {
			lines = append(lines, fmt.Sprintf(b.tr(sess, "queue_position"), pos))
		}
	} else {
		lines = append(lines, b.tr(sess, "queue_empty"))
	}

	if _, err := b.db.AllUserIDs(); err != nil {
		log.WithError(err).Warn("Store health check failed")
		lines = append(lines, b.tr(sess, "status_db_fail"))
	} else {
		lines = append(lines, b.tr(sess, "status_db_ok"))
	}
	b.send(sess.Chat(), strings.Join(lines, "\n"))
}

func (b *Bot) handleHistory(sess *Session, userID int64) {
	records, err := b.db.History(userID, b.opts.HistoryLimit)
	if err != nil {
		log.WithError(err).Warn("History read failed")
		b.send(sess.Chat(), b.tr(sess, "error"))
		return
	}
	if len(records) == 0 {
		b.send(sess.Chat(), b.tr(sess, "no_history"))
		return
	}

	lines := []string{b.tr(sess, "history_title")}
	for i, rec := range records {
		title := rec.Title
		if title == "" {
			title = rec.URL
		}
		lines = append(lines, fmt.Sprintf("%d. %s (%s, %s)",
			i+1, title, rec.CreatedAt.Format("2006-01-02"), helpers.BytesToSize(uint64(rec.TotalBytes))))
	}
	for _, chunk := range helpers.ChunkMessage(strings.Join(lines, "\n"), helpers.MaxMessageLength) {
		b.send(sess.Chat(), chunk)
	}
}

func (b *Bot) handleStats(sess *Session, userID int64) {
	stats, err := b.db.UserStats(userID)
	if err != nil {
		log.WithError(err).Warn("Stats read failed")
		b.send(sess.Chat(), b.tr(sess, "error"))
		return
	}
	text := b.tr(sess, "your_stats") + "\n" +
		fmt.Sprintf(b.tr(sess, "total_downloads"), stats.Downloads) + "\n" +
		fmt.Sprintf(b.tr(sess, "total_tracks"), stats.Items) + "\n" +
		fmt.Sprintf(b.tr(sess, "total_size"), helpers.BytesToSize(uint64(stats.TotalBytes)))
	b.send(sess.Chat(), text)
}

func (b *Bot) handleGlobalStats(sess *Session, userID int64) {
	if userID != b.opts.AdminID || b.opts.AdminID == 0 {
		b.send(sess.Chat(), b.tr(sess, "not_admin"))
		return
	}
	stats, err := b.db.GlobalStats()
	if err != nil {
		log.WithError(err).Warn("Global stats read failed")
		b.send(sess.Chat(), b.tr(sess, "error"))
		return
	}
	text := b.tr(sess, "global_stats") + "\n" +
		fmt.Sprintf(b.tr(sess, "total_users"), stats.Users) + "\n" +
		fmt.Sprintf(b.tr(sess, "total_downloads"), stats.Downloads) + "\n" +
		fmt.Sprintf(b.tr(sess, "total_tracks"), stats.Items) + "\n" +
		fmt.Sprintf(b.tr(sess, "total_size"), helpers.BytesToSize(uint64(stats.TotalBytes)))
	b.send(sess.Chat(), text)
}

// handleCancel aborts the current flow and leaves the waiting list.
// An actively processing download is never interrupted.
func (b *Bot) handleCancel(sess *Session, userID int64) {
	inFlow := sess.State != StateIdle
	inQueue := b.queue.PositionOf(userID) > 0

	if inQueue {
		b.queue.Drop(userID)
	}
	if !inFlow && !inQueue {
		b.send(sess.Chat(), b.tr(sess, "not_in_queue"))
		return
	}
	sess.Reset()
	b.send(sess.Chat(), b.tr(sess, "canceled"))
}

func (b *Bot) jobLanguage(sess *Session) string {
	if sess.Language != "" {
		return sess.Language
	}
	return b.opts.DefaultLanguage
}
