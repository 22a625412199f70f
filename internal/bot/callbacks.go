package bot

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/mldwnk1488/soundcloudbot/internal/lang"
	"github.com/mldwnk1488/soundcloudbot/internal/models"
	"github.com/mldwnk1488/soundcloudbot/internal/resolver"
)

// HandleCallback dispatches one inline keyboard press.
func (b *Bot) HandleCallback(profile models.UserProfile, chatID int64, callbackID, data string) {
	sess := b.touch(profile, chatID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := b.sender.AnswerCallback(callbackID); err != nil {
		log.WithError(err).Debug("Failed to answer callback")
	}

	switch {
	case strings.HasPrefix(data, cbLangPrefix):
		b.handleLanguageChoice(sess, profile.ID, strings.TrimPrefix(data, cbLangPrefix))

	case data == cbCancel:
		b.handleCancel(sess, profile.ID)

	case data == cbConfirmReplay:
		if sess.State != StateAwaitingReplayConfirm {
			return
		}
		sess.Pending.IsReplay = true
		b.askFormat(sess)

	case data == cbDeclineReplay:
		if sess.State != StateAwaitingReplayConfirm {
			return
		}
		sess.Reset()
		b.send(chatID, b.tr(sess, "canceled"))

	case strings.HasPrefix(data, cbFormatPrefix):
		b.handleFormatChoice(sess, profile.ID, strings.TrimPrefix(data, cbFormatPrefix))

	case strings.HasPrefix(data, cbSelectPrefix):
		b.handleResultChoice(sess, profile.ID, strings.TrimPrefix(data, cbSelectPrefix))

	case data == cbPageNext || data == cbPagePrev:
		b.handlePageTurn(sess, data)

	default:
		log.Debugf("Ignoring unknown callback payload %q", data)
	}
}

func (b *Bot) handleLanguageChoice(sess *Session, userID int64, code string) {
	if !lang.IsSupported(code) {
		log.Warnf("Ignoring unsupported language choice %q", code)
		return
	}
	if err := b.db.SetUserLanguage(userID, code); err != nil {
		log.WithError(err).Warnf("Failed to persist language for user %d", userID)
	}
	sess.Language = code
	sess.State = StateIdle
	b.send(sess.Chat(), b.tr(sess, "language_set"))
	b.send(sess.Chat(), b.tr(sess, "welcome"))
	if b.opts.PromoText != "" {
		b.send(sess.Chat(), b.opts.PromoText)
	}
}

func (b *Bot) handleFormatChoice(sess *Session, userID int64, choice string) {
	if sess.State != StateAwaitingFormat || sess.Pending.Content.URL == "" {
		b.send(sess.Chat(), b.tr(sess, "send_link_first"))
		return
	}

	job := sess.Pending
	switch choice {
	case "zip":
		job.Format = models.FormatZip
	case "items":
		job.Format = models.FormatIndividualItems
	default:
		log.Warnf("Ignoring unknown format choice %q", choice)
		return
	}

	sess.Reset()
	b.enqueue(sess, userID, job)
}

// handleResultChoice converts a picked search result straight into a
// pending track reference. The summary already carries everything the
// format choice needs, so the resolver is not consulted.
func (b *Bot) handleResultChoice(sess *Session, userID int64, id string) {
	if sess.State != StateSearchShowingResults || sess.Search == nil {
		return
	}
	result, ok := sess.Search.ByID(id)
	if !ok {
		log.Warnf("Search result %q not found in session", id)
		return
	}
	sess.Reset()

	ref := models.ContentReference{
		URL:       result.Permalink,
		Kind:      models.KindTrack,
		Title:     resolver.CleanTitle(result.RawTitle),
		Owner:     result.Artist,
		ItemCount: 1,
	}
	b.send(sess.Chat(), b.previewText(sess, ref, nil))
	b.presentContent(sess, userID, ref)
}

func (b *Bot) handlePageTurn(sess *Session, direction string) {
	if sess.State != StateSearchShowingResults || sess.Search == nil || sess.ResultsMsg == 0 {
		return
	}
	if direction == cbPageNext {
		sess.Search.Next()
	} else {
		sess.Search.Prev()
	}
	if err := b.sender.EditMessage(sess.Chat(), sess.ResultsMsg, b.resultsHeader(sess), b.resultsKeyboard(sess)); err != nil {
		log.WithError(err).Warn("Failed to repaint search results")
	}
}
