package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mldwnk1488/soundcloudbot/internal/transport"
)

// Broadcast pacing: a short pause after every batch keeps the send rate
// under the API flood limits.
const (
	broadcastBatchSize = 10
	broadcastPause     = time.Second
)

// handleAnnounce starts a broadcast of the given text to every known
// user. Admin only.
func (b *Bot) handleAnnounce(sess *Session, userID int64, args string) {
	if userID != b.opts.AdminID || b.opts.AdminID == 0 {
		b.send(sess.Chat(), b.tr(sess, "not_admin"))
		return
	}
	text := strings.TrimSpace(args)
	if text == "" {
		b.send(sess.Chat(), b.tr(sess, "broadcast_usage"))
		return
	}

	ids, err := b.db.AllUserIDs()
	if err != nil {
		log.WithError(err).Error("Failed to list users for broadcast")
		b.send(sess.Chat(), b.tr(sess, "error"))
		return
	}

	b.send(sess.Chat(), fmt.Sprintf(b.tr(sess, "broadcast_started"), len(ids)))
	header := b.tr(sess, "announcement_header")
	adminChat := sess.Chat()
	report := b.tr(sess, "broadcast_report")

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		delivered, blocked, failed := b.broadcast(ids, header+"\n\n"+text)
		b.send(adminChat, fmt.Sprintf(report, delivered, blocked, failed))
	}()
}

// broadcast sends text to every user sequentially, pausing between
// batches, and tallies the outcome per recipient.
func (b *Bot) broadcast(ids []int64, text string) (delivered, blocked, failed int) {
	for i, id := range ids {
		if i > 0 && i%broadcastBatchSize == 0 {
			time.Sleep(broadcastPause)
		}
		chatID := b.sessions.ChatFor(id)
		if _, err := b.sender.SendMessage(chatID, text); err != nil {
			if errors.Is(err, transport.ErrBlocked) {
				blocked++
			} else {
				log.WithError(err).Warnf("Broadcast send failed for user %d", id)
				failed++
			}
			continue
		}
		delivered++
	}
	log.WithFields(log.Fields{
		"delivered": delivered,
		"blocked":   blocked,
		"failed":    failed,
	}).Info("Broadcast finished")
	return delivered, blocked, failed
}
