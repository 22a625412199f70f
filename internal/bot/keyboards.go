package bot

import (
	"fmt"

	"github.com/mldwnk1488/soundcloudbot/internal/transport"
)

// Callback payloads. Prefixed intents carry an argument after the colon.
const (
	cbConfirmReplay = "confirm-replay"
	cbDeclineReplay = "decline-replay"
	cbFormatPrefix  = "choose-format:"
	cbSelectPrefix  = "select-result:"
	cbPageNext      = "page:next"
	cbPagePrev      = "page:prev"
	cbCancel        = "cancel"
	cbLangPrefix    = "lang:"
)

var languageLabels = map[string]string{
	"ua": "Українська",
	"ru": "Русский",
	"en": "English",
}

func languageKeyboard(codes []string) transport.Keyboard {
	var kb transport.Keyboard
	for _, code := range codes {
		label, ok := languageLabels[code]
		if !ok {
			label = code
		}
		kb = append(kb, transport.Row(transport.Button{Label: label, Data: cbLangPrefix + code}))
	}
	return kb
}

func (b *Bot) formatKeyboard(sess *Session) transport.Keyboard {
	return transport.Keyboard{
		transport.Row(
			transport.Button{Label: b.tr(sess, "format_zip"), Data: cbFormatPrefix + "zip"},
			transport.Button{Label: b.tr(sess, "format_items"), Data: cbFormatPrefix + "items"},
		),
		transport.Row(transport.Button{Label: b.tr(sess, "cancel"), Data: cbCancel}),
	}
}

func (b *Bot) replayKeyboard(sess *Session) transport.Keyboard {
	return transport.Keyboard{
		transport.Row(
			transport.Button{Label: b.tr(sess, "yes"), Data: cbConfirmReplay},
			transport.Button{Label: b.tr(sess, "no"), Data: cbDeclineReplay},
		),
	}
}

// resultsKeyboard renders the current search page: one button per
// result, then navigation when the set spans pages.
func (b *Bot) resultsKeyboard(sess *Session) transport.Keyboard {
	var kb transport.Keyboard
	for _, r := range sess.Search.Page() {
		artist := r.Artist
		if artist == "" {
			artist = b.tr(sess, "unknown_artist")
		}
		label := fmt.Sprintf("%s - %s (%s)", artist, r.Title, r.Duration)
		kb = append(kb, transport.Row(transport.Button{Label: label, Data: cbSelectPrefix + r.ID}))
	}

	if _, total := sess.Search.PageInfo(); total > 1 {
		kb = append(kb, transport.Row(
			transport.Button{Label: b.tr(sess, "prev_page"), Data: cbPagePrev},
			transport.Button{Label: b.tr(sess, "next_page"), Data: cbPageNext},
		))
	}
	kb = append(kb, transport.Row(transport.Button{Label: b.tr(sess, "cancel"), Data: cbCancel}))
	return kb
}

func (b *Bot) resultsHeader(sess *Session) string {
	current, total := sess.Search.PageInfo()
	return fmt.Sprintf(b.tr(sess, "search_results"), sess.Search.Query) + "\n" +
		fmt.Sprintf(b.tr(sess, "search_page"), current, total)
}
