// Package transport abstracts the chat surface. The bot core talks to
// the Transport interface only; the Telegram adapter lives alongside.
package transport

import "errors"

// ErrBlocked marks a send that failed because the recipient blocked the
// bot. Broadcast accounting depends on telling this apart from other
// failures.
var ErrBlocked = errors.New("recipient has blocked the bot")

// Button is one inline keyboard button; Data travels back in the
// callback payload.
type Button struct {
	Label string
	Data  string
}

// Keyboard is rows of inline buttons.
type Keyboard [][]Button

// Row is a convenience constructor for a single keyboard row.
func Row(buttons ...Button) []Button {
	return buttons
}

// Transport sends messages and files to a chat. Implementations must be
// safe for concurrent use.
type Transport interface {
	// SendMessage sends plain text and returns the message id.
	SendMessage(chatID int64, text string) (int, error)

	// SendKeyboard sends text with an inline keyboard attached.
	SendKeyboard(chatID int64, text string, kb Keyboard) (int, error)

	// EditMessage replaces a previously sent message's text and
	// keyboard. A nil keyboard removes any existing one.
	EditMessage(chatID int64, messageID int, text string, kb Keyboard) error

	// SendAudioFile uploads a local audio file with a caption.
	SendAudioFile(chatID int64, path, caption string) error

	// SendDocumentFile uploads a local file as a document.
	SendDocumentFile(chatID int64, path, caption string) error

	// AnswerCallback acknowledges a callback query so the client
	// stops showing a spinner.
	AnswerCallback(callbackID string) error
}
