package transport

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Telegram implements Transport over the Bot API.
type Telegram struct {
	api *tgbotapi.BotAPI
}

var _ Transport = (*Telegram)(nil)

// NewTelegram authenticates against the Bot API with the given token.
func NewTelegram(token string) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authenticating bot: %w", err)
	}
	log.Infof("Authorized as @%s", api.Self.UserName)
	return &Telegram{api: api}, nil
}

// Updates returns the long-polling update channel.
func (t *Telegram) Updates() tgbotapi.UpdatesChannel {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	return t.api.GetUpdatesChan(cfg)
}

// StopPolling shuts the update channel down.
func (t *Telegram) StopPolling() {
	t.api.StopReceivingUpdates()
}

func (t *Telegram) SendMessage(chatID int64, text string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	sent, err := t.api.Send(msg)
	if err != nil {
		return 0, classifySendError(err, chatID)
	}
	return sent.MessageID, nil
}

func (t *Telegram) SendKeyboard(chatID int64, text string, kb Keyboard) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = inlineMarkup(kb)
	sent, err := t.api.Send(msg)
	if err != nil {
		return 0, classifySendError(err, chatID)
	}
	return sent.MessageID, nil
}

func (t *Telegram) EditMessage(chatID int64, messageID int, text string, kb Keyboard) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if kb != nil {
		markup := inlineMarkup(kb)
		edit.ReplyMarkup = &markup
	}
	if _, err := t.api.Send(edit); err != nil {
		// "message is not modified" is harmless repaint noise.
		if strings.Contains(err.Error(), "message is not modified") {
			return nil
		}
		return classifySendError(err, chatID)
	}
	return nil
}

func (t *Telegram) SendAudioFile(chatID int64, path, caption string) error {
	audio := tgbotapi.NewAudio(chatID, tgbotapi.FilePath(path))
	audio.Caption = caption
	if _, err := t.api.Send(audio); err != nil {
		return classifySendError(err, chatID)
	}
	return nil
}

func (t *Telegram) SendDocumentFile(chatID int64, path, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	if _, err := t.api.Send(doc); err != nil {
		return classifySendError(err, chatID)
	}
	return nil
}

func (t *Telegram) AnswerCallback(callbackID string) error {
	if _, err := t.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return fmt.Errorf("answering callback: %w", err)
	}
	return nil
}

func inlineMarkup(kb Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func classifySendError(err error, chatID int64) error {
	msg := err.Error()
	if strings.Contains(msg, "bot was blocked by the user") ||
		strings.Contains(msg, "user is deactivated") ||
		strings.Contains(msg, "chat not found") {
		return fmt.Errorf("%w: chat %d", ErrBlocked, chatID)
	}
	return fmt.Errorf("sending to chat %d: %w", chatID, err)
}
