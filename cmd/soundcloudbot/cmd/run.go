package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mldwnk1488/soundcloudbot/internal/bot"
	"github.com/mldwnk1488/soundcloudbot/internal/config"
	"github.com/mldwnk1488/soundcloudbot/internal/extractor"
	"github.com/mldwnk1488/soundcloudbot/internal/models"
	"github.com/mldwnk1488/soundcloudbot/internal/pipeline"
	"github.com/mldwnk1488/soundcloudbot/internal/queue"
	"github.com/mldwnk1488/soundcloudbot/internal/resolver"
	"github.com/mldwnk1488/soundcloudbot/internal/search"
	"github.com/mldwnk1488/soundcloudbot/internal/store"
	"github.com/mldwnk1488/soundcloudbot/internal/transport"
)

// runCmd starts the bot and serves updates until interrupted.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot and serve chat updates",
	RunE:  runBot,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg := globalConfig
	if err := config.ValidateRuntime(cfg); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.WorkDir, 0700); err != nil {
		return fmt.Errorf("creating work directory %s: %w", cfg.WorkDir, err)
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.WithError(closeErr).Error("Failed to close database")
		}
	}()

	tg, err := transport.NewTelegram(cfg.BotToken)
	if err != nil {
		return err
	}

	searchTimeout := time.Duration(cfg.SearchTimeoutSec) * time.Second
	fetchTimeout := time.Duration(cfg.FetchTimeoutSec) * time.Second

	ytdlp := extractor.New(cfg.YtdlpPath)
	res := resolver.New(ytdlp, db)
	searcher := search.New(ytdlp, cfg.SearchLimit, searchTimeout)
	q := queue.New()
	pipe := pipeline.New(ytdlp, tg, db, cfg.WorkDir, int64(cfg.ZipPartSizeMB)<<20, fetchTimeout)

	b := bot.New(tg, db, res, searcher, q, pipe, bot.Options{
		AdminID:         cfg.AdminID,
		PromoText:       cfg.PromoText,
		DefaultLanguage: cfg.DefaultLanguage,
		ResolveTimeout:  searchTimeout,
		HistoryLimit:    5,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Infof("Received %s, shutting down...", sig)
		tg.StopPolling()
	}()

	// Each update gets its own goroutine so one user's slow resolve or
	// search never stalls the chat loop for everyone else. Per-user
	// ordering is preserved by the session lock inside the handlers.
	log.Info("Serving updates")
	var handlers sync.WaitGroup
	for update := range tg.Updates() {
		handlers.Add(1)
		go func(update tgbotapi.Update) {
			defer handlers.Done()
			dispatch(b, update)
		}(update)
	}

	// Let in-flight handlers, jobs and broadcasts drain before closing
	// the store.
	handlers.Wait()
	b.Wait()
	log.Info("Shutdown complete")
	return nil
}

func dispatch(b *bot.Bot, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		if cq.From == nil {
			return
		}
		chatID := cq.From.ID
		if cq.Message != nil {
			chatID = cq.Message.Chat.ID
		}
		b.HandleCallback(profileFrom(cq.From), chatID, cq.ID, cq.Data)

	case update.Message != nil:
		msg := update.Message
		if msg.From == nil || msg.From.IsBot {
			return
		}
		p := profileFrom(msg.From)
		if msg.IsCommand() {
			b.HandleCommand(p, msg.Chat.ID, msg.Command(), msg.CommandArguments())
			return
		}
		if msg.Text != "" {
			b.HandleText(p, msg.Chat.ID, msg.Text)
		}
	}
}

func profileFrom(u *tgbotapi.User) models.UserProfile {
	return models.UserProfile{
		ID:        u.ID,
		Username:  u.UserName,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
