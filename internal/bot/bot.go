// Package bot implements the Telegram command surface: admin commands
// that mutate the global configuration and per-recipient commands that
// manage personal subscriptions.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ethanocurtis/MultiNotify/internal/config"
	"github.com/ethanocurtis/MultiNotify/internal/model"
	"github.com/ethanocurtis/MultiNotify/internal/pipeline"
	"github.com/ethanocurtis/MultiNotify/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot handles user commands and sends notifications.
type Bot struct {
	api      telegramAPI
	store    storage.Storage
	pipeline *pipeline.Pipeline
	cfg      *config.Config
	log      *slog.Logger
}

// New creates a Bot with the given Telegram token. The pipeline is
// attached afterwards with SetPipeline, since the pipeline delivers
// through the bot.
func New(token string, store storage.Storage, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &Bot{
		api:   api,
		store: store,
		cfg:   cfg,
		log:   log,
	}, nil
}

// SetPipeline attaches the pipeline used by the /explain command.
func (b *Bot) SetPipeline(pl *pipeline.Pipeline) {
	b.pipeline = pl
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

// SendMessage sends a text message to the given chat. Errors are
// logged, not returned: delivery is fire-and-forget and never retried.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := msg.CommandArguments()
	chatID := msg.Chat.ID
	userID := msg.From.ID

	b.log.Debug("command", "cmd", cmd, "user_id", userID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "settings":
		b.handleSettings(ctx, chatID, userID)
	case "sub":
		b.handleSub(ctx, chatID, userID, args)
	case "feeds":
		b.handleFeeds(ctx, chatID, userID, args)
	case "keywords":
		b.handleKeywords(ctx, chatID, userID, args)
	case "flairs":
		b.handleFlairs(ctx, chatID, userID, args)
	case "quiet":
		b.handleQuiet(ctx, chatID, userID, args)
	case "timezone":
		b.handleTimezone(ctx, chatID, userID, args)
	case "digest":
		b.handleDigest(ctx, chatID, userID, args)
	case "watch":
		b.handleWatch(ctx, chatID, userID, args)
	case "route":
		b.handleRoute(ctx, chatID, userID, args)
	case "sink":
		b.handleSink(ctx, chatID, userID, args)
	case "dm":
		b.handleDM(ctx, chatID, userID, args)
	case "threadmode":
		b.handleThreadMode(ctx, chatID, userID, args)
	case "explain":
		b.handleExplain(ctx, chatID, userID, args)
	case "setsubreddit", "setinterval", "setlimit", "setwebhook", "setflairs",
		"setkeywords", "enabledms", "adddmuser", "rmdmuser", "addchannel",
		"rmchannel", "addroute", "rmroute", "addwatch", "rmwatch",
		"settimezone", "setquietpolicy", "setrouting", "setthreads", "status":
		if !b.cfg.IsAdmin(userID) {
			b.reply(chatID, "You are not authorized to use this command.")
			return
		}
		b.handleAdminCommand(ctx, chatID, cmd, args)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}

// updateProfile applies a mutation to a recipient's profile and saves
// it. The profile is created on first mutation.
func (b *Bot) updateProfile(ctx context.Context, userID int64, fn func(*model.RecipientProfile) error) error {
	p, err := b.store.GetRecipient(ctx, userID)
	if err != nil {
		return err
	}
	if err := fn(p); err != nil {
		return err
	}
	return b.store.SaveRecipient(ctx, p)
}

// updateGlobal applies a mutation to the global configuration and
// saves it.
func (b *Bot) updateGlobal(ctx context.Context, fn func(*model.GlobalConfig) error) error {
	g, err := b.store.GetGlobal(ctx)
	if err != nil {
		return err
	}
	if err := fn(g); err != nil {
		return err
	}
	return b.store.SaveGlobal(ctx, g)
}
