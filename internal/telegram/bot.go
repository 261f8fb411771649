// Package telegram implements an optional chat trigger: a small bot that
// runs the same predefined or free-form commands against the Minecraft
// server as the HTTP webhooks do. It is enabled by configuring a bot token.
package telegram

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/KizzyCode/MinecraftWebhook/internal/domain"
	"github.com/KizzyCode/MinecraftWebhook/internal/history"
	"github.com/KizzyCode/MinecraftWebhook/internal/status"
)

// Bot bridges Telegram chat commands to the RCON executor.
type Bot struct {
	api          *tgbotapi.BotAPI
	allowedUsers map[int64]struct{}
	exec         domain.CommandExecutor
	status       *status.Checker
	store        *history.Store
}

// Config holds the dependencies needed to build a Bot.
type Config struct {
	Token        string
	AllowedUsers []int64
	Exec         domain.CommandExecutor
	Status       *status.Checker // may be nil
	Store        *history.Store  // may be nil
}

// NewBot authenticates against the Telegram API.
func NewBot(cfg Config) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}

	allowed := make(map[int64]struct{}, len(cfg.AllowedUsers))
	for _, id := range cfg.AllowedUsers {
		allowed[id] = struct{}{}
	}

	return &Bot{
		api:          api,
		allowedUsers: allowed,
		exec:         cfg.Exec,
		status:       cfg.Status,
		store:        cfg.Store,
	}, nil
}

// Start long-polls for updates until Stop is called.
func (b *Bot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	log.Printf("telegram: bot running as @%s", b.api.Self.UserName)

	for update := range updates {
		b.handleUpdate(update)
	}
}

// Stop ends the update long-poll; Start returns shortly after.
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}

func (b *Bot) isAllowedUser(userID int64) bool {
	_, ok := b.allowedUsers[userID]
	return ok
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("telegram: reply error: %v", err)
	}
}
