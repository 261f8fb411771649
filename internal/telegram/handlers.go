package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/KizzyCode/MinecraftWebhook/internal/history"
)

// commandTimeout bounds one chat-triggered RCON exchange including the
// client's single reconnect-and-retry.
const commandTimeout = 30 * time.Second

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	if !b.isAllowedUser(userID) {
		b.reply(chatID, "Access denied")
		return
	}
	if !update.Message.IsCommand() {
		return
	}

	args := update.Message.CommandArguments()

	switch update.Message.Command() {

	case "start", "help":
		b.handleHelp(chatID)

	case "status":
		b.handleStatus(chatID)

	case "list":
		b.handleList(chatID)

	case "cmd":
		b.handleCmd(chatID, args)

	case "say":
		b.handleSay(chatID, args)

	case "save":
		b.handleSave(chatID)

	case "seed":
		b.handleSeed(chatID)
	}
}

// run executes one command with auditing and returns its response.
func (b *Bot) run(command string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	resp, err := b.exec.Execute(ctx, command)

	detail := ""
	if err != nil {
		detail = err.Error()
	}
	b.store.Record(ctx, history.Entry{
		Source:  "telegram",
		Command: command,
		OK:      err == nil,
		Detail:  detail,
	})
	return resp, err
}

// ── help ─────────────────────────────────────────────────────────────────────

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Minecraft Bridge

/status — server reachability
/list — players online
/cmd <command> — raw RCON command
/say <text> — message to the in-game chat
/save — force a world save
/seed — world seed`)
}

// ── server status ────────────────────────────────────────────────────────────

func (b *Bot) handleStatus(chatID int64) {
	if b.status == nil {
		b.reply(chatID, "No game address configured")
		return
	}
	b.reply(chatID, fmt.Sprintf("Server: %s", b.status.Check()))
}

// ── players ──────────────────────────────────────────────────────────────────

func (b *Bot) handleList(chatID int64) {
	resp, err := b.run("list")
	if err != nil {
		b.reply(chatID, "Error: "+err.Error())
		return
	}
	if strings.TrimSpace(resp) == "" {
		b.reply(chatID, "No players online")
	} else {
		b.reply(chatID, resp)
	}
}

// ── cmd ──────────────────────────────────────────────────────────────────────

func (b *Bot) handleCmd(chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Usage: /cmd <command>")
		return
	}
	resp, err := b.run(args)
	if err != nil {
		b.reply(chatID, "Error: "+err.Error())
		return
	}
	if strings.TrimSpace(resp) == "" {
		b.reply(chatID, "Done")
	} else {
		b.reply(chatID, resp)
	}
}

// ── say ──────────────────────────────────────────────────────────────────────

func (b *Bot) handleSay(chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Usage: /say <text>")
		return
	}
	if _, err := b.run("say " + args); err != nil {
		b.reply(chatID, "Error: "+err.Error())
		return
	}
	b.reply(chatID, "Message sent")
}

// ── save ─────────────────────────────────────────────────────────────────────

func (b *Bot) handleSave(chatID int64) {
	resp, err := b.run("save-all")
	if err != nil {
		b.reply(chatID, "Error: "+err.Error())
		return
	}
	if strings.TrimSpace(resp) == "" {
		resp = "Saved"
	}
	b.reply(chatID, resp)
}

// ── seed ─────────────────────────────────────────────────────────────────────

func (b *Bot) handleSeed(chatID int64) {
	resp, err := b.run("seed")
	if err != nil {
		b.reply(chatID, "Error: "+err.Error())
		return
	}
	b.reply(chatID, resp)
}
