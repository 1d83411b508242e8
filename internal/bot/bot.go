// Package bot is the Telegram adapter. It routes inbound commands and
// callbacks onto the appeal, admin and dialogue layers and implements the
// outbound sender consumed by notification fan-out. All transport failures
// are per-request; nothing in here takes the process down.
package bot

import (
	"context"
	"log/slog"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"appealbot/internal/admin"
	"appealbot/internal/appeal"
	"appealbot/internal/config"
	"appealbot/internal/dialogue"
	"appealbot/internal/notification"
	"appealbot/internal/status"
	"appealbot/pkg/log"
)

const maxMsgLen = 4096

type Bot struct {
	session *tgbotapi.BotAPI
	conf    config.Static

	appeals       *appeal.Appeals
	admins        *admin.Admins
	dialogue      *dialogue.Dialogue
	monitor       *status.Monitor
	notifications *notification.Notifications
}

func New(conf config.Static, monitor *status.Monitor) (*Bot, error) {
	session, errSession := tgbotapi.NewBotAPI(conf.Telegram.Token)
	if errSession != nil {
		return nil, errSession //nolint:wrapcheck
	}

	return &Bot{session: session, conf: conf, monitor: monitor}, nil
}

// Attach wires the usecases in after construction. The bot must exist first
// because the notification sender is the bot itself.
func (b *Bot) Attach(appeals *appeal.Appeals, admins *admin.Admins, dialog *dialogue.Dialogue,
	notifications *notification.Notifications,
) {
	b.appeals = appeals
	b.admins = admins
	b.dialogue = dialog
	b.notifications = notifications
}

// SendMessage implements notification.Sender.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) error {
	if errCtx := ctx.Err(); errCtx != nil {
		return errCtx //nolint:wrapcheck
	}

	for _, chunk := range splitMessage(text) {
		if _, errSend := b.session.Send(tgbotapi.NewMessage(chatID, chunk)); errSend != nil {
			return errSend //nolint:wrapcheck
		}
	}

	return nil
}

// Start runs the long-polling update loop until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := b.session.GetUpdatesChan(updateConfig)

	slog.Info("Bot connected", slog.String("username", b.session.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.session.StopReceivingUpdates()

			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}

			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleKindSelection(update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil && update.Message.Text != "":
		b.handleText(ctx, update.Message)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	for _, chunk := range splitMessage(text) {
		if _, errSend := b.session.Send(tgbotapi.NewMessage(chatID, chunk)); errSend != nil {
			slog.Error("Failed to send reply", slog.Int64("chat_id", chatID), log.ErrAttr(errSend))

			return
		}
	}
}

// splitMessage chunks text at the transport's message size limit. Cuts land
// on rune boundaries so a chunk never carries a torn multi-byte character.
func splitMessage(text string) []string {
	if len(text) <= maxMsgLen {
		return []string{text}
	}

	var chunks []string

	for len(text) > maxMsgLen {
		cut := runeCut(text, maxMsgLen)
		chunks = append(chunks, text[:cut])
		text = text[cut:]
	}

	return append(chunks, text)
}

// runeCut backs a byte offset up to the nearest rune boundary at or before
// limit. Invalid input is cut at the limit as-is.
func runeCut(text string, limit int) int {
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}

	if cut == 0 {
		return limit
	}

	return cut
}
