package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"appealbot/internal/appeal"
	"appealbot/internal/domain"
	"appealbot/internal/status"
	"appealbot/pkg/log"
)

const (
	msgAccessDenied = "❌ Access denied."
	msgOwnerOnly    = "❌ Access denied. Only the bot owner can use this command."
	msgTransient    = "❌ An error occurred. Please try again later."
)

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID
	args := strings.TrimSpace(message.CommandArguments())

	switch message.Command() {
	case "start":
		b.reply(chatID, "📝 Welcome to the Appeals Bot!\n\nUse /appeal to submit an unban appeal or request admin status")
	case "appeal":
		b.startAppeal(chatID, userID)
	case "cancel":
		b.cancelAppeal(chatID, userID)
	case "pending":
		b.listPending(ctx, chatID, userID)
	case "view":
		b.viewAppeal(ctx, chatID, userID, args)
	case "approve":
		b.review(ctx, chatID, userID, args, appeal.Approved)
	case "reject":
		b.review(ctx, chatID, userID, args, appeal.Rejected)
	case "stats":
		b.stats(ctx, chatID, userID)
	case "admins":
		b.listAdmins(ctx, chatID, userID)
	case "addadmin":
		b.addAdmin(ctx, chatID, userID, args)
	case "removeadmin":
		b.removeAdmin(ctx, chatID, userID, args)
	case "ping":
		b.ping(chatID)
	case "status":
		b.systemStatus(ctx, chatID, userID)
	case "shell", "sh":
		b.shell(ctx, chatID, userID, args)
	}
}

// handleText feeds free text into an in-progress dialogue. Text from users
// with no session is unrelated chatter and is ignored.
func (b *Bot) handleText(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID

	if _, active := b.dialogue.Active(userID); !active {
		return
	}

	appealID, errSubmit := b.dialogue.SubmitText(ctx, userID, message.From.UserName, message.Text)
	if errSubmit != nil {
		switch {
		case errors.Is(errSubmit, domain.ErrNoSession):
		case errors.Is(errSubmit, domain.ErrEmptyAppealText):
			b.reply(message.Chat.ID, "❌ Appeal text cannot be empty. Use /appeal to start again.")
		default:
			slog.Error("Failed to submit appeal", slog.Int64("user_id", userID), log.ErrAttr(errSubmit))
			b.reply(message.Chat.ID, msgTransient)
		}

		return
	}

	b.reply(message.Chat.ID, fmt.Sprintf("✅ Appeal submitted successfully!\nAppeal ID: #%d\n\nYour appeal will be reviewed by an admin.", appealID))
}

func (b *Bot) startAppeal(chatID int64, userID int64) {
	b.dialogue.Start(userID)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔓 Unban Appeal", string(appeal.Unban))),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👑 Admin Request", string(appeal.AdminRequest))))

	prompt := tgbotapi.NewMessage(chatID, "Select appeal type:")
	prompt.ReplyMarkup = keyboard

	if _, errSend := b.session.Send(prompt); errSend != nil {
		slog.Error("Failed to send appeal menu", log.ErrAttr(errSend))
	}
}

func (b *Bot) handleKindSelection(query *tgbotapi.CallbackQuery) {
	if _, errAck := b.session.Request(tgbotapi.NewCallback(query.ID, "")); errAck != nil {
		slog.Error("Failed to answer callback query", log.ErrAttr(errAck))
	}

	if query.Message == nil {
		return
	}

	chatID := query.Message.Chat.ID

	guidance, errSelect := b.dialogue.SelectKind(query.From.ID, query.Data)
	if errSelect != nil {
		var text string

		switch {
		case errors.Is(errSelect, domain.ErrInvalidKind):
			text = "❌ Invalid appeal type"
		case errors.Is(errSelect, domain.ErrNoSession):
			text = "❌ No appeal in progress. Use /appeal to start."
		default:
			text = msgTransient
		}

		b.editMessage(chatID, query.Message.MessageID, text)

		return
	}

	b.editMessage(chatID, query.Message.MessageID, guidance)
}

func (b *Bot) cancelAppeal(chatID int64, userID int64) {
	b.dialogue.Cancel(userID)
	b.reply(chatID, "🚫 Appeal submission cancelled.")
}

func (b *Bot) listPending(ctx context.Context, chatID int64, userID int64) {
	pending, errPending := b.appeals.Pending(ctx, userID)
	if errPending != nil {
		b.replyError(chatID, errPending)

		return
	}

	if len(pending) == 0 {
		b.reply(chatID, "📋 No pending appeals!")

		return
	}

	var builder strings.Builder

	builder.WriteString("📋 Pending Appeals:\n\n")

	for _, entry := range pending {
		text := truncate(entry.Text, 100)

		builder.WriteString(fmt.Sprintf("ID: #%d\nUser: @%s (ID: %d)\nType: %s\nSubmitted: %s\nText: %s\n───────────────\n",
			entry.AppealID, displayName(entry.Username), entry.UserID, entry.Kind.Label(),
			humanize.Time(entry.SubmittedOn), text))
	}

	b.reply(chatID, builder.String())
}

func (b *Bot) viewAppeal(ctx context.Context, chatID int64, userID int64, args string) {
	appealID, ok := b.parseID(chatID, args, "❌ Usage: /view <appeal_id>")
	if !ok {
		return
	}

	found, errGet := b.appeals.Get(ctx, userID, appealID)
	if errGet != nil {
		b.replyAppealError(chatID, appealID, errGet)

		return
	}

	b.reply(chatID, fmt.Sprintf("📄 Appeal Details #%d\nUser: @%s (ID: %d)\nType: %s\nStatus: %s\nSubmitted: %s\n\n📝 Appeal Text:\n%s\n\nUse /approve %d to approve\nUse /reject %d to reject",
		found.AppealID, displayName(found.Username), found.UserID, found.Kind.Label(), found.Status,
		found.SubmittedOn.Format("15:04 02-01-2006"), found.Text, found.AppealID, found.AppealID))
}

func (b *Bot) review(ctx context.Context, chatID int64, userID int64, args string, decision appeal.Status) {
	command := "approve"
	if decision == appeal.Rejected {
		command = "reject"
	}

	appealID, ok := b.parseID(chatID, args, fmt.Sprintf("❌ Usage: /%s <appeal_id>", command))
	if !ok {
		return
	}

	result, errReview := b.appeals.Review(ctx, userID, appealID, decision)
	if errReview != nil {
		b.replyAppealError(chatID, appealID, errReview)

		return
	}

	if decision == appeal.Approved {
		b.reply(chatID, fmt.Sprintf("✅ Appeal #%d approved successfully!", appealID))
	} else {
		b.reply(chatID, fmt.Sprintf("❌ Appeal #%d rejected.", appealID))
	}

	if !result.SubmitterNotified {
		b.reply(chatID, fmt.Sprintf("Appeal %s but failed to notify user.", result.Appeal.Status))
	}
}

func (b *Bot) stats(ctx context.Context, chatID int64, userID int64) {
	counts, errStats := b.appeals.Stats(ctx, userID)
	if errStats != nil {
		b.replyError(chatID, errStats)

		return
	}

	var kinds strings.Builder
	for kind, count := range counts.ByKind {
		kinds.WriteString(fmt.Sprintf("• %s: %d\n", kind.Label(), count))
	}

	b.reply(chatID, fmt.Sprintf("📊 Appeal Statistics\n\n"+
		"Total Appeals: %d\nPending: %d\nApproved: %d\nRejected: %d\n\n"+
		"Recent Activity:\n• Last 24h: %d\n• Last 7 days: %d\n\n"+
		"By Appeal Type:\n%s\n"+
		"System Info:\n• Active Admins: %d\n• Owner ID: %d\n\n"+
		"Use /pending to view pending appeals",
		counts.Total, counts.Pending, counts.Approved, counts.Rejected,
		counts.Last24h, counts.Last7d, kinds.String(), counts.Admins, b.admins.OwnerID()))
}

func (b *Bot) listAdmins(ctx context.Context, chatID int64, userID int64) {
	admins, errList := b.admins.List(ctx, userID)
	if errList != nil {
		b.replyError(chatID, errList)

		return
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("👥 Admin List (%d admins)\n\n", len(admins)))

	if len(admins) == 0 {
		builder.WriteString("No admins found.\n")
	}

	for _, entry := range admins {
		builder.WriteString(fmt.Sprintf("• %d (added %s)\n", entry.UserID, humanize.Time(entry.AddedOn)))
	}

	builder.WriteString(fmt.Sprintf("\n👑 Owner: %d\n\nTotal authorized users: %d",
		b.admins.OwnerID(), len(admins)+1))

	b.reply(chatID, builder.String())
}

func (b *Bot) addAdmin(ctx context.Context, chatID int64, userID int64, args string) {
	newAdminID, ok := b.parseID(chatID, args, "❌ Usage: /addadmin <user_id>")
	if !ok {
		return
	}

	if _, errAdd := b.admins.Add(ctx, userID, newAdminID); errAdd != nil {
		if errors.Is(errAdd, domain.ErrAlreadyAdmin) {
			b.reply(chatID, fmt.Sprintf("❌ User %d is already an admin.", newAdminID))

			return
		}

		b.replyError(chatID, errAdd)

		return
	}

	b.reply(chatID, fmt.Sprintf("✅ User %d has been added as an admin.", newAdminID))

	welcome := "🎉 You have been granted admin access to the Appeals Bot!\n\n" +
		"Available admin commands:\n" +
		"• /pending - View pending appeals\n" +
		"• /view <appeal_id> - View full appeal details\n" +
		"• /approve <appeal_id> - Approve an appeal\n" +
		"• /reject <appeal_id> - Reject an appeal\n" +
		"• /stats - View appeal statistics\n" +
		"• /admins - List all admins"

	if errNotify := b.notifications.Notify(ctx, newAdminID, welcome); errNotify != nil {
		slog.Error("Failed to notify new admin", slog.Int64("user_id", newAdminID), log.ErrAttr(errNotify))
		b.reply(chatID, "Admin added but failed to notify them.")
	}
}

func (b *Bot) removeAdmin(ctx context.Context, chatID int64, userID int64, args string) {
	adminID, ok := b.parseID(chatID, args, "❌ Usage: /removeadmin <user_id>")
	if !ok {
		return
	}

	if errRemove := b.admins.Remove(ctx, userID, adminID); errRemove != nil {
		if errors.Is(errRemove, domain.ErrNotAdmin) {
			b.reply(chatID, fmt.Sprintf("❌ User %d is not an admin.", adminID))

			return
		}

		b.replyError(chatID, errRemove)

		return
	}

	b.reply(chatID, fmt.Sprintf("✅ User %d has been removed from admin list.", adminID))

	if errNotify := b.notifications.Notify(ctx, adminID,
		"🚫 Your admin access to the Appeals Bot has been revoked."); errNotify != nil {
		slog.Error("Failed to notify removed admin", slog.Int64("user_id", adminID), log.ErrAttr(errNotify))
	}
}

func (b *Bot) ping(chatID int64) {
	started := time.Now()

	sent, errSend := b.session.Send(tgbotapi.NewMessage(chatID, "Checking ping..."))
	if errSend != nil {
		slog.Error("Failed to send ping probe", log.ErrAttr(errSend))

		return
	}

	latency := time.Since(started)

	b.editMessage(chatID, sent.MessageID, fmt.Sprintf("Pong!\n\nBot Ping: %dms\nUptime: %s\nLast Check: %s",
		latency.Milliseconds(), status.FormatUptime(b.monitor.Uptime()), time.Now().Format("15:04:05")))
}

func (b *Bot) systemStatus(ctx context.Context, chatID int64, userID int64) {
	authorized, errAuth := b.admins.IsAuthorized(ctx, userID)
	if errAuth != nil || !authorized {
		b.reply(chatID, msgAccessDenied)

		return
	}

	b.reply(chatID, b.monitor.Describe().String())
}

func (b *Bot) shell(ctx context.Context, chatID int64, userID int64, args string) {
	if !b.admins.IsOwner(userID) {
		b.reply(chatID, msgOwnerOnly)

		return
	}

	if !b.conf.Shell.Enabled {
		b.reply(chatID, "❌ Shell commands are disabled.")

		return
	}

	if args == "" {
		b.reply(chatID, "❌ Usage: /shell <command>\nExample: /shell ls -la\n⚠️ Use with caution - this executes system commands!")

		return
	}

	slog.Info("Owner executing shell command", slog.String("command", args))

	result, errRun := status.RunShell(ctx, args, b.conf.Shell.Timeout)
	if errRun != nil {
		if errors.Is(errRun, domain.ErrCommandTimeout) {
			b.reply(chatID, fmt.Sprintf("⏰ Command timed out after %s\nCommand: %s", b.conf.Shell.Timeout, args))

			return
		}

		b.reply(chatID, fmt.Sprintf("❌ Execution error:\n%s\nCommand: %s", errRun, args))

		return
	}

	var output strings.Builder

	if result.Stdout != "" {
		output.WriteString("📤 STDOUT:\n" + strings.TrimSpace(result.Stdout) + "\n")
	}

	if result.Stderr != "" {
		output.WriteString("🚨 STDERR:\n" + strings.TrimSpace(result.Stderr) + "\n")
	}

	output.WriteString(fmt.Sprintf("\n📊 Return code: %d\n🕐 Command: %s", result.ExitCode, args))

	b.reply(chatID, output.String())
}

func (b *Bot) parseID(chatID int64, args string, usage string) (int64, bool) {
	if args == "" {
		b.reply(chatID, usage)

		return 0, false
	}

	parsed, errParse := strconv.ParseInt(strings.Fields(args)[0], 10, 64)
	if errParse != nil {
		b.reply(chatID, "❌ Invalid ID. Please provide a number.")

		return 0, false
	}

	return parsed, true
}

func (b *Bot) editMessage(chatID int64, messageID int, text string) {
	if _, errEdit := b.session.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); errEdit != nil {
		slog.Error("Failed to edit message", slog.Int64("chat_id", chatID), log.ErrAttr(errEdit))
	}
}

func (b *Bot) replyError(chatID int64, err error) {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		b.reply(chatID, msgAccessDenied)
	case errors.Is(err, domain.ErrOwnerOnly):
		b.reply(chatID, msgOwnerOnly)
	default:
		slog.Error("Command failed", log.ErrAttr(err))
		b.reply(chatID, msgTransient)
	}
}

func (b *Bot) replyAppealError(chatID int64, appealID int64, err error) {
	if errors.Is(err, domain.ErrAppealNotPending) {
		b.reply(chatID, fmt.Sprintf("❌ Appeal #%d not found or already processed.", appealID))

		return
	}

	b.replyError(chatID, err)
}

// truncate shortens text to at most limit bytes without tearing a rune.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}

	return text[:runeCut(text, limit)] + "..."
}

func displayName(username string) string {
	if username == "" {
		return "No username"
	}

	return username
}
