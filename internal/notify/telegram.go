package notify

import (
	"context"
	"fmt"
	"html"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"jobapply-engine/internal/domain"
)

// Reporter publishes the outcome of a run somewhere a human will see it.
type Reporter interface {
	Report(ctx context.Context, sum domain.RunSummary) error
}

type TelegramReporter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramReporter(token string, chatID int64) (*TelegramReporter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return &TelegramReporter{bot: bot, chatID: chatID}, nil
}

func (t *TelegramReporter) Report(_ context.Context, sum domain.RunSummary) error {
	msg := tgbotapi.NewMessage(t.chatID, FormatSummary(sum))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err := t.bot.Send(msg)
	return err
}

// FormatSummary renders sum as Telegram HTML.
func FormatSummary(sum domain.RunSummary) string {
	var b strings.Builder
	icon := "✅"
	if sum.Errors > 0 || sum.CommitError != "" {
		icon = "⚠️"
	}
	fmt.Fprintf(&b, "%s <b>TopJobs run finished</b>\n", icon)
	fmt.Fprintf(&b, "🔎 Scanned: %d\n", sum.TotalFound)
	fmt.Fprintf(&b, "🎯 Matching: %d\n", sum.MatchingCriteria)
	fmt.Fprintf(&b, "🆕 New leads: %d\n", sum.NewLeadsFound)
	fmt.Fprintf(&b, "📧 Emails sent: %d\n", sum.EmailsSent)
	if sum.EmailsSkipped > 0 {
		fmt.Fprintf(&b, "⏭ Already applied: %d\n", sum.EmailsSkipped)
	}
	fmt.Fprintf(&b, "❗ Errors: %d", sum.Errors)
	if sum.LeadsFile != "" {
		fmt.Fprintf(&b, "\n📄 <code>%s</code>", html.EscapeString(filepath.Base(sum.LeadsFile)))
	}
	if sum.CommitError != "" {
		fmt.Fprintf(&b, "\n<b>Tracking not saved:</b> %s", html.EscapeString(sum.CommitError))
	}
	return b.String()
}
