// Package telegram sends a summary of a finished forecast run via the Telegram Bot API.
// The summary lists the ranked categories, the leader's annotated days and, when the
// model fit failed, the forecast error.
//
// Messages use MarkdownV2 and delivery is retried with a linear backoff.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/models"
)

// sender is the part of tgbotapi.BotAPI the client uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newClient(bot, chatID, maxRetries, retryDelayBase)
}

func newClient(bot sender, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// SendReport sends the summary of a finished run. elapsed is the wall time of the run.
func (c *Client) SendReport(report *models.Report, elapsed time.Duration) error {
	return c.send(formatReport(report, elapsed))
}

// SendError reports a run that produced no report at all.
func (c *Client) SendError(runErr error) error {
	message := "❌ *Attack forecast run failed*\n\n" + escapeMarkdownV2(runErr.Error())
	return c.send(message)
}

func (c *Client) send(message string) error {
	msg := tgbotapi.NewMessage(c.chatID, message)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatReport formats a report into a Telegram message
func formatReport(report *models.Report, elapsed time.Duration) string {
	var b strings.Builder
	b.WriteString("🛡 *Honeypot Attack Forecast*\n\n")

	window := fmt.Sprintf("%s to %s", report.Window.Start.Format(models.DateLayout), report.Window.End.Format(models.DateLayout))
	fmt.Fprintf(&b, "📅 Window: %s\n", escapeMarkdownV2(window))
	fmt.Fprintf(&b, "⏱ Run time: %s\n\n", escapeMarkdownV2(formatDuration(elapsed)))

	b.WriteString("*Top categories*\n")
	for i, rc := range report.Ranking {
		marker := ""
		if rc.Category == report.Leader {
			marker = " 🔮"
		}
		fmt.Fprintf(&b, "%d\\. %s: %s%s\n", i+1, escapeMarkdownV2(rc.Category),
			escapeMarkdownV2(strconv.Itoa(rc.Total)), marker)
	}

	if report.ForecastError != "" {
		fmt.Fprintf(&b, "\n⚠️ Forecast failed: %s\n", escapeMarkdownV2(report.ForecastError))
		return b.String()
	}

	if len(report.Annotations) > 0 {
		b.WriteString("\n*Highlights*\n")
		for _, a := range report.Annotations {
			line := fmt.Sprintf("%s %s: %.0f", a.Day.Format("Jan 2"), a.Category, a.Value)
			fmt.Fprintf(&b, "• %s\n", escapeMarkdownV2(line))
		}
	}

	if report.Model != nil {
		m := report.Model
		desc := fmt.Sprintf("SARIMA(%d,%d,%d)(%d,%d,%d)[%d] AIC %.1f",
			m.Order[0], m.Order[1], m.Order[2],
			m.SeasonalOrder[0], m.SeasonalOrder[1], m.SeasonalOrder[2], m.SeasonalOrder[3], m.AIC)
		fmt.Fprintf(&b, "\n📈 Model: %s\n", escapeMarkdownV2(desc))
	}

	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// Characters that need escaping in MarkdownV2:
	// _ * [ ] ( ) ~ ` > # + - = | { } . ! \
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if hours := int(d.Hours()); hours >= 1 {
		return fmt.Sprintf("%dh%dm", hours, int(d.Minutes())%60)
	}
	if mins := int(d.Minutes()); mins >= 1 {
		return fmt.Sprintf("%dm%ds", mins, int(d.Seconds())%60)
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
