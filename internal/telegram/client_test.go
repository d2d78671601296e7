package telegram

import (
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/models"
)

type fakeSender struct {
	failures int
	calls    int
	last     tgbotapi.MessageConfig
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.calls++
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.last = msg
	}
	if f.calls <= f.failures {
		return tgbotapi.Message{}, errors.New("too many requests")
	}
	return tgbotapi.Message{}, nil
}

func testReport() *models.Report {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC)
	return &models.Report{
		ID:     "run-1",
		Window: models.DayWindow{Start: start, End: end},
		Ranking: []models.RankedCategory{
			{Category: "Misc Attack", Total: 1200},
			{Category: "Attempted Information Leak", Total: 800},
		},
		Leader: "Misc Attack",
		Annotations: []models.Annotation{
			{Category: "Misc Attack", Day: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), Value: 40},
		},
		Model: &models.ModelSummary{Order: [3]int{1, 1, 1}, SeasonalOrder: [4]int{1, 1, 1, 7}, AIC: 812.34},
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{1 * time.Hour, "1h0m"},
		{2*time.Hour + 5*time.Minute, "2h5m"},
		{30 * time.Minute, "30m0s"},
		{90 * time.Second, "1m30s"},
		{2500 * time.Millisecond, "2.5s"},
	}

	for _, tt := range tests {
		result := formatDuration(tt.duration)
		if result != tt.expected {
			t.Errorf("formatDuration(%v) = %s, expected %s", tt.duration, result, tt.expected)
		}
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"plain", "plain"},
		{"2025-03-01", "2025\\-03\\-01"},
		{"a.b!", "a\\.b\\!"},
		{"(x)[y]", "\\(x\\)\\[y\\]"},
		{`back\slash`, `back\\slash`},
	}

	for _, tt := range tests {
		if got := escapeMarkdownV2(tt.in); got != tt.expected {
			t.Errorf("escapeMarkdownV2(%q) = %q, expected %q", tt.in, got, tt.expected)
		}
	}
}

func TestFormatReport(t *testing.T) {
	msg := formatReport(testReport(), 3*time.Second)

	for _, want := range []string{
		"2025\\-03\\-01 to 2025\\-07\\-31",
		"1\\. Misc Attack: 1200 🔮",
		"2\\. Attempted Information Leak: 800\n",
		"Jul 1 Misc Attack: 40",
		"SARIMA\\(1,1,1\\)\\(1,1,1\\)\\[7\\] AIC 812\\.3",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestFormatReportWithForecastError(t *testing.T) {
	r := testReport()
	r.Model = nil
	r.Annotations = nil
	r.ForecastError = "forecast for Misc Attack: model fit failed"

	msg := formatReport(r, time.Second)
	if !strings.Contains(msg, "Forecast failed: forecast for Misc Attack: model fit failed") {
		t.Errorf("message missing forecast error:\n%s", msg)
	}
	if strings.Contains(msg, "Model:") {
		t.Errorf("message should not describe a model:\n%s", msg)
	}
}

func TestSendRetries(t *testing.T) {
	bot := &fakeSender{failures: 2}
	c, err := newClient(bot, "12345", 3, time.Millisecond)
	if err != nil {
		t.Fatalf("newClient failed: %v", err)
	}

	if err := c.SendReport(testReport(), time.Second); err != nil {
		t.Fatalf("SendReport failed: %v", err)
	}
	if bot.calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", bot.calls)
	}
	if bot.last.ChatID != 12345 || bot.last.ParseMode != "MarkdownV2" {
		t.Errorf("Unexpected message config: %+v", bot.last)
	}
}

func TestSendGivesUp(t *testing.T) {
	bot := &fakeSender{failures: 10}
	c, err := newClient(bot, "12345", 2, time.Millisecond)
	if err != nil {
		t.Fatalf("newClient failed: %v", err)
	}

	if err := c.SendError(errors.New("configuration error: top_k must be at least 1")); err == nil {
		t.Error("Expected error after exhausting retries")
	}
	if bot.calls != 2 {
		t.Errorf("Expected 2 attempts, got %d", bot.calls)
	}
}

func TestNewClientInvalidChatID(t *testing.T) {
	if _, err := newClient(&fakeSender{}, "not-a-number", 3, time.Second); err == nil {
		t.Error("Expected error for invalid chat ID")
	}
}
