// Package telegram delivers insight digests through the Telegram Bot API.
// Digests are rendered as MarkdownV2 and sent with linear-backoff retries.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/rewired-gh/pollsight/internal/logger"
	"github.com/rewired-gh/pollsight/internal/models"
)

// messageSender is the subset of *tgbotapi.BotAPI the client uses.
type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client handles Telegram notifications
type Client struct {
	bot            messageSender
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

func newClient(bot messageSender, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
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

// Send delivers a digest. An empty digest is not sent.
func (c *Client) Send(ctx context.Context, entries []models.DigestEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return c.send(ctx, formatDigest(entries))
}

func (c *Client) send(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		logger.Debug("Telegram send attempt %d/%d failed: %v", i+1, c.maxRetries, err)

		if i == c.maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelayBase * time.Duration(i+1)):
		}
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// iconEmoji maps insight icon tags to glyphs.
var iconEmoji = map[string]string{
	models.IconRocket: "🚀",
	models.IconCheck:  "✅",
	models.IconCross:  "❌",
	models.IconChart:  "📊",
	models.IconTrophy: "🏆",
	models.IconDown:   "📉",
	models.IconUp:     "📈",
	models.IconPeople: "👥",
	models.IconStar:   "⭐",
	models.IconTarget: "🎯",
	models.IconGem:    "💎",
	models.IconAge:    "🎂",
	models.IconMale:   "👨",
	models.IconFemale: "👩",
	models.IconPerson: "🧑",
	models.IconGlobe:  "🌍",
}

func emojiFor(icon string) string {
	if e, ok := iconEmoji[icon]; ok {
		return e
	}
	return "•"
}

// formatDigest renders entries into a MarkdownV2 message.
func formatDigest(entries []models.DigestEntry) string {
	var b strings.Builder
	b.WriteString("🗳 *Poll Insights Digest*\n\n")

	dateStr := escapeMarkdownV2(entries[0].GeneratedAt.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "📅 Generated: %s UTC\n\n", dateStr)

	for i, e := range entries {
		fmt.Fprintf(&b, "%d\\. *%s*\n", i+1, escapeMarkdownV2(e.Question))
		if e.Category != "" {
			fmt.Fprintf(&b, "   🗂 %s\n", escapeMarkdownV2(e.Category))
		}
		fmt.Fprintf(&b, "   🧮 %s responses\n", escapeMarkdownV2(humanize.Comma(int64(e.ResponseCount))))
		for _, in := range e.Insights {
			fmt.Fprintf(&b, "   %s %s\n", emojiFor(in.Icon), escapeMarkdownV2(in.Text))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, char := range text {
		switch char {
		case '\\', '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
