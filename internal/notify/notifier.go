// Package notify delivers operator alerts about failed publications.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	telegoapi "content-publisher/pkg/telegoapi"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// Notifier sends a plain-text alert to an operator.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// NopNotifier drops every alert.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, string) error { return nil }

// Telegram rejects messages longer than this many characters.
const maxMessageLength = 4096

const (
	maxSendAttempts  = 3
	defaultRetryWait = 2 * time.Second
)

// TelegramNotifier posts alerts to a Telegram chat.
type TelegramNotifier struct {
	bot    telegoapi.MessageSender
	chatID int64
}

// NewTelegramNotifier creates a notifier for the given chat.
// It requires a non-nil bot instance and a non-zero chat ID.
func NewTelegramNotifier(bot telegoapi.MessageSender, chatID int64) (*TelegramNotifier, error) {
	if bot == nil {
		return nil, errors.New("telego bot instance cannot be nil")
	}
	if chatID == 0 {
		return nil, errors.New("alert chat ID cannot be zero")
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

// Notify sends text as a plain message, truncated to the Telegram limit.
func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) > maxMessageLength {
		runes := []rune(text)
		text = string(runes[:maxMessageLength-1]) + "…"
	}

	params := tu.Message(tu.ID(n.chatID), text)
	params.LinkPreviewOptions = &telego.LinkPreviewOptions{IsDisabled: true}

	var lastErr error
	for attempt := 1; attempt <= maxSendAttempts; attempt++ {
		_, err := n.bot.SendMessage(ctx, params)
		if err == nil {
			return nil
		}
		lastErr = err

		errStr := err.Error()
		if !strings.Contains(errStr, "Too Many Requests") && !strings.Contains(errStr, "429") {
			break
		}
		wait := defaultRetryWait
		if seconds, ok := parseRetryAfter(errStr); ok {
			wait = time.Duration(seconds) * time.Second
		}
		if attempt == maxSendAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("alert to chat %d cancelled while rate limited: %w", n.chatID, ctx.Err())
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("failed to send alert to chat %d: %w", n.chatID, lastErr)
}

// parseRetryAfter extracts the wait from a "retry after N" API error.
func parseRetryAfter(errorString string) (int, bool) {
	fields := strings.Fields(errorString)
	if len(fields) < 2 || fields[len(fields)-2] != "after" {
		return 0, false
	}
	seconds, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil || seconds <= 0 {
		return 0, false
	}
	return seconds, true
}
