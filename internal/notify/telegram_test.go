package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bluepay/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeBot struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		b.sent = append(b.sent, msg)
	}
	return tgbotapi.Message{}, b.err
}

func TestNewTelegramSenderDisabled(t *testing.T) {
	if _, err := NewTelegramSender(config.NotifyConfig{}); !errors.Is(err, ErrTelegramDisabled) {
		t.Fatalf("expected ErrTelegramDisabled, got %v", err)
	}
	if _, err := NewTelegramSender(config.NotifyConfig{TelegramEnabled: true}); err == nil {
		t.Fatalf("expected error for missing token")
	}
}

func TestTelegramSenderSend(t *testing.T) {
	bot := &fakeBot{}
	sender := &TelegramSender{bot: bot, chatID: 42}
	if err := sender.Send(context.Background(), "  new withdrawal #7  "); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if len(bot.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(bot.sent))
	}
	if bot.sent[0].ChatID != 42 || bot.sent[0].Text != "new withdrawal #7" {
		t.Fatalf("unexpected message: %+v", bot.sent[0])
	}
}

func TestTelegramSenderCanceledContext(t *testing.T) {
	bot := &fakeBot{}
	sender := &TelegramSender{bot: bot, chatID: 42}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sender.Send(ctx, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(bot.sent) != 0 {
		t.Fatalf("message must not be sent")
	}
}

func TestTruncateMessage(t *testing.T) {
	long := strings.Repeat("a", telegramMessageLimit+10)
	got := truncateMessage(long)
	if len([]rune(got)) != telegramMessageLimit {
		t.Fatalf("unexpected length: %d", len([]rune(got)))
	}
}
