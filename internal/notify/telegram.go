package notify

import (
	"context"
	"errors"
	"strings"

	"github.com/bluepay/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrTelegramDisabled Telegram 通知未启用
var ErrTelegramDisabled = errors.New("telegram notify disabled")

const telegramMessageLimit = 4096

// Sender 管理员消息发送接口
type Sender interface {
	Send(ctx context.Context, text string) error
}

// botClient tgbotapi.BotAPI 的最小子集
type botClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender 通过 Telegram Bot 推送管理员通知
type TelegramSender struct {
	bot    botClient
	chatID int64
}

// NewTelegramSender 根据配置创建 Telegram 发送器
func NewTelegramSender(cfg config.NotifyConfig) (*TelegramSender, error) {
	if !cfg.TelegramEnabled {
		return nil, ErrTelegramDisabled
	}
	token := strings.TrimSpace(cfg.TelegramBotToken)
	if token == "" || cfg.TelegramChatID == 0 {
		return nil, errors.New("telegram bot token and chat id are required")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &TelegramSender{bot: bot, chatID: cfg.TelegramChatID}, nil
}

// Send 发送纯文本消息
func (s *TelegramSender) Send(ctx context.Context, text string) error {
	if s == nil || s.bot == nil {
		return ErrTelegramDisabled
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(s.chatID, truncateMessage(text))
	msg.DisableWebPagePreview = true
	_, err := s.bot.Send(msg)
	return err
}

func truncateMessage(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= telegramMessageLimit {
		return string(runes)
	}
	return string(runes[:telegramMessageLimit-1]) + "…"
}
