package notify

import (
	"context"

	"github.com/bluepay/internal/logger"
)

// LogSender 未配置 Telegram 时将通知写入日志
type LogSender struct{}

// Send 记录通知内容
func (LogSender) Send(ctx context.Context, text string) error {
	logger.FromContext(ctx).Infow("admin_notify", "text", text)
	return nil
}
