package service

import (
	"context"
	"errors"
	"net"
	"strings"

	"gorm.io/gorm"
)

// isUniqueViolation 依赖 gorm.Config.TranslateError 将驱动的唯一约束错误统一为 gorm.ErrDuplicatedKey
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// isTransientError 判断是否为可重试的瞬时故障（网络、连接池、死锁、序列化冲突）
func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	if message == "" {
		return false
	}
	keywords := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"bad connection",
		"unexpected eof",
		"i/o timeout",
		"deadlock",
		"could not serialize",
		"40001",
		"40p01",
		"database is locked",
		"too many connections",
	}
	for _, keyword := range keywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	return false
}
