package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bluepay/internal/http/response"
	"github.com/bluepay/internal/i18n"
	"github.com/bluepay/internal/logger"
	"github.com/bluepay/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	MessageKey    string
}

var errRateLimitReply = errors.New("unexpected rate limit reply")

// 返回 {窗口内计数, 剩余秒数}
var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

type rateWindow struct {
	count      int64
	ttlSeconds int64
}

// RateLimitMiddleware Redis 固定窗口限流；未配置 Redis 时放行，Redis 故障时拒绝
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || rule.WindowSeconds <= 0 || rule.MaxRequests <= 0 {
			c.Next()
			return
		}

		window, err := consumeRateWindow(c.Request.Context(), client, rule.key(c, keyFunc), rule.WindowSeconds)
		if err != nil {
			metrics.RateLimitDecisions.WithLabelValues(rule.Prefix, metrics.OutcomeError).Inc()
			logger.FromContext(c.Request.Context()).Warnw("rate_limit_unavailable", "rule", rule.Prefix, "error", err)
			response.Error(c, response.CodeServiceUnavailable, i18n.T(i18n.ResolveLocale(c), "error.rate_limit_unavailable"))
			c.Abort()
			return
		}
		if window.count <= int64(rule.MaxRequests) {
			metrics.RateLimitDecisions.WithLabelValues(rule.Prefix, metrics.OutcomeOK).Inc()
			c.Next()
			return
		}

		metrics.RateLimitDecisions.WithLabelValues(rule.Prefix, metrics.OutcomeRejected).Inc()
		msgKey := strings.TrimSpace(rule.MessageKey)
		if msgKey == "" {
			msgKey = "error.rate_limited"
		}
		response.Error(c, response.CodeTooManyRequests, i18n.Sprintf(i18n.ResolveLocale(c), msgKey, rule.retryAfter(window)))
		c.Abort()
	}
}

func (r RateLimitRule) key(c *gin.Context, keyFunc RateLimitKeyFunc) string {
	key := ""
	if keyFunc != nil {
		key = strings.TrimSpace(keyFunc(c))
	}
	if key == "" {
		key = c.ClientIP()
	}
	if r.Prefix == "" {
		return key
	}
	return r.Prefix + ":" + key
}

func (r RateLimitRule) retryAfter(window rateWindow) int {
	switch {
	case window.ttlSeconds > 0:
		return int(window.ttlSeconds)
	case r.WindowSeconds > 0:
		return r.WindowSeconds
	default:
		return 1
	}
}

func consumeRateWindow(ctx context.Context, client *redis.Client, key string, windowSeconds int) (rateWindow, error) {
	values, err := rateLimitScript.Run(ctx, client, []string{key}, windowSeconds).Int64Slice()
	if err != nil {
		return rateWindow{}, err
	}
	if len(values) < 2 {
		return rateWindow{}, errRateLimitReply
	}
	return rateWindow{count: values[0], ttlSeconds: values[1]}, nil
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByUserID 使用已登录用户 ID 作为限流 key，未登录时回退到 IP
func KeyByUserID(c *gin.Context) string {
	if uid, ok := c.Get("user_id"); ok {
		if id, ok := uid.(uint); ok && id > 0 {
			return fmt.Sprintf("user:%d", id)
		}
	}
	return c.ClientIP()
}

// KeyByIPAndJSONField 使用 JSON 字段 + IP 作为限流 key，读取后恢复请求体
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(readJSONField(c, field))
		if value == "" {
			return c.ClientIP()
		}
		return value + "|" + c.ClientIP()
	}
}

func readJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil || len(body) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	var text string
	if err := json.Unmarshal(payload[field], &text); err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
