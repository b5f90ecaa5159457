package i18n

import (
	"fmt"
	"strings"

	"github.com/bluepay/internal/constants"

	"github.com/gin-gonic/gin"
)

// DefaultLocale 默认语言
const DefaultLocale = constants.LocaleEnUS

// T 翻译消息键，缺失时回退到默认语言，再回退到键本身
func T(locale, key string) string {
	if table, ok := messages[normalizeLocale(locale)]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译并格式化消息
func Sprintf(locale, key string, args ...interface{}) string {
	format := T(locale, key)
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// ResolveLocale 解析请求语言：上下文 > 查询参数 > X-Locale > Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if value, ok := c.Get("locale"); ok {
		if locale, ok := value.(string); ok {
			if resolved := matchLocale(locale); resolved != "" {
				return resolved
			}
		}
	}
	if resolved := matchLocale(c.Query("lang")); resolved != "" {
		return resolved
	}
	if resolved := matchLocale(c.GetHeader("X-Locale")); resolved != "" {
		return resolved
	}
	for _, part := range strings.Split(c.GetHeader("Accept-Language"), ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if resolved := matchLocale(tag); resolved != "" {
			return resolved
		}
	}
	return DefaultLocale
}

func matchLocale(raw string) string {
	normalized := normalizeLocale(raw)
	if normalized == "" {
		return ""
	}
	for _, locale := range constants.SupportedLocales {
		if strings.EqualFold(locale, normalized) {
			return locale
		}
	}
	lang := strings.SplitN(normalized, "-", 2)[0]
	for _, locale := range constants.SupportedLocales {
		if strings.EqualFold(strings.SplitN(locale, "-", 2)[0], lang) {
			return locale
		}
	}
	return ""
}

func normalizeLocale(raw string) string {
	trimmed := strings.ReplaceAll(strings.TrimSpace(raw), "_", "-")
	if trimmed == "" {
		return ""
	}
	parts := strings.SplitN(trimmed, "-", 2)
	if len(parts) == 1 {
		return strings.ToLower(parts[0])
	}
	return strings.ToLower(parts[0]) + "-" + strings.ToUpper(parts[1])
}
