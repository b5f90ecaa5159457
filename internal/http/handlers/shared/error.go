package shared

import (
	"errors"

	"github.com/bluepay/internal/http/response"
	"github.com/bluepay/internal/i18n"
	"github.com/bluepay/internal/logger"
	"github.com/bluepay/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 携带 request_id 的日志实例
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if id := c.GetString("request_id"); id != "" {
		return logger.SW("request_id", id)
	}
	return logger.S()
}

// RespondError 返回国际化错误响应；服务端故障按 error 级别记录，其余按 warn
func RespondError(c *gin.Context, code int, key string, err error) {
	msg := i18n.T(i18n.ResolveLocale(c), key)
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		log := RequestLog(c)
		if appErr.ServerSide() {
			log.Errorw("handler_error", "code", appErr.Code, "key", key, "error", err)
		} else {
			log.Warnw("handler_rejected", "code", appErr.Code, "key", key, "error", err)
		}
	}
	response.Error(c, appErr.Code, appErr.Message)
}

type keyedError interface {
	Key() string
	Args() []interface{}
}

// RespondKeyedError 处理携带消息键的业务错误（字段校验、密码策略），已响应时返回 true。
func RespondKeyedError(c *gin.Context, err error) bool {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		response.ErrorWithData(c, response.CodeBadRequest, i18n.T(i18n.ResolveLocale(c), validationErr.Key), gin.H{
			"field": validationErr.Field,
		})
		return true
	}
	var keyed keyedError
	if errors.As(err, &keyed) {
		msg := i18n.Sprintf(i18n.ResolveLocale(c), keyed.Key(), keyed.Args()...)
		response.Error(c, response.CodeBadRequest, msg)
		return true
	}
	return false
}
