package shared

import (
	"github.com/bluepay/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetContextUintWithKeys 读取中间件写入的用户 ID，缺失或非法时直接写出错误响应
func GetContextUintWithKeys(c *gin.Context, key, invalidKey, typeInvalidKey string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}

	var id uint
	switch v := value.(type) {
	case uint:
		id = v
	case uint64:
		id = uint(v)
	case int:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		id = uint(v)
	case int64:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		id = uint(v)
	default:
		RespondError(c, response.CodeInternal, typeInvalidKey, nil)
		return 0, false
	}
	if id == 0 {
		RespondError(c, response.CodeUnauthorized, invalidKey, nil)
		return 0, false
	}
	return id, true
}
