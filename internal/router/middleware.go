package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bluepay/internal/authz"
	"github.com/bluepay/internal/cache"
	"github.com/bluepay/internal/config"
	"github.com/bluepay/internal/http/response"
	"github.com/bluepay/internal/i18n"
	"github.com/bluepay/internal/logger"
	"github.com/bluepay/internal/metrics"
	"github.com/bluepay/internal/repository"
	"github.com/bluepay/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = "request_id"
const requestIDHeader = "X-Request-ID"

// UserTokenParser 用户 Token 解析器
type UserTokenParser interface {
	ParseUserJWT(tokenString string) (*service.UserJWTClaims, error)
}

// RoleChecker 后台角色校验
type RoleChecker interface {
	HasRole(userID uint, role string) (bool, error)
	EnforceUser(userID uint, obj, act string) (bool, error)
}

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		if cfg.AllowCredentials {
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else {
			corsConfig.AllowAllOrigins = true
		}
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	corsConfig.AllowMethods = cfg.AllowedMethods
	if len(corsConfig.AllowMethods) == 0 {
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	corsConfig.AllowHeaders = cfg.AllowedHeaders
	if len(corsConfig.AllowHeaders) == 0 {
		corsConfig.AllowHeaders = []string{
			"Origin", "Content-Type", "Content-Length", "Accept-Encoding",
			"Authorization", "Cache-Control", "X-Requested-With", "X-Locale", requestIDHeader,
		}
	}
	corsConfig.ExposeHeaders = []string{requestIDHeader}
	corsConfig.AllowCredentials = cfg.AllowCredentials
	if cfg.MaxAge > 0 {
		corsConfig.MaxAge = time.Duration(cfg.MaxAge) * time.Second
	}
	return cors.New(corsConfig)
}

// RequestIDMiddleware 请求 ID 中间件，同时写入日志上下文
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Request = c.Request.WithContext(logger.WithFields(c.Request.Context(), requestIDKey, requestID))
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.L()
	}
	sugar := log.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if uid, ok := c.Get("user_id"); ok {
			entry = entry.With("user_id", uid)
		}
		if len(c.Errors) > 0 {
			entry.Errorw("request", "errors", c.Errors.String())
			return
		}
		entry.Infow("request")
	}
}

// MetricsMiddleware 记录请求计数与耗时
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPResponseTime.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

func abortUnauthorized(c *gin.Context, key string) {
	response.Unauthorized(c, i18n.T(i18n.ResolveLocale(c), key))
	c.Abort()
}

// UserJWTAuthMiddleware 用户 JWT 鉴权中间件
func UserJWTAuthMiddleware(parser UserTokenParser, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if parser == nil || userRepo == nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "error.auth_header_missing")
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			abortUnauthorized(c, "error.auth_header_invalid")
			return
		}

		claims, err := parser.ParseUserJWT(strings.TrimSpace(parts[1]))
		if err != nil || claims == nil || claims.UserID == 0 {
			abortUnauthorized(c, "error.token_invalid")
			return
		}

		ctx := c.Request.Context()
		state, hit, cacheErr := cache.GetUserAuthState(ctx, claims.UserID)
		if cacheErr != nil || !hit {
			user, err := userRepo.WithContext(ctx).GetByID(claims.UserID)
			if err != nil || user == nil {
				abortUnauthorized(c, "error.token_invalid")
				return
			}
			state = cache.BuildUserAuthState(user)
			_ = cache.SetUserAuthState(ctx, state)
		}
		if key := state.RejectKey(claims.TokenVersion); key != "" {
			abortUnauthorized(c, key)
			return
		}

		setUserContext(c, claims)
		c.Next()
	}
}

func setUserContext(c *gin.Context, claims *service.UserJWTClaims) {
	c.Set("user_id", claims.UserID)
	c.Set("user_email", claims.Email)
	c.Request = c.Request.WithContext(logger.WithFields(c.Request.Context(), "user_id", claims.UserID))
}

// AdminRoleMiddleware 后台鉴权：admin 角色直接放行，其余角色按 casbin 策略校验
func AdminRoleMiddleware(checker RoleChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker == nil {
			logger.Errorw("admin_role_checker_unavailable")
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		var userID uint
		if raw, exists := c.Get("user_id"); exists {
			if value, ok := raw.(uint); ok {
				userID = value
			}
		}
		if userID == 0 {
			abortUnauthorized(c, "error.unauthorized")
			return
		}

		isAdmin, err := checker.HasRole(userID, authz.RoleAdmin)
		if err != nil {
			logger.Errorw("admin_role_check_failed", "user_id", userID, "error", err)
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		if isAdmin {
			c.Next()
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}
		allowed, err := checker.EnforceUser(userID, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("admin_rbac_enforce_failed",
				"user_id", userID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			abortUnauthorized(c, "error.unauthorized")
			return
		}
		if !allowed {
			logger.Warnw("admin_rbac_permission_denied",
				"user_id", userID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"resource", authz.NormalizeObject(resource),
			)
			response.Forbidden(c, i18n.T(i18n.ResolveLocale(c), "error.forbidden"))
			c.Abort()
			return
		}
		c.Next()
	}
}


// BodyLimitMiddleware 限制请求体大小，超出时返回凭证过大
func BodyLimitMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			response.Error(c, response.CodeBadRequest, i18n.T(i18n.ResolveLocale(c), "error.proof_too_large"))
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// uploadBodyLimit 凭证上传请求体上限，预留表单字段余量
func uploadBodyLimit(maxProofSize int64) int64 {
	const formMargin = 1 << 20
	if maxProofSize <= 0 {
		return 0
	}
	return maxProofSize + formMargin
}
