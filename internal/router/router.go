package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bluepay/internal/authz"
	"github.com/bluepay/internal/cache"
	"github.com/bluepay/internal/config"
	"github.com/bluepay/internal/constants"
	adminhandlers "github.com/bluepay/internal/http/handlers/admin"
	publichandlers "github.com/bluepay/internal/http/handlers/public"
	"github.com/bluepay/internal/http/response"
	"github.com/bluepay/internal/logger"
	"github.com/bluepay/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	limits := cfg.Security.RateLimit
	authRule := func(name string) RateLimitRule {
		return RateLimitRule{
			Prefix:        fmt.Sprintf("%s:rate:%s", redisPrefix, name),
			WindowSeconds: limits.WindowSeconds,
			MaxRequests:   limits.AuthMaxRequests,
		}
	}
	submitRule := func(name string) RateLimitRule {
		return RateLimitRule{
			Prefix:        fmt.Sprintf("%s:rate:%s", redisPrefix, name),
			WindowSeconds: limits.WindowSeconds,
			MaxRequests:   limits.SubmitMaxRequests,
		}
	}

	uploadLimit := uploadBodyLimit(cfg.Storage.MaxSize)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))
	if cfg.Metrics.Enabled {
		r.Use(MetricsMiddleware())
		metricsPath := strings.TrimSpace(cfg.Metrics.Path)
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		r.GET(metricsPath, gin.WrapH(promhttp.Handler()))
	}

	r.GET("/health", func(ctx *gin.Context) {
		response.Success(ctx, gin.H{"status": "ok"})
	})

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		apiV1.GET("/config/withdrawal", publicHandler.GetWithdrawalConfig)
		apiV1.GET("/proofs/:token", publicHandler.GetProof)

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", RateLimitMiddleware(redisClient, authRule("register"), KeyByIP), publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, authRule("login"), KeyByIPAndJSONField("email")), publicHandler.UserLogin)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(c.UserAuthService, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetMe)
			user.PATCH("/me", publicHandler.UpdateMe)
			user.GET("/me/referrals", publicHandler.GetMyReferrals)

			user.POST("/withdrawals", RateLimitMiddleware(redisClient, submitRule("withdrawal"), KeyByUserID), BodyLimitMiddleware(uploadLimit), publicHandler.SubmitWithdrawal)
			user.GET("/withdrawals", publicHandler.ListMyWithdrawals)
			user.GET("/withdrawals/active", publicHandler.GetActiveWithdrawal)

			user.POST("/upgrades", RateLimitMiddleware(redisClient, submitRule("upgrade"), KeyByUserID), BodyLimitMiddleware(uploadLimit), publicHandler.SubmitUpgrade)
			user.GET("/upgrades", publicHandler.ListMyUpgrades)

			user.GET("/wallet", publicHandler.GetMyWallet)
			user.GET("/wallet/transactions", publicHandler.GetMyWalletTransactions)
			user.POST("/wallet/withdraw", RateLimitMiddleware(redisClient, submitRule("wallet_withdraw"), KeyByUserID), publicHandler.WithdrawWallet)
		}

		// 后台接口（需登录且具备后台角色）
		authorized := apiV1.Group("/admin")
		authorized.Use(UserJWTAuthMiddleware(c.UserAuthService, c.UserRepo))
		authorized.Use(AdminRoleMiddleware(c.AuthzService))
		{
			authorized.GET("/withdrawals", adminHandler.ListWithdrawals)
			authorized.GET("/withdrawals/stats", adminHandler.GetWithdrawalStats)
			authorized.GET("/withdrawals/:id", adminHandler.GetWithdrawal)
			authorized.POST("/withdrawals/:id/approve", adminHandler.ApproveWithdrawal)
			authorized.POST("/withdrawals/:id/reject", adminHandler.RejectWithdrawal)

			authorized.GET("/upgrades", adminHandler.ListUpgrades)
			authorized.POST("/upgrades/:id/review", adminHandler.ReviewUpgrade)

			authorized.GET("/reconciliation", adminHandler.ListReconciliation)
			authorized.POST("/reconciliation/:id/resolve", adminHandler.ResolveReconciliation)

			authorized.GET("/users/:id/roles", adminHandler.GetUserRoles)
			authorized.PUT("/users/:id/roles", adminHandler.SetUserRoles)
			authorized.PUT("/users/:id/status", adminHandler.SetUserStatus)
			authorized.GET("/roles/audit-logs", adminHandler.ListRoleAuditLogs)
			authorized.GET("/roles/permissions", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminPermissionCatalog(r))
			})

			authorized.GET("/wallets/:user_id", adminHandler.GetUserWallet)
			authorized.GET("/wallets/:user_id/transactions", adminHandler.GetUserWalletTransactions)
			authorized.POST("/wallets/:user_id/adjust", adminHandler.AdjustUserWallet)
		}
	}

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	return segments[1]
}
