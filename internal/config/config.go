package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/bluepay/internal/logger"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	UserJWT    JWTConfig        `mapstructure:"user_jwt"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Withdrawal WithdrawalConfig `mapstructure:"withdrawal"`
	Referral   ReferralConfig   `mapstructure:"referral"`
	Upgrade    UpgradeConfig    `mapstructure:"upgrade"`
	Retry      RetryConfig      `mapstructure:"retry"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Security   SecurityConfig   `mapstructure:"security"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Bootstrap  BootstrapConfig  `mapstructure:"bootstrap"`
}

// AppConfig 应用基础信息
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Currency string `mapstructure:"currency"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Stdout     bool   `mapstructure:"stdout"`
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Level:      c.Level,
		Stdout:     c.Stdout,
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // sqlite / postgres
	DSN    string             `mapstructure:"dsn"`
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	Password          string `mapstructure:"password"`
	DB                int    `mapstructure:"db"`
	Prefix            string `mapstructure:"prefix"`
	BalanceTTLSeconds int    `mapstructure:"balance_ttl_seconds"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// Addr Redis 连接地址
func (c RedisConfig) Addr() string {
	return redisAddr(c.Host, c.Port)
}

// Addr 队列 Redis 连接地址
func (c QueueConfig) Addr() string {
	return redisAddr(c.Host, c.Port)
}

func redisAddr(host string, port int) string {
	host = strings.TrimSpace(host)
	if host == "" {
		host = "127.0.0.1"
	}
	if port <= 0 {
		port = 6379
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// StorageConfig 凭证存储配置
type StorageConfig struct {
	BucketURL         string   `mapstructure:"bucket_url"` // 为空时使用 root 下的本地目录
	Root              string   `mapstructure:"root"`
	LinkSecret        string   `mapstructure:"link_secret"`
	LinkTTLSeconds    int      `mapstructure:"link_ttl_seconds"`
	PublicBaseURL     string   `mapstructure:"public_base_url"`
	MaxSize           int64    `mapstructure:"max_size"`
	AllowedTypes      []string `mapstructure:"allowed_types"`
	MaxWidth          int      `mapstructure:"max_width"`
	MaxHeight         int      `mapstructure:"max_height"`
	OrphanScanMinutes int      `mapstructure:"orphan_scan_minutes"`
}

// LinkTTL 凭证链接有效期
func (c StorageConfig) LinkTTL() time.Duration {
	if c.LinkTTLSeconds <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.LinkTTLSeconds) * time.Second
}

// WithdrawalFlowConfig 单个提现流程的门槛与费用
type WithdrawalFlowConfig struct {
	MinAmount   float64 `mapstructure:"min_amount"`
	MaxAmount   float64 `mapstructure:"max_amount"` // 0 表示不限
	Fee         float64 `mapstructure:"fee"`
	RequireCode bool    `mapstructure:"require_code"`
}

// Min 最小提现金额
func (c WithdrawalFlowConfig) Min() decimal.Decimal {
	return decimal.NewFromFloat(c.MinAmount).Round(2)
}

// Max 最大提现金额，零值表示不限
func (c WithdrawalFlowConfig) Max() decimal.Decimal {
	return decimal.NewFromFloat(c.MaxAmount).Round(2)
}

// FeeAmount 手续费
func (c WithdrawalFlowConfig) FeeAmount() decimal.Decimal {
	return decimal.NewFromFloat(c.Fee).Round(2)
}

// WithdrawalConfig 提现配置
type WithdrawalConfig struct {
	ActivationCode string               `mapstructure:"activation_code"`
	Earnings       WithdrawalFlowConfig `mapstructure:"earnings"`
	Wallet         WithdrawalFlowConfig `mapstructure:"wallet"`
	PayeeBankName  string               `mapstructure:"payee_bank_name"`
	PayeeAccount   string               `mapstructure:"payee_account"`
	PayeeName      string               `mapstructure:"payee_name"`
}

// ReferralConfig 推荐奖励配置
type ReferralConfig struct {
	DefaultRate float64 `mapstructure:"default_rate"`
	CodeLength  int     `mapstructure:"code_length"`
}

// Rate 默认每次推荐奖励
func (c ReferralConfig) Rate() decimal.Decimal {
	return decimal.NewFromFloat(c.DefaultRate).Round(2)
}

// UpgradeConfig 账户升级配置
type UpgradeConfig struct {
	Fee     float64 `mapstructure:"fee"`
	NewRate float64 `mapstructure:"new_rate"`
}

// FeeAmount 升级费用
func (c UpgradeConfig) FeeAmount() decimal.Decimal {
	return decimal.NewFromFloat(c.Fee).Round(2)
}

// Rate 升级后的推荐奖励
func (c UpgradeConfig) Rate() decimal.Decimal {
	return decimal.NewFromFloat(c.NewRate).Round(2)
}

// RetryConfig 存储调用的重试与超时
type RetryConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
	BaseDelayMS int `mapstructure:"base_delay_ms"`
	TimeoutMS   int `mapstructure:"timeout_ms"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
	PasswordPolicy PasswordPolicyConfig `mapstructure:"password_policy"`
}

// RateLimitConfig 接口限流配置
type RateLimitConfig struct {
	WindowSeconds     int `mapstructure:"window_seconds"`
	AuthMaxRequests   int `mapstructure:"auth_max_requests"`
	SubmitMaxRequests int `mapstructure:"submit_max_requests"`
}

// PasswordPolicyConfig 密码策略配置
type PasswordPolicyConfig struct {
	MinLength      int  `mapstructure:"min_length"`
	RequireUpper   bool `mapstructure:"require_upper"`
	RequireLower   bool `mapstructure:"require_lower"`
	RequireNumber  bool `mapstructure:"require_number"`
	RequireSpecial bool `mapstructure:"require_special"`
}

// NotifyConfig 管理员通知配置
type NotifyConfig struct {
	TelegramEnabled  bool   `mapstructure:"telegram_enabled"`
	TelegramBotToken string `mapstructure:"telegram_bot_token"`
	TelegramChatID   int64  `mapstructure:"telegram_chat_id"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// BootstrapConfig 初始管理员配置
type BootstrapConfig struct {
	AdminEmail    string `mapstructure:"admin_email"`
	AdminPassword string `mapstructure:"admin_password"`
}

// Load 从 .env 与 config.yml 加载配置
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		logger.Infow("env_file_loaded", "file", ".env")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./")
	viper.AddConfigPath("../")
	viper.AddConfigPath("./etc")

	setDefaults(viper.GetViper())

	// 环境变量支持 (例如 withdrawal.activation_code -> WITHDRAWAL_ACTIVATION_CODE)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "BluePay")
	v.SetDefault("app.currency", "NGN")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.stdout", false)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/bluepay.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("user_jwt.secret", "user-change-me-in-production")
	v.SetDefault("user_jwt.expire_hours", 24)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "bp")
	v.SetDefault("redis.balance_ttl_seconds", 60)
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("storage.bucket_url", "")
	v.SetDefault("storage.root", "./uploads")
	v.SetDefault("storage.link_secret", "proof-link-change-me-in-production")
	v.SetDefault("storage.link_ttl_seconds", 86400)
	v.SetDefault("storage.public_base_url", "")
	v.SetDefault("storage.max_size", 5*1024*1024)
	v.SetDefault("storage.allowed_types", []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
	})
	v.SetDefault("storage.max_width", 8192)
	v.SetDefault("storage.max_height", 8192)
	v.SetDefault("storage.orphan_scan_minutes", 30)
	v.SetDefault("withdrawal.activation_code", "")
	v.SetDefault("withdrawal.earnings.min_amount", 100000)
	v.SetDefault("withdrawal.earnings.max_amount", 0)
	v.SetDefault("withdrawal.earnings.fee", 13450)
	v.SetDefault("withdrawal.earnings.require_code", false)
	v.SetDefault("withdrawal.wallet.min_amount", 100)
	v.SetDefault("withdrawal.wallet.max_amount", 10000000)
	v.SetDefault("withdrawal.wallet.fee", 0)
	v.SetDefault("withdrawal.wallet.require_code", true)
	v.SetDefault("withdrawal.payee_bank_name", "")
	v.SetDefault("withdrawal.payee_account", "")
	v.SetDefault("withdrawal.payee_name", "")
	v.SetDefault("referral.default_rate", 15000)
	v.SetDefault("referral.code_length", 8)
	v.SetDefault("upgrade.fee", 15000)
	v.SetDefault("upgrade.new_rate", 15000)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay_ms", 100)
	v.SetDefault("retry.timeout_ms", 5000)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Accept-Language",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.rate_limit.window_seconds", 60)
	v.SetDefault("security.rate_limit.auth_max_requests", 10)
	v.SetDefault("security.rate_limit.submit_max_requests", 5)
	v.SetDefault("security.password_policy.min_length", 8)
	v.SetDefault("security.password_policy.require_upper", true)
	v.SetDefault("security.password_policy.require_lower", true)
	v.SetDefault("security.password_policy.require_number", true)
	v.SetDefault("security.password_policy.require_special", false)
	v.SetDefault("notify.telegram_enabled", false)
	v.SetDefault("notify.telegram_bot_token", "")
	v.SetDefault("notify.telegram_chat_id", 0)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("bootstrap.admin_email", "")
	v.SetDefault("bootstrap.admin_password", "")
}
