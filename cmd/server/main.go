package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/bluepay/internal/app"
	"github.com/bluepay/internal/config"
	"github.com/bluepay/internal/logger"
	"github.com/bluepay/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiBlue  = "\033[34m"
	ansiCyan  = "\033[36m"
)

func main() {
	var (
		mode        string
		migrateOnly bool
	)
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.BoolVar(&migrateOnly, "migrate-only", false, "仅执行数据库迁移后退出")
	flag.Parse()

	printStartupBanner()

	// 加载配置
	cfg := config.Load()
	logOptions := cfg.Log.ToLoggerOptions()
	logOptions.Service = strings.ToLower(cfg.App.Name) + "-" + mode
	logger.Init(cfg.Server.Mode, logOptions)
	stdLog := logger.StdLogger()

	for name, secret := range map[string]string{
		"user_jwt.secret":     cfg.UserJWT.SecretKey,
		"storage.link_secret": cfg.Storage.LinkSecret,
	} {
		if !isWeakSecret(secret) {
			continue
		}
		if cfg.Server.Mode == "release" {
			stdLog.Fatalf("%s 过弱或仍为默认值，请在生产环境中配置强随机密钥", name)
		}
		stdLog.Printf("警告: %s 过弱或仍为默认值，建议在生产环境中更换", name)
	}
	if strings.TrimSpace(cfg.Withdrawal.ActivationCode) == "" {
		if cfg.Server.Mode == "release" {
			stdLog.Fatalf("withdrawal.activation_code 未配置")
		}
		stdLog.Printf("警告: withdrawal.activation_code 未配置，所有提现申请都会被拒绝")
	}

	// 初始化数据库
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Server.Mode == "debug", models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}

	// 执行版本化迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}
	if migrateOnly {
		stdLog.Printf("数据库迁移完成")
		return
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func printStartupBanner() {
	fmt.Println(ansiCyan + "██████╗ ██╗     ██╗   ██╗███████╗██████╗  █████╗ ██╗   ██╗" + ansiReset)
	fmt.Println(ansiCyan + "██╔══██╗██║     ██║   ██║██╔════╝██╔══██╗██╔══██╗╚██╗ ██╔╝" + ansiReset)
	fmt.Println(ansiCyan + "██████╔╝██║     ██║   ██║█████╗  ██████╔╝███████║ ╚████╔╝ " + ansiReset)
	fmt.Println(ansiCyan + "██╔══██╗██║     ██║   ██║██╔══╝  ██╔═══╝ ██╔══██║  ╚██╔╝  " + ansiReset)
	fmt.Println(ansiCyan + "██████╔╝███████╗╚██████╔╝███████╗██║     ██║  ██║   ██║   " + ansiReset)
	fmt.Println(ansiCyan + "╚═════╝ ╚══════╝ ╚═════╝ ╚══════╝╚═╝     ╚═╝  ╚═╝   ╚═╝   " + ansiReset)
	fmt.Println(ansiBlue + ansiBold + "Referral earnings & withdrawal API" + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------------" + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	if strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key") {
		return true
	}
	return false
}
