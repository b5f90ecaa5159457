package main

import (
	"context"
	"flag"
	"strings"
	"time"

	"github.com/bluepay/internal/config"
	"github.com/bluepay/internal/logger"
	"github.com/bluepay/internal/models"
	"github.com/bluepay/internal/provider"
	"github.com/bluepay/internal/service"
)

func main() {
	var demo bool
	flag.BoolVar(&demo, "demo", false, "同时写入演示推荐人账户（含推荐收益）")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, false, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	container := provider.NewContainer(cfg)
	defer container.Close()
	ctx := context.Background()

	// 初始管理员
	email := strings.TrimSpace(cfg.Bootstrap.AdminEmail)
	password := cfg.Bootstrap.AdminPassword
	if email == "" || password == "" {
		stdLog.Printf("bootstrap.admin_email / bootstrap.admin_password 未配置，跳过管理员初始化")
	} else {
		adminID, err := ensureUser(ctx, container, email, password, "BluePay Admin")
		if err != nil {
			stdLog.Fatalf("Failed to create admin user: %v", err)
		}
		if err := container.AuthzService.BootstrapAdmin(adminID); err != nil {
			stdLog.Fatalf("Failed to grant admin role: %v", err)
		}
		stdLog.Printf("Admin ready: %s (id=%d)", email, adminID)
	}

	if !demo {
		return
	}

	// 演示推荐人：推荐收益 150,000
	demoID, err := ensureUser(ctx, container, "referrer@bluepay.local", "Referrer#2024", "Demo Referrer")
	if err != nil {
		stdLog.Fatalf("Failed to create demo user: %v", err)
	}
	if err := container.ProfileRepo.UpdateEarnings(demoID, models.NewMoneyFromInt(150000), time.Now()); err != nil {
		stdLog.Fatalf("Failed to set demo earnings: %v", err)
	}
	profile, err := container.ProfileRepo.GetByUserID(demoID)
	if err != nil || profile == nil {
		stdLog.Fatalf("Failed to load demo profile: %v", err)
	}
	stdLog.Printf("Demo referrer ready: referrer@bluepay.local (id=%d, referral_code=%s)", demoID, profile.ReferralCode)
}

func ensureUser(ctx context.Context, container *provider.Container, email, password, fullName string) (uint, error) {
	normalized, err := service.NormalizeEmail(email)
	if err != nil {
		return 0, err
	}
	existing, err := container.UserRepo.GetByEmail(normalized)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}
	result, err := container.UserAuthService.Register(ctx, service.RegisterInput{
		Email:    email,
		Password: password,
		FullName: fullName,
	})
	if err != nil {
		return 0, err
	}
	return result.User.ID, nil
}
