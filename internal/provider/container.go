package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/bluepay/internal/authz"
	"github.com/bluepay/internal/cache"
	"github.com/bluepay/internal/config"
	"github.com/bluepay/internal/logger"
	"github.com/bluepay/internal/models"
	"github.com/bluepay/internal/notify"
	"github.com/bluepay/internal/queue"
	"github.com/bluepay/internal/repository"
	"github.com/bluepay/internal/service"
	"github.com/bluepay/internal/storage"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	BlobStore   *storage.BucketStore

	// Repositories
	UserRepo           repository.UserRepository
	ProfileRepo        repository.ProfileRepository
	WithdrawalRepo     repository.WithdrawalRepository
	UpgradeRepo        repository.UpgradeRepository
	WalletRepo         repository.WalletRepository
	ReconciliationRepo repository.ReconciliationRepository
	RoleAuditLogRepo   repository.RoleAuditLogRepository

	// Services
	AuthzService          *authz.Service
	Retrier               *service.Retrier
	FeeGate               *service.FeeGate
	ProofService          *service.ProofService
	WithdrawalService     *service.WithdrawalService
	ReferralService       *service.ReferralService
	UpgradeService        *service.UpgradeService
	WalletService         *service.WalletService
	RoleService           *service.RoleService
	UserAuthService       *service.UserAuthService
	ReconciliationService *service.ReconciliationService
	NotificationService   *service.NotificationService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	blobStore, err := openBlobStore(cfg.Storage)
	if err != nil {
		logger.Errorw("provider_init_blob_store_failed", "bucket_url", cfg.Storage.BucketURL, "root", cfg.Storage.Root, "error", err)
		panic(err)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		BlobStore:   blobStore,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ProfileRepo = repository.NewProfileRepository(db)
	c.WithdrawalRepo = repository.NewWithdrawalRepository(db)
	c.UpgradeRepo = repository.NewUpgradeRepository(db)
	c.WalletRepo = repository.NewWalletRepository(db)
	c.ReconciliationRepo = repository.NewReconciliationRepository(db)
	c.RoleAuditLogRepo = repository.NewRoleAuditLogRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	cfg := c.Config
	c.Retrier = service.NewRetrier(cfg.Retry)
	c.FeeGate = service.NewFeeGate(cfg.Withdrawal, c.WithdrawalRepo)
	c.ProofService = service.NewProofService(cfg.Storage, c.BlobStore, c.ReconciliationRepo, c.QueueClient, c.Retrier)
	c.WithdrawalService = service.NewWithdrawalService(c.FeeGate, c.WithdrawalRepo, c.ProfileRepo, c.ReconciliationRepo, c.ProofService, c.QueueClient, c.Retrier)
	c.ReferralService = service.NewReferralService(cfg.Referral, c.ProfileRepo, c.Retrier)
	c.UpgradeService = service.NewUpgradeService(cfg.Upgrade, c.UpgradeRepo, c.ProfileRepo, c.ProofService, c.QueueClient, c.Retrier)
	c.WalletService = service.NewWalletService(cfg, c.FeeGate, c.WalletRepo, c.ProfileRepo, c.Retrier)
	c.RoleService = service.NewRoleService(c.AuthzService, c.UserRepo, c.RoleAuditLogRepo)
	c.UserAuthService = service.NewUserAuthService(cfg, c.UserRepo, c.ProfileRepo, c.WalletRepo, c.ReferralService, c.WalletService, c.RoleService)
	c.ReconciliationService = service.NewReconciliationService(c.ReconciliationRepo, c.WithdrawalRepo, c.UpgradeRepo, c.ProofService)

	var sender notify.Sender = notify.LogSender{}
	telegram, err := notify.NewTelegramSender(cfg.Notify)
	switch {
	case err == nil:
		sender = telegram
	case !errors.Is(err, notify.ErrTelegramDisabled):
		logger.Warnw("provider_init_telegram_failed", "error", err)
	}
	c.NotificationService = service.NewNotificationService(sender, c.WithdrawalRepo, c.UpgradeRepo, c.UserRepo, cfg.App.Currency)
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
	if c.BlobStore != nil {
		if err := c.BlobStore.Close(); err != nil {
			logger.Warnw("provider_close_blob_store_failed", "error", err)
		}
	}
}

// openBlobStore 配置了 bucket_url 时按 URL 打开存储桶，否则使用本地目录
func openBlobStore(cfg config.StorageConfig) (*storage.BucketStore, error) {
	signer := storage.NewLinkSigner(cfg.LinkSecret, cfg.PublicBaseURL)
	if strings.TrimSpace(cfg.BucketURL) != "" {
		return storage.OpenBucketStore(context.Background(), cfg.BucketURL, signer)
	}
	return storage.OpenLocalStore(cfg.Root, signer)
}
