package admin

import (
	"github.com/bluepay/internal/provider"
	"github.com/bluepay/internal/repository"
	"github.com/bluepay/internal/service"
)

// Handler 管理端接口处理器，仅持有审核与运维所需的服务
type Handler struct {
	UserRepo              repository.UserRepository
	WithdrawalService     *service.WithdrawalService
	UpgradeService        *service.UpgradeService
	ReconciliationService *service.ReconciliationService
	RoleService           *service.RoleService
	WalletService         *service.WalletService
	UserAuthService       *service.UserAuthService
}

// New 从容器装配管理端处理器
func New(c *provider.Container) *Handler {
	return &Handler{
		UserRepo:              c.UserRepo,
		WithdrawalService:     c.WithdrawalService,
		UpgradeService:        c.UpgradeService,
		ReconciliationService: c.ReconciliationService,
		RoleService:           c.RoleService,
		WalletService:         c.WalletService,
		UserAuthService:       c.UserAuthService,
	}
}
