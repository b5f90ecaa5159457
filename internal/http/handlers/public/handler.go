package public

import (
	"github.com/bluepay/internal/config"
	"github.com/bluepay/internal/provider"
	"github.com/bluepay/internal/service"
)

// Handler 用户侧与公开接口处理器
type Handler struct {
	Config            *config.Config
	UserAuthService   *service.UserAuthService
	ReferralService   *service.ReferralService
	WithdrawalService *service.WithdrawalService
	UpgradeService    *service.UpgradeService
	WalletService     *service.WalletService
	ProofService      *service.ProofService
}

// New 从容器装配用户侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{
		Config:            c.Config,
		UserAuthService:   c.UserAuthService,
		ReferralService:   c.ReferralService,
		WithdrawalService: c.WithdrawalService,
		UpgradeService:    c.UpgradeService,
		WalletService:     c.WalletService,
		ProofService:      c.ProofService,
	}
}
