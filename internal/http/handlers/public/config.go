package public

import (
	"github.com/bluepay/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetWithdrawalConfig 公开的提现门槛、手续费与收款账户（不含激活码）
func (h *Handler) GetWithdrawalConfig(c *gin.Context) {
	cfg := h.Config
	response.Success(c, gin.H{
		"currency": cfg.App.Currency,
		"earnings": gin.H{
			"min_amount": cfg.Withdrawal.Earnings.Min().StringFixed(2),
			"max_amount": cfg.Withdrawal.Earnings.Max().StringFixed(2),
			"fee":        cfg.Withdrawal.Earnings.FeeAmount().StringFixed(2),
		},
		"wallet": gin.H{
			"min_amount":    cfg.Withdrawal.Wallet.Min().StringFixed(2),
			"max_amount":    cfg.Withdrawal.Wallet.Max().StringFixed(2),
			"fee":           cfg.Withdrawal.Wallet.FeeAmount().StringFixed(2),
			"code_required": cfg.Withdrawal.Wallet.RequireCode,
		},
		"upgrade": gin.H{
			"fee":      cfg.Upgrade.FeeAmount().StringFixed(2),
			"new_rate": cfg.Upgrade.Rate().StringFixed(2),
		},
		"referral_rate": cfg.Referral.Rate().StringFixed(2),
		"payee": gin.H{
			"bank_name":      cfg.Withdrawal.PayeeBankName,
			"account_number": cfg.Withdrawal.PayeeAccount,
			"account_name":   cfg.Withdrawal.PayeeName,
		},
	})
}
