package admin

import (
	"strings"

	"github.com/bluepay/internal/http/response"
	"github.com/bluepay/internal/repository"
	"github.com/bluepay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AdminAdjustUserWalletRequest 管理端用户余额调整请求
type AdminAdjustUserWalletRequest struct {
	Amount    string `json:"amount" binding:"required"`
	Operation string `json:"operation"` // add/subtract
	Remark    string `json:"remark"`
}

// GetUserWallet 管理端获取用户钱包信息
func (h *Handler) GetUserWallet(c *gin.Context) {
	userID, ok := parsePathUint(c, "user_id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.user_id_invalid", nil)
		return
	}
	user, err := h.UserRepo.WithContext(c.Request.Context()).GetByID(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.user_fetch_failed", err)
		return
	}
	if user == nil {
		respondError(c, response.CodeNotFound, "error.user_not_found", nil)
		return
	}
	balance, err := h.WalletService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondWithMappedError(c, err, walletAdjustErrorRules, response.CodeInternal, "error.wallet_fetch_failed")
		return
	}
	response.Success(c, gin.H{
		"user":    user,
		"balance": balance,
	})
}

// GetUserWalletTransactions 管理端获取用户钱包流水
func (h *Handler) GetUserWalletTransactions(c *gin.Context) {
	userID, ok := parsePathUint(c, "user_id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.user_id_invalid", nil)
		return
	}
	page, pageSize := parsePageQuery(c)
	transactions, total, err := h.WalletService.ListTransactions(c.Request.Context(), repository.WalletTransactionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Type:     strings.TrimSpace(c.Query("type")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.wallet_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, transactions, response.BuildPagination(page, pageSize, total))
}

// AdjustUserWallet 管理端调整用户余额
func (h *Handler) AdjustUserWallet(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	userID, ok := parsePathUint(c, "user_id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.user_id_invalid", nil)
		return
	}
	var req AdminAdjustUserWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		respondError(c, response.CodeBadRequest, "error.wallet_amount_invalid", nil)
		return
	}
	switch strings.ToLower(strings.TrimSpace(req.Operation)) {
	case "", "add":
	case "subtract":
		amount = amount.Neg()
	default:
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	user, err := h.UserRepo.WithContext(c.Request.Context()).GetByID(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.user_fetch_failed", err)
		return
	}
	if user == nil {
		respondError(c, response.CodeNotFound, "error.user_not_found", nil)
		return
	}

	account, txn, err := h.WalletService.AdminAdjust(c.Request.Context(), service.WalletAdjustInput{
		OperatorID: adminID,
		UserID:     userID,
		Delta:      amount,
		Remark:     req.Remark,
	})
	if err != nil {
		respondWithMappedError(c, err, walletAdjustErrorRules, response.CodeInternal, "error.wallet_adjust_failed")
		return
	}
	response.Success(c, gin.H{
		"account":     account,
		"transaction": txn,
	})
}
