package public

import (
	"strings"

	"github.com/bluepay/internal/constants"
	"github.com/bluepay/internal/http/response"
	"github.com/bluepay/internal/repository"
	"github.com/bluepay/internal/service"

	"github.com/gin-gonic/gin"
)

// WalletWithdrawRequest 钱包提现到银行卡请求
type WalletWithdrawRequest struct {
	BankName       string `json:"bank_name"`
	AccountName    string `json:"account_name"`
	AccountNumber  string `json:"account_number"`
	Amount         string `json:"amount" binding:"required"`
	ActivationCode string `json:"activation_code"`
}

// GetMyWallet 获取当前用户余额
func (h *Handler) GetMyWallet(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	balance, err := h.WalletService.GetBalance(c.Request.Context(), uid)
	if err != nil {
		respondWithMappedError(c, err, profileErrorRules, response.CodeInternal, "error.wallet_fetch_failed")
		return
	}
	response.Success(c, balance)
}

// GetMyWalletTransactions 获取当前用户钱包流水
func (h *Handler) GetMyWalletTransactions(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := parsePageQuery(c)
	transactions, total, err := h.WalletService.ListTransactions(c.Request.Context(), repository.WalletTransactionListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Type:     strings.TrimSpace(c.Query("type")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.wallet_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, transactions, response.BuildPagination(page, pageSize, total))
}

// WithdrawWallet 钱包余额提现到银行卡
func (h *Handler) WithdrawWallet(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req WalletWithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	amount, err := service.ParseAmount(req.Amount)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.withdrawal_amount_invalid", nil)
		return
	}
	account, txn, err := h.WalletService.WithdrawToBank(c.Request.Context(), uid, service.WithdrawalInput{
		Flow:             constants.WithdrawalFlowWallet,
		BankName:         req.BankName,
		AccountName:      req.AccountName,
		AccountNumber:    req.AccountNumber,
		WithdrawalAmount: amount,
		ActivationCode:   req.ActivationCode,
	})
	if err != nil {
		respondWithMappedError(c, err, walletWithdrawErrorRules, response.CodeInternal, "error.wallet_withdraw_failed")
		return
	}
	response.Success(c, gin.H{
		"account":     account,
		"transaction": txn,
	})
}
