package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"github.com/bluepay/internal/config"
	"github.com/bluepay/internal/constants"
	"github.com/bluepay/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	accountNumberLength  = 10
	accountNameMinLength = 3
	accountNameMaxLength = 100
	bankNameMinLength    = 3
	bankNameMaxLength    = 120

	amountMaxInputLength = 24
	amountMaxExponent    = 12
	amountMinExponent    = -8
	amountMaxDigits      = 20
)

// WithdrawalInput 提现申请原始输入
type WithdrawalInput struct {
	Flow             constants.WithdrawalFlow
	BankName         string
	AccountName      string
	AccountNumber    string
	WithdrawalAmount decimal.Decimal
	ActivationCode   string
}

// ValidatedWithdrawal 校验通过的规范化提现参数
type ValidatedWithdrawal struct {
	Flow             constants.WithdrawalFlow
	BankName         string
	AccountName      string
	AccountNumber    string
	WithdrawalAmount decimal.Decimal
	Fee              decimal.Decimal
}

// FeeGate 提现前置校验（门槛、账户格式、激活码、未完成申请）
type FeeGate struct {
	cfg  config.WithdrawalConfig
	repo repository.WithdrawalRepository
}

// NewFeeGate 创建提现前置校验器
func NewFeeGate(cfg config.WithdrawalConfig, repo repository.WithdrawalRepository) *FeeGate {
	return &FeeGate{cfg: cfg, repo: repo}
}

// FlowConfig 返回流程配置
func (g *FeeGate) FlowConfig(flow constants.WithdrawalFlow) (config.WithdrawalFlowConfig, bool) {
	switch flow {
	case constants.WithdrawalFlowEarnings:
		return g.cfg.Earnings, true
	case constants.WithdrawalFlowWallet:
		return g.cfg.Wallet, true
	}
	return config.WithdrawalFlowConfig{}, false
}

// ValidateFields 同步校验输入，返回第一个违反的规则，不做任何读写
func (g *FeeGate) ValidateFields(input WithdrawalInput) (*ValidatedWithdrawal, error) {
	flowCfg, ok := g.FlowConfig(input.Flow)
	if !ok {
		return nil, newValidationError("flow", "error.withdrawal_flow_invalid")
	}

	accountNumber := strings.TrimSpace(input.AccountNumber)
	if !isDigits(accountNumber, accountNumberLength) {
		return nil, newValidationError("account_number", "error.withdrawal_account_number_invalid")
	}

	accountName := strings.Join(strings.Fields(input.AccountName), " ")
	if !isAccountName(accountName) {
		return nil, newValidationError("account_name", "error.withdrawal_account_name_invalid")
	}

	bankName := strings.TrimSpace(input.BankName)
	minBank := 1
	if input.Flow == constants.WithdrawalFlowEarnings {
		minBank = bankNameMinLength
	}
	if n := len([]rune(bankName)); n < minBank || n > bankNameMaxLength {
		return nil, newValidationError("bank_name", "error.withdrawal_bank_name_invalid")
	}

	if !amountWithinBounds(input.WithdrawalAmount) {
		return nil, newValidationErrorWith("withdrawal_amount", "error.withdrawal_amount_invalid", ErrInvalidAmount)
	}
	amount := input.WithdrawalAmount.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, newValidationErrorWith("withdrawal_amount", "error.withdrawal_amount_invalid", ErrInvalidAmount)
	}
	if amount.LessThan(flowCfg.Min()) {
		return nil, newValidationErrorWith("withdrawal_amount", "error.withdrawal_amount_below_min", ErrWithdrawalAmountBelowMin)
	}
	if maxAmount := flowCfg.Max(); maxAmount.GreaterThan(decimal.Zero) && amount.GreaterThan(maxAmount) {
		return nil, newValidationErrorWith("withdrawal_amount", "error.withdrawal_amount_above_max", ErrWithdrawalAmountAboveMax)
	}

	if flowCfg.RequireCode && !g.codeMatches(input.ActivationCode) {
		return nil, ErrInvalidCode
	}

	return &ValidatedWithdrawal{
		Flow:             input.Flow,
		BankName:         bankName,
		AccountName:      accountName,
		AccountNumber:    accountNumber,
		WithdrawalAmount: amount,
		Fee:              flowCfg.FeeAmount(),
	}, nil
}

// Validate 校验输入并检查用户是否已有未完成的提现申请
func (g *FeeGate) Validate(ctx context.Context, userID uint, input WithdrawalInput) (*ValidatedWithdrawal, error) {
	validated, err := g.ValidateFields(input)
	if err != nil {
		return nil, err
	}
	if input.Flow != constants.WithdrawalFlowEarnings || g.repo == nil {
		return validated, nil
	}
	active, err := g.repo.WithContext(ctx).GetActiveByUser(userID)
	if err != nil {
		return nil, wrapPersistence(err)
	}
	if active != nil {
		return nil, ErrDuplicatePendingRequest
	}
	return validated, nil
}

// ParseAmount 解析金额文本，拒绝科学计数法与超长输入
func ParseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > amountMaxInputLength || strings.ContainsAny(raw, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if !amountWithinBounds(amount) {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

// amountWithinBounds 指数与位数须在窗口内，Round 与比较会按指数展开系数
func amountWithinBounds(amount decimal.Decimal) bool {
	exp := amount.Exponent()
	if exp > amountMaxExponent || exp < amountMinExponent {
		return false
	}
	return amount.NumDigits() <= amountMaxDigits
}

func (g *FeeGate) codeMatches(code string) bool {
	expected := strings.TrimSpace(g.cfg.ActivationCode)
	code = strings.TrimSpace(code)
	if expected == "" || code == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(code), []byte(expected)) == 1
}

func isDigits(value string, length int) bool {
	if len(value) != length {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}

func isAccountName(value string) bool {
	if len(value) < accountNameMinLength || len(value) > accountNameMaxLength {
		return false
	}
	for _, r := range value {
		if r == ' ' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		return false
	}
	return true
}
