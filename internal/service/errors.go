package service

import (
	"errors"
	"fmt"
)

// 校验类错误
var (
	ErrValidation               = errors.New("参数校验失败")
	ErrWithdrawalAmountBelowMin = errors.New("提现金额低于最低限额")
	ErrWithdrawalAmountAboveMax = errors.New("提现金额超过最高限额")
	ErrProofRequired            = errors.New("缺少付款凭证")
	ErrProofInvalid             = errors.New("付款凭证格式无效")
	ErrProofTooLarge            = errors.New("付款凭证超过大小限制")
	ErrWeakPassword             = errors.New("密码强度不足")
	ErrInvalidEmail             = errors.New("邮箱格式无效")
	ErrInvalidAmount            = errors.New("金额无效")
)

// 激活码错误
var ErrInvalidCode = errors.New("激活码无效")

// 鉴权类错误
var (
	ErrForbidden          = errors.New("无权执行该操作")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrUserDisabled       = errors.New("用户已被禁用")
	ErrUserNotFound       = errors.New("用户不存在")
)

// 重复状态类错误
var (
	ErrDuplicatePendingRequest = errors.New("已存在未完成的提现申请")
	ErrUpgradePending          = errors.New("已存在待审核的升级申请")
	ErrAlreadyUpgraded         = errors.New("账户已升级")
	ErrEmailExists             = errors.New("邮箱已被注册")
)

// 状态类错误
var (
	ErrWithdrawalStatusInvalid   = errors.New("提现申请状态不允许该操作")
	ErrWithdrawalNotFound        = errors.New("提现申请不存在")
	ErrUpgradeStatusInvalid      = errors.New("升级申请状态不允许该操作")
	ErrUpgradeNotFound           = errors.New("升级申请不存在")
	ErrProfileNotFound           = errors.New("推荐档案不存在")
	ErrInsufficientEarnings      = errors.New("推荐收益不足")
	ErrWalletAccountNotFound     = errors.New("钱包账户不存在")
	ErrWalletInsufficientBalance = errors.New("钱包余额不足")
	ErrReconciliationNotFound    = errors.New("对账事项不存在")
	ErrReconciliationResolved    = errors.New("对账事项已处理")
)

// 基础设施类错误
var (
	ErrStorage          = errors.New("凭证存储失败")
	ErrPersistence      = errors.New("数据写入失败，请稍后重试")
	ErrConsistency      = errors.New("数据不一致，已记录待对账")
	ErrQueueUnavailable = errors.New("任务队列不可用")
)

// 推荐奖励软失败错误
var (
	ErrReferralCodeInvalid     = errors.New("推荐码无效")
	ErrReferralSelf            = errors.New("不能使用自己的推荐码")
	ErrReferralAlreadyCredited = errors.New("该用户已发放过推荐奖励")
)

// ValidationError 字段级校验错误
type ValidationError struct {
	Field string
	Key   string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("字段 %s 校验失败: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("字段 %s 校验失败: %s", e.Field, e.Key)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is 归类为 ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newValidationError(field, key string) error {
	return &ValidationError{Field: field, Key: key}
}

func newValidationErrorWith(field, key string, cause error) error {
	return &ValidationError{Field: field, Key: key, Err: cause}
}

// StorageError 对象存储操作错误
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("存储操作 %s 失败 (%s): %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is 归类为 ErrStorage
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// ConsistencyError 审核状态与账本不一致
type ConsistencyError struct {
	WithdrawalID     uint
	ReconciliationID uint
	Err              error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("提现申请 %d 扣款失败 (对账事项 %d): %v", e.WithdrawalID, e.ReconciliationID, e.Err)
}

func (e *ConsistencyError) Unwrap() error {
	return e.Err
}

// Is 归类为 ErrConsistency
func (e *ConsistencyError) Is(target error) bool {
	return target == ErrConsistency
}

// wrapPersistence 将存储层错误归类为 ErrPersistence，保留原始错误链
func wrapPersistence(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}
