package admin

import (
	"errors"
	"time"

	handlershared "github.com/bluepay/internal/http/handlers/shared"
	"github.com/bluepay/internal/http/response"
	"github.com/bluepay/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	if handlershared.RespondKeyedError(c, err) {
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			var logErr error
			if rule.code >= response.CodeInternal {
				logErr = err
			}
			respondError(c, rule.code, rule.key, logErr)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var persistenceErrorRules = []mappedHandlerError{
	{target: service.ErrPersistence, code: response.CodeInternal, key: "error.persistence_failed"},
}

var withdrawalReviewErrorRules = append([]mappedHandlerError{
	{target: service.ErrWithdrawalNotFound, code: response.CodeNotFound, key: "error.withdrawal_not_found"},
	{target: service.ErrWithdrawalStatusInvalid, code: response.CodeConflict, key: "error.withdrawal_status_invalid"},
	{target: service.ErrConsistency, code: response.CodeInternal, key: "error.withdrawal_consistency"},
}, persistenceErrorRules...)

var upgradeReviewErrorRules = append([]mappedHandlerError{
	{target: service.ErrUpgradeNotFound, code: response.CodeNotFound, key: "error.upgrade_not_found"},
	{target: service.ErrUpgradeStatusInvalid, code: response.CodeConflict, key: "error.upgrade_status_invalid"},
	{target: service.ErrProfileNotFound, code: response.CodeNotFound, key: "error.profile_not_found"},
}, persistenceErrorRules...)

var reconciliationErrorRules = append([]mappedHandlerError{
	{target: service.ErrReconciliationNotFound, code: response.CodeNotFound, key: "error.reconciliation_not_found"},
	{target: service.ErrReconciliationResolved, code: response.CodeConflict, key: "error.reconciliation_resolved"},
	{target: service.ErrStorage, code: response.CodeServiceUnavailable, key: "error.proof_storage_failed"},
}, persistenceErrorRules...)

var roleErrorRules = append([]mappedHandlerError{
	{target: service.ErrUserNotFound, code: response.CodeNotFound, key: "error.user_not_found"},
	{target: service.ErrForbidden, code: response.CodeForbidden, key: "error.role_self_revoke_forbidden"},
}, persistenceErrorRules...)

var userStatusErrorRules = append([]mappedHandlerError{
	{target: service.ErrUserNotFound, code: response.CodeNotFound, key: "error.user_not_found"},
	{target: service.ErrForbidden, code: response.CodeForbidden, key: "error.user_self_disable_forbidden"},
}, persistenceErrorRules...)

var walletAdjustErrorRules = append([]mappedHandlerError{
	{target: service.ErrUserNotFound, code: response.CodeNotFound, key: "error.user_not_found"},
	{target: service.ErrWalletInsufficientBalance, code: response.CodeBadRequest, key: "error.wallet_insufficient_balance"},
	{target: service.ErrWalletAccountNotFound, code: response.CodeNotFound, key: "error.wallet_account_not_found"},
}, persistenceErrorRules...)
