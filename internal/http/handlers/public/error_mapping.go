package public

import (
	"errors"

	handlershared "github.com/bluepay/internal/http/handlers/shared"
	"github.com/bluepay/internal/http/response"
	"github.com/bluepay/internal/service"

	"github.com/gin-gonic/gin"
)

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

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var infrastructureErrorRules = []mappedHandlerError{
	{target: service.ErrStorage, code: response.CodeServiceUnavailable, key: "error.proof_storage_failed"},
	{target: service.ErrPersistence, code: response.CodeInternal, key: "error.persistence_failed"},
}

var proofErrorRules = []mappedHandlerError{
	{target: service.ErrProofRequired, code: response.CodeBadRequest, key: "error.proof_required"},
	{target: service.ErrProofTooLarge, code: response.CodeBadRequest, key: "error.proof_too_large"},
	{target: service.ErrProofInvalid, code: response.CodeBadRequest, key: "error.proof_invalid"},
}

var withdrawalSubmitErrorRules = concatMappedHandlerErrors([]mappedHandlerError{
	{target: service.ErrInvalidCode, code: response.CodeBadRequest, key: "error.withdrawal_code_invalid"},
	{target: service.ErrDuplicatePendingRequest, code: response.CodeConflict, key: "error.withdrawal_duplicate_pending"},
	{target: service.ErrInsufficientEarnings, code: response.CodeBadRequest, key: "error.withdrawal_insufficient_earnings"},
	{target: service.ErrProfileNotFound, code: response.CodeNotFound, key: "error.profile_not_found"},
}, proofErrorRules, infrastructureErrorRules)

var upgradeSubmitErrorRules = concatMappedHandlerErrors([]mappedHandlerError{
	{target: service.ErrAlreadyUpgraded, code: response.CodeConflict, key: "error.upgrade_already_upgraded"},
	{target: service.ErrUpgradePending, code: response.CodeConflict, key: "error.upgrade_pending"},
	{target: service.ErrProfileNotFound, code: response.CodeNotFound, key: "error.profile_not_found"},
}, proofErrorRules, infrastructureErrorRules)

var walletWithdrawErrorRules = concatMappedHandlerErrors([]mappedHandlerError{
	{target: service.ErrInvalidCode, code: response.CodeBadRequest, key: "error.withdrawal_code_invalid"},
	{target: service.ErrWalletInsufficientBalance, code: response.CodeBadRequest, key: "error.wallet_insufficient_balance"},
	{target: service.ErrWalletAccountNotFound, code: response.CodeNotFound, key: "error.wallet_account_not_found"},
}, infrastructureErrorRules)

var registerErrorRules = concatMappedHandlerErrors([]mappedHandlerError{
	{target: service.ErrInvalidEmail, code: response.CodeBadRequest, key: "error.email_invalid"},
	{target: service.ErrWeakPassword, code: response.CodeBadRequest, key: "error.password_weak"},
	{target: service.ErrEmailExists, code: response.CodeConflict, key: "error.email_exists"},
}, infrastructureErrorRules)

var loginErrorRules = concatMappedHandlerErrors([]mappedHandlerError{
	{target: service.ErrInvalidEmail, code: response.CodeUnauthorized, key: "error.login_invalid"},
	{target: service.ErrInvalidCredentials, code: response.CodeUnauthorized, key: "error.login_invalid"},
	{target: service.ErrUserDisabled, code: response.CodeUnauthorized, key: "error.user_disabled"},
}, infrastructureErrorRules)

var profileErrorRules = concatMappedHandlerErrors([]mappedHandlerError{
	{target: service.ErrUserNotFound, code: response.CodeNotFound, key: "error.user_not_found"},
	{target: service.ErrProfileNotFound, code: response.CodeNotFound, key: "error.profile_not_found"},
}, infrastructureErrorRules)
