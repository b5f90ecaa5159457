package public

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/bluepay/internal/constants"
	"github.com/bluepay/internal/http/response"
	"github.com/bluepay/internal/service"

	"github.com/gin-gonic/gin"
)

// SubmitWithdrawalForm 推荐收益提现表单（multipart）
type SubmitWithdrawalForm struct {
	BankName         string `form:"bank_name"`
	AccountName      string `form:"account_name"`
	AccountNumber    string `form:"account_number"`
	WithdrawalAmount string `form:"withdrawal_amount"`
	ActivationCode   string `form:"activation_code"`
}

// SubmitWithdrawal 提交推荐收益提现申请（含付款凭证）
func (h *Handler) SubmitWithdrawal(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var form SubmitWithdrawalForm
	if err := c.ShouldBind(&form); err != nil {
		if isBodyTooLarge(err) {
			respondError(c, response.CodeBadRequest, "error.proof_too_large", nil)
			return
		}
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	amount, err := service.ParseAmount(form.WithdrawalAmount)
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.withdrawal_amount_invalid", nil)
		return
	}
	proof, closeProof, ok := openProofFile(c)
	if !ok {
		return
	}
	defer closeProof()

	view, err := h.WithdrawalService.SubmitEarningsWithdrawal(c.Request.Context(), uid, service.WithdrawalInput{
		Flow:             constants.WithdrawalFlowEarnings,
		BankName:         form.BankName,
		AccountName:      form.AccountName,
		AccountNumber:    form.AccountNumber,
		WithdrawalAmount: amount,
		ActivationCode:   form.ActivationCode,
	}, proof)
	if err != nil {
		respondWithMappedError(c, err, withdrawalSubmitErrorRules, response.CodeInternal, "error.withdrawal_submit_failed")
		return
	}
	response.Success(c, view)
}

// ListMyWithdrawals 当前用户提现记录
func (h *Handler) ListMyWithdrawals(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := parsePageQuery(c)
	rows, total, err := h.WithdrawalService.ListMine(c.Request.Context(), uid, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.withdrawal_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// GetActiveWithdrawal 当前用户未完成的提现申请（无则为 null）
func (h *Handler) GetActiveWithdrawal(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	view, err := h.WithdrawalService.GetActive(c.Request.Context(), uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.withdrawal_fetch_failed", err)
		return
	}
	response.Success(c, view)
}

// openProofFile 读取 multipart 的 screenshot 字段
func openProofFile(c *gin.Context) (*service.ProofFile, func(), bool) {
	header, err := c.FormFile("screenshot")
	if err != nil {
		if isBodyTooLarge(err) {
			respondError(c, response.CodeBadRequest, "error.proof_too_large", nil)
			return nil, nil, false
		}
		respondError(c, response.CodeBadRequest, "error.proof_required", nil)
		return nil, nil, false
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.proof_invalid", err)
		return nil, nil, false
	}
	return &service.ProofFile{Content: file, Size: header.Size}, func() { closeMultipartFile(file) }, true
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func closeMultipartFile(file multipart.File) {
	if file != nil {
		_ = file.Close()
	}
}
