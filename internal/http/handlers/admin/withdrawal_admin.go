package admin

import (
	"strings"

	"github.com/bluepay/internal/constants"
	"github.com/bluepay/internal/http/response"
	"github.com/bluepay/internal/repository"
	"github.com/bluepay/internal/service"

	"github.com/gin-gonic/gin"
)

// ReviewWithdrawalRequest 提现审核请求
type ReviewWithdrawalRequest struct {
	Note string `json:"note"`
}

// ListWithdrawals 管理端提现申请列表
func (h *Handler) ListWithdrawals(c *gin.Context) {
	page, pageSize := parsePageQuery(c)

	status := constants.WithdrawalStatus(strings.ToLower(strings.TrimSpace(c.Query("status"))))
	if status != "" && !status.Valid() {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	userID, err := parseQueryUint(c.Query("user_id"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.user_id_invalid", nil)
		return
	}
	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	rows, total, err := h.WithdrawalService.ListAdmin(c.Request.Context(), repository.WithdrawalListFilter{
		Page:        page,
		PageSize:    pageSize,
		UserID:      userID,
		Status:      status,
		Keyword:     strings.TrimSpace(c.Query("keyword")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.withdrawal_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// GetWithdrawal 管理端提现申请详情
func (h *Handler) GetWithdrawal(c *gin.Context) {
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	view, err := h.WithdrawalService.GetDetail(c.Request.Context(), id)
	if err != nil {
		respondWithMappedError(c, err, withdrawalReviewErrorRules, response.CodeInternal, "error.withdrawal_fetch_failed")
		return
	}
	response.Success(c, view)
}

// GetWithdrawalStats 各状态提现申请数量
func (h *Handler) GetWithdrawalStats(c *gin.Context) {
	counts, err := h.WithdrawalService.CountByStatus(c.Request.Context())
	if err != nil {
		respondError(c, response.CodeInternal, "error.withdrawal_fetch_failed", err)
		return
	}
	stats := gin.H{}
	for _, status := range []constants.WithdrawalStatus{
		constants.WithdrawalStatusPending,
		constants.WithdrawalStatusUnderReview,
		constants.WithdrawalStatusApproved,
		constants.WithdrawalStatusRejected,
	} {
		stats[string(status)] = counts[status]
	}
	response.Success(c, stats)
}

// ApproveWithdrawal 审核通过提现申请
func (h *Handler) ApproveWithdrawal(c *gin.Context) {
	h.reviewWithdrawal(c, constants.WithdrawalActionApprove)
}

// RejectWithdrawal 驳回提现申请
func (h *Handler) RejectWithdrawal(c *gin.Context) {
	h.reviewWithdrawal(c, constants.WithdrawalActionReject)
}

func (h *Handler) reviewWithdrawal(c *gin.Context, action string) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req ReviewWithdrawalRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
	}
	input := service.ReviewWithdrawalInput{
		AdminID:   adminID,
		RequestID: id,
		Note:      strings.TrimSpace(req.Note),
	}

	var err error
	switch action {
	case constants.WithdrawalActionApprove:
		_, err = h.WithdrawalService.Approve(c.Request.Context(), input)
	default:
		_, err = h.WithdrawalService.Reject(c.Request.Context(), input)
	}
	if err != nil {
		respondWithMappedError(c, err, withdrawalReviewErrorRules, response.CodeInternal, "error.withdrawal_review_failed")
		return
	}
	view, err := h.WithdrawalService.GetDetail(c.Request.Context(), id)
	if err != nil {
		respondWithMappedError(c, err, withdrawalReviewErrorRules, response.CodeInternal, "error.withdrawal_fetch_failed")
		return
	}
	response.Success(c, view)
}
