package admin

import (
	"strings"

	"github.com/bluepay/internal/constants"
	"github.com/bluepay/internal/http/response"
	"github.com/bluepay/internal/repository"
	"github.com/bluepay/internal/service"

	"github.com/gin-gonic/gin"
)

// ReviewUpgradeRequest 升级审核请求
type ReviewUpgradeRequest struct {
	Action string `json:"action" binding:"required"` // confirm/reject
}

// ListUpgrades 管理端升级申请列表
func (h *Handler) ListUpgrades(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	userID, err := parseQueryUint(c.Query("user_id"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.user_id_invalid", nil)
		return
	}
	status := strings.ToLower(strings.TrimSpace(c.Query("payment_status")))
	switch status {
	case "", constants.UpgradePaymentStatusPending, constants.UpgradePaymentStatusConfirmed, constants.UpgradePaymentStatusRejected:
	default:
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	rows, total, err := h.UpgradeService.List(c.Request.Context(), repository.UpgradeListFilter{
		Page:          page,
		PageSize:      pageSize,
		UserID:        userID,
		PaymentStatus: status,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.upgrade_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// ReviewUpgrade 确认或驳回升级付款
func (h *Handler) ReviewUpgrade(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req ReviewUpgradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	upgrade, err := h.UpgradeService.Review(c.Request.Context(), service.ReviewUpgradeInput{
		AdminID:   adminID,
		UpgradeID: id,
		Action:    req.Action,
	})
	if err != nil {
		respondWithMappedError(c, err, upgradeReviewErrorRules, response.CodeInternal, "error.upgrade_review_failed")
		return
	}
	response.Success(c, upgrade)
}
