package public

import (
	"github.com/bluepay/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetMyReferrals 推荐概览与推荐奖励记录
func (h *Handler) GetMyReferrals(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := parsePageQuery(c)
	summary, err := h.ReferralService.Summary(c.Request.Context(), uid, page, pageSize)
	if err != nil {
		respondWithMappedError(c, err, profileErrorRules, response.CodeInternal, "error.referral_fetch_failed")
		return
	}
	response.SuccessWithPage(c, summary, response.BuildPagination(page, pageSize, summary.CreditTotal))
}
