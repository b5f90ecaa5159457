package public

import (
	"github.com/bluepay/internal/http/response"

	"github.com/gin-gonic/gin"
)

// SubmitUpgrade 提交账户升级付款凭证
func (h *Handler) SubmitUpgrade(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	proof, closeProof, ok := openProofFile(c)
	if !ok {
		return
	}
	defer closeProof()

	view, err := h.UpgradeService.SubmitUpgrade(c.Request.Context(), uid, proof)
	if err != nil {
		respondWithMappedError(c, err, upgradeSubmitErrorRules, response.CodeInternal, "error.upgrade_submit_failed")
		return
	}
	response.Success(c, view)
}

// ListMyUpgrades 当前用户升级记录
func (h *Handler) ListMyUpgrades(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, pageSize := parsePageQuery(c)
	rows, total, err := h.UpgradeService.ListMine(c.Request.Context(), uid, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.upgrade_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}
