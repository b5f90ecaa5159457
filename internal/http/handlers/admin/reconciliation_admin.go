package admin

import (
	"strings"

	"github.com/bluepay/internal/http/response"
	"github.com/bluepay/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListReconciliation 对账事项列表
func (h *Handler) ListReconciliation(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	rows, total, err := h.ReconciliationService.List(c.Request.Context(), repository.ReconciliationListFilter{
		Page:     page,
		PageSize: pageSize,
		Kind:     strings.TrimSpace(c.Query("kind")),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.reconciliation_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// ResolveReconciliation 标记对账事项已处理
func (h *Handler) ResolveReconciliation(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	item, err := h.ReconciliationService.Resolve(c.Request.Context(), adminID, id)
	if err != nil {
		respondWithMappedError(c, err, reconciliationErrorRules, response.CodeInternal, "error.reconciliation_resolve_failed")
		return
	}
	response.Success(c, item)
}
