package admin

import (
	"strings"

	"github.com/bluepay/internal/http/response"
	"github.com/bluepay/internal/repository"
	"github.com/bluepay/internal/service"

	"github.com/gin-gonic/gin"
)

// SetUserRolesRequest 覆盖设置用户角色请求
type SetUserRolesRequest struct {
	Roles []string `json:"roles"`
}

// GetUserRoles 获取用户角色
func (h *Handler) GetUserRoles(c *gin.Context) {
	userID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.user_id_invalid", nil)
		return
	}
	roles, err := h.RoleService.GetRoles(c.Request.Context(), userID)
	if err != nil {
		respondWithMappedError(c, err, roleErrorRules, response.CodeInternal, "error.role_fetch_failed")
		return
	}
	response.Success(c, gin.H{
		"user_id": userID,
		"roles":   roles,
	})
}

// SetUserRoles 覆盖设置用户角色
func (h *Handler) SetUserRoles(c *gin.Context) {
	operatorID, ok := getAdminID(c)
	if !ok {
		return
	}
	userID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.user_id_invalid", nil)
		return
	}
	var req SetUserRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	roles, err := h.RoleService.SetRoles(c.Request.Context(), service.SetUserRolesInput{
		OperatorID:   operatorID,
		TargetUserID: userID,
		Roles:        req.Roles,
		RequestID:    strings.TrimSpace(c.GetString("request_id")),
	})
	if err != nil {
		respondWithMappedError(c, err, roleErrorRules, response.CodeInternal, "error.role_update_failed")
		return
	}
	response.Success(c, gin.H{
		"user_id": userID,
		"roles":   roles,
	})
}

// ListRoleAuditLogs 角色变更审计日志
func (h *Handler) ListRoleAuditLogs(c *gin.Context) {
	page, pageSize := parsePageQuery(c)
	operatorID, err := parseQueryUint(c.Query("operator_user_id"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	targetID, err := parseQueryUint(c.Query("target_user_id"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
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

	logs, total, err := h.RoleService.ListAudit(repository.RoleAuditLogListFilter{
		Page:           page,
		PageSize:       pageSize,
		OperatorUserID: operatorID,
		TargetUserID:   targetID,
		CreatedFrom:    createdFrom,
		CreatedTo:      createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.role_audit_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, logs, response.BuildPagination(page, pageSize, total))
}
