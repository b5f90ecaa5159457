package admin

import (
	"github.com/bluepay/internal/http/response"

	"github.com/gin-gonic/gin"
)

// SetUserStatusRequest 用户状态请求
type SetUserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetUserStatus 启用或禁用用户
func (h *Handler) SetUserStatus(c *gin.Context) {
	operatorID, ok := getAdminID(c)
	if !ok {
		return
	}
	userID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "error.user_id_invalid", nil)
		return
	}
	var req SetUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	user, err := h.UserAuthService.SetUserStatus(c.Request.Context(), operatorID, userID, req.Status)
	if err != nil {
		respondWithMappedError(c, err, userStatusErrorRules, response.CodeInternal, "error.user_status_update_failed")
		return
	}
	response.Success(c, gin.H{
		"user_id": user.ID,
		"status":  user.Status,
	})
}
