package public

import (
	"github.com/bluepay/internal/http/response"
	"github.com/bluepay/internal/service"

	"github.com/gin-gonic/gin"
)

// UserRegisterRequest 用户注册请求
type UserRegisterRequest struct {
	Email        string `json:"email" binding:"required"`
	Password     string `json:"password" binding:"required"`
	FullName     string `json:"full_name"`
	PhoneNumber  string `json:"phone_number"`
	ReferralCode string `json:"referral_code"`
}

// UserLoginRequest 用户登录请求
type UserLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateMeRequest 更新资料请求
type UpdateMeRequest struct {
	FullName    *string `json:"full_name"`
	PhoneNumber *string `json:"phone_number"`
	Locale      *string `json:"locale"`
}

// UserRegister 用户注册
func (h *Handler) UserRegister(c *gin.Context) {
	var req UserRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.UserAuthService.Register(c.Request.Context(), service.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		FullName:     req.FullName,
		PhoneNumber:  req.PhoneNumber,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		respondWithMappedError(c, err, registerErrorRules, response.CodeInternal, "error.register_failed")
		return
	}
	response.Success(c, buildAuthPayload(result))
}

// UserLogin 用户登录
func (h *Handler) UserLogin(c *gin.Context) {
	var req UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.UserAuthService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondWithMappedError(c, err, loginErrorRules, response.CodeInternal, "error.login_failed")
		return
	}
	response.Success(c, buildAuthPayload(result))
}

// GetMe 当前用户资料
func (h *Handler) GetMe(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	view, err := h.UserAuthService.GetProfile(c.Request.Context(), uid)
	if err != nil {
		respondWithMappedError(c, err, profileErrorRules, response.CodeInternal, "error.user_fetch_failed")
		return
	}
	response.Success(c, view)
}

// UpdateMe 更新当前用户资料
func (h *Handler) UpdateMe(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	user, err := h.UserAuthService.UpdateProfile(c.Request.Context(), uid, service.UpdateProfileInput{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Locale:      req.Locale,
	})
	if err != nil {
		respondWithMappedError(c, err, profileErrorRules, response.CodeInternal, "error.save_failed")
		return
	}
	response.Success(c, user)
}

func buildAuthPayload(result *service.AuthResult) gin.H {
	payload := gin.H{
		"user":       result.User,
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
	}
	if result.Profile != nil {
		payload["referral_code"] = result.Profile.ReferralCode
		payload["referred"] = result.Profile.ReferredBy != nil
	}
	return payload
}
