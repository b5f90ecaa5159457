package cache

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bluepay/internal/constants"
	"github.com/bluepay/internal/models"
)

const authStateCacheTTL = 10 * time.Minute

// UserAuthState 鉴权所需的最小用户快照，仅存服务端
// 禁用用户或提升 TokenVersion 后删除快照即可让旧令牌立即失效
type UserAuthState struct {
	UserID       uint   `json:"user_id"`
	Status       string `json:"status"`
	TokenVersion uint64 `json:"token_version"`
}

func userAuthStateKey(userID uint) string {
	return "auth:user:" + strconv.FormatUint(uint64(userID), 10)
}

// BuildUserAuthState 从用户模型构建鉴权快照
func BuildUserAuthState(user *models.User) *UserAuthState {
	if user == nil {
		return nil
	}
	return &UserAuthState{UserID: user.ID, Status: user.Status, TokenVersion: user.TokenVersion}
}

// RejectKey 校验令牌版本与账号状态，通过返回空串，否则返回错误文案 key
func (s *UserAuthState) RejectKey(tokenVersion uint64) string {
	switch {
	case s == nil:
		return "error.token_invalid"
	case !strings.EqualFold(strings.TrimSpace(s.Status), constants.UserStatusActive):
		return "error.user_disabled"
	case s.TokenVersion != tokenVersion:
		return "error.token_revoked"
	}
	return ""
}

// GetUserAuthState 读取鉴权快照
func GetUserAuthState(ctx context.Context, userID uint) (*UserAuthState, bool, error) {
	if userID == 0 {
		return nil, false, nil
	}
	var state UserAuthState
	if hit, err := GetJSON(ctx, userAuthStateKey(userID), &state); err != nil || !hit {
		return nil, false, err
	}
	return &state, true, nil
}

// SetUserAuthState 写入鉴权快照
func SetUserAuthState(ctx context.Context, state *UserAuthState) error {
	if state == nil || state.UserID == 0 {
		return nil
	}
	return SetJSON(ctx, userAuthStateKey(state.UserID), state, authStateCacheTTL)
}

// DelUserAuthState 删除鉴权快照
func DelUserAuthState(ctx context.Context, userID uint) error {
	if userID == 0 {
		return nil
	}
	return Del(ctx, userAuthStateKey(userID))
}
