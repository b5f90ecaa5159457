package cache

import (
	"context"
	"fmt"
	"time"
)

const defaultBalanceCacheTTL = time.Minute

// BalanceSnapshot 用户余额快照（推荐收益与钱包余额）
type BalanceSnapshot struct {
	UserID           uint   `json:"user_id"`
	ReferralEarnings string `json:"referral_earnings"`
	WalletBalance    string `json:"wallet_balance"`
	UpdatedAt        int64  `json:"updated_at"`
}

func balanceKey(userID uint) string {
	return fmt.Sprintf("balance:%d", userID)
}

// GetBalance 读取余额快照
func GetBalance(ctx context.Context, userID uint) (*BalanceSnapshot, bool, error) {
	if userID == 0 {
		return nil, false, nil
	}
	var snapshot BalanceSnapshot
	hit, err := GetJSON(ctx, balanceKey(userID), &snapshot)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &snapshot, true, nil
}

// SetBalance 写入余额快照，ttl 非正数时使用默认值
func SetBalance(ctx context.Context, snapshot *BalanceSnapshot, ttl time.Duration) error {
	if snapshot == nil || snapshot.UserID == 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultBalanceCacheTTL
	}
	return SetJSON(ctx, balanceKey(snapshot.UserID), snapshot, ttl)
}

// InvalidateBalance 删除余额快照，每次账本变动后调用
func InvalidateBalance(ctx context.Context, userIDs ...uint) error {
	keys := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		if userID != 0 {
			keys = append(keys, balanceKey(userID))
		}
	}
	return Del(ctx, keys...)
}
