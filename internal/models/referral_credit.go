package models

import "time"

// ReferralCredit 推荐奖励入账记录，每个被推荐人最多一条
type ReferralCredit struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                // 主键
	ReferrerID uint      `gorm:"not null;index" json:"referrer_id"`                   // 推荐人用户ID
	RefereeID  uint      `gorm:"not null;uniqueIndex" json:"referee_id"`              // 被推荐人用户ID
	Code       string    `gorm:"type:varchar(32);not null" json:"code"`               // 使用的推荐码
	Amount     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"` // 奖励金额
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                             // 创建时间
}

// TableName 指定表名
func (ReferralCredit) TableName() string {
	return "referral_credits"
}
