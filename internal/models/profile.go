package models

import "time"

// Profile 用户推荐档案（推荐收益账本）
type Profile struct {
	ID               uint      `gorm:"primarykey" json:"id"`                                           // 主键
	UserID           uint      `gorm:"not null;uniqueIndex" json:"user_id"`                            // 用户ID
	ReferralCode     string    `gorm:"type:varchar(32);not null;uniqueIndex" json:"referral_code"`     // 推荐码（服务端生成）
	ReferralCount    int       `gorm:"not null;default:0" json:"referral_count"`                       // 成功推荐人数
	ReferralEarnings Money     `gorm:"type:decimal(20,2);not null;default:0" json:"referral_earnings"` // 推荐收益（非负）
	ReferralRate     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"referral_rate"`     // 每次推荐奖励
	AccountUpgraded  bool      `gorm:"not null;default:false" json:"account_upgraded"`                 // 是否已升级（仅服务端可写）
	ReferredBy       *uint     `gorm:"index" json:"referred_by,omitempty"`                             // 推荐人用户ID
	ProfileImage     string    `gorm:"type:varchar(500);default:''" json:"profile_image"`              // 头像
	CreatedAt        time.Time `gorm:"index" json:"created_at"`                                        // 创建时间
	UpdatedAt        time.Time `gorm:"index" json:"updated_at"`                                        // 更新时间

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"` // 用户信息
}

// TableName 指定表名
func (Profile) TableName() string {
	return "profiles"
}
