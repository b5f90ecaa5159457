package models

import (
	"github.com/bluepay/internal/constants"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// 初始表结构
var migrationInitialise = &gormigrate.Migration{
	ID: "202610010900-initialise",
	Migrate: func(tx *gorm.DB) error {
		return tx.AutoMigrate(
			&User{},
			&Profile{},
			&WithdrawalRequest{},
			&ReferralUpgrade{},
			&ReferralCredit{},
			&WalletAccount{},
			&WalletTransaction{},
		)
	},
	Rollback: func(tx *gorm.DB) error {
		return tx.Migrator().DropTable(
			&WalletTransaction{},
			&WalletAccount{},
			&ReferralCredit{},
			&ReferralUpgrade{},
			&WithdrawalRequest{},
			&Profile{},
			&User{},
		)
	},
}

// 对账事项与角色审计
var migrationReconciliation = &gormigrate.Migration{
	ID: "202610120930-reconciliation-role-audit",
	Migrate: func(tx *gorm.DB) error {
		return tx.AutoMigrate(&ReconciliationItem{}, &RoleAuditLog{})
	},
	Rollback: func(tx *gorm.DB) error {
		return tx.Migrator().DropTable(&RoleAuditLog{}, &ReconciliationItem{})
	},
}

// 升级申请待审核占位：回填每个用户最新一笔待审核记录后建唯一索引
var migrationUpgradeActiveSlot = &gormigrate.Migration{
	ID: "202610190900-upgrade-active-slot",
	Migrate: func(tx *gorm.DB) error {
		migrator := tx.Migrator()
		if !migrator.HasColumn(&ReferralUpgrade{}, "ActiveSlot") {
			if err := migrator.AddColumn(&ReferralUpgrade{}, "ActiveSlot"); err != nil {
				return err
			}
		}
		if err := tx.Exec(
			"UPDATE referral_upgrades SET active_slot = 1 WHERE active_slot IS NULL AND id IN "+
				"(SELECT MAX(id) FROM referral_upgrades WHERE payment_status = ? GROUP BY user_id)",
			constants.UpgradePaymentStatusPending,
		).Error; err != nil {
			return err
		}
		if migrator.HasIndex(&ReferralUpgrade{}, "idx_upgrade_user_pending") {
			return nil
		}
		return migrator.CreateIndex(&ReferralUpgrade{}, "idx_upgrade_user_pending")
	},
	Rollback: func(tx *gorm.DB) error {
		migrator := tx.Migrator()
		if migrator.HasIndex(&ReferralUpgrade{}, "idx_upgrade_user_pending") {
			if err := migrator.DropIndex(&ReferralUpgrade{}, "idx_upgrade_user_pending"); err != nil {
				return err
			}
		}
		if migrator.HasColumn(&ReferralUpgrade{}, "ActiveSlot") {
			return migrator.DropColumn(&ReferralUpgrade{}, "ActiveSlot")
		}
		return nil
	},
}

// Migrations 按顺序返回全部迁移
func Migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		migrationInitialise,
		migrationReconciliation,
		migrationUpgradeActiveSlot,
	}
}

// Migrate 在指定连接上执行迁移
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, Migrations())
	return m.Migrate()
}
