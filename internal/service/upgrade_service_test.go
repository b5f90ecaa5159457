package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bluepay/internal/constants"
	"github.com/bluepay/internal/models"
	"github.com/bluepay/internal/repository"

	"github.com/shopspring/decimal"
)

func TestUpgradeRequiresAdminConfirmation(t *testing.T) {
	env := newServiceTestEnv(t)
	env.queue.enabled = true
	user, _ := env.createUser(t, "upgrade@example.com")

	view, err := env.upgrade.SubmitUpgrade(context.Background(), user.ID, validProof(t))
	if err != nil {
		t.Fatalf("submit upgrade failed: %v", err)
	}
	if view.PaymentStatus != constants.UpgradePaymentStatusPending {
		t.Fatalf("expected pending, got %s", view.PaymentStatus)
	}
	if !view.PaymentAmount.Decimal.Equal(decimal.NewFromInt(15000)) {
		t.Fatalf("unexpected upgrade fee: %s", view.PaymentAmount.String())
	}
	if len(env.queue.upgrades) != 1 || env.queue.upgrades[0].UpgradeID != view.ID {
		t.Fatalf("expected upgrade notify task, got %+v", env.queue.upgrades)
	}

	profile, err := env.profileRepo.GetByUserID(user.ID)
	if err != nil || profile == nil {
		t.Fatalf("load profile failed: %v", err)
	}
	if profile.AccountUpgraded {
		t.Fatalf("submission alone must not upgrade the account")
	}

	if _, err := env.upgrade.SubmitUpgrade(context.Background(), user.ID, validProof(t)); !errors.Is(err, ErrUpgradePending) {
		t.Fatalf("expected pending upgrade error, got %v", err)
	}

	reviewed, err := env.upgrade.Review(context.Background(), ReviewUpgradeInput{AdminID: 7, UpgradeID: view.ID, Action: " Confirm "})
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if reviewed.PaymentStatus != constants.UpgradePaymentStatusConfirmed || reviewed.ReviewedBy == nil || *reviewed.ReviewedBy != 7 {
		t.Fatalf("unexpected reviewed upgrade: %+v", reviewed)
	}

	profile, err = env.profileRepo.GetByUserID(user.ID)
	if err != nil || profile == nil {
		t.Fatalf("reload profile failed: %v", err)
	}
	if !profile.AccountUpgraded {
		t.Fatalf("confirmation should upgrade the account")
	}
	if !profile.ReferralRate.Decimal.Equal(decimal.NewFromInt(25000)) {
		t.Fatalf("expected upgraded rate, got %s", profile.ReferralRate.String())
	}

	if _, err := env.upgrade.SubmitUpgrade(context.Background(), user.ID, validProof(t)); !errors.Is(err, ErrAlreadyUpgraded) {
		t.Fatalf("expected already upgraded, got %v", err)
	}
	if _, err := env.upgrade.Review(context.Background(), ReviewUpgradeInput{AdminID: 7, UpgradeID: view.ID, Action: "reject"}); !errors.Is(err, ErrUpgradeStatusInvalid) {
		t.Fatalf("reviewed upgrade must not change again, got %v", err)
	}
}

func TestUpgradeRejectKeepsAccount(t *testing.T) {
	env := newServiceTestEnv(t)
	user, _ := env.createUser(t, "declined@example.com")

	view, err := env.upgrade.SubmitUpgrade(context.Background(), user.ID, validProof(t))
	if err != nil {
		t.Fatalf("submit upgrade failed: %v", err)
	}
	if _, err := env.upgrade.Review(context.Background(), ReviewUpgradeInput{AdminID: 7, UpgradeID: view.ID, Action: "reject"}); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	profile, err := env.profileRepo.GetByUserID(user.ID)
	if err != nil || profile == nil {
		t.Fatalf("load profile failed: %v", err)
	}
	if profile.AccountUpgraded {
		t.Fatalf("rejected upgrade must not set the flag")
	}

	// 驳回后允许重新提交
	if _, err := env.upgrade.SubmitUpgrade(context.Background(), user.ID, validProof(t)); err != nil {
		t.Fatalf("resubmit after reject failed: %v", err)
	}
}

func TestUpgradeReviewValidation(t *testing.T) {
	env := newServiceTestEnv(t)

	if _, err := env.upgrade.Review(context.Background(), ReviewUpgradeInput{AdminID: 1, UpgradeID: 1, Action: "maybe"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := env.upgrade.Review(context.Background(), ReviewUpgradeInput{AdminID: 1, UpgradeID: 404, Action: "confirm"}); !errors.Is(err, ErrUpgradeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// stalePendingUpgradeRepo 模拟并发提交：待审核预读始终看不到对方刚写入的记录
type stalePendingUpgradeRepo struct {
	repository.UpgradeRepository
}

func (r stalePendingUpgradeRepo) WithContext(ctx context.Context) repository.UpgradeRepository {
	return stalePendingUpgradeRepo{r.UpgradeRepository.WithContext(ctx)}
}

func (r stalePendingUpgradeRepo) GetPendingByUser(uint) (*models.ReferralUpgrade, error) {
	return nil, nil
}

func TestConcurrentUpgradeSubmitKeepsOnePending(t *testing.T) {
	env := newServiceTestEnv(t)
	user, _ := env.createUser(t, "racer@example.com")
	svc := NewUpgradeService(env.cfg.Upgrade, stalePendingUpgradeRepo{env.upgradeRepo}, env.profileRepo, env.proof, env.queue, env.retrier)

	first, err := svc.SubmitUpgrade(context.Background(), user.ID, validProof(t))
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if _, err := svc.SubmitUpgrade(context.Background(), user.ID, validProof(t)); !errors.Is(err, ErrUpgradePending) {
		t.Fatalf("expected pending upgrade error, got %v", err)
	}

	rows, total, err := env.upgradeRepo.List(repository.UpgradeListFilter{UserID: user.ID, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list upgrades failed: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].ID != first.ID {
		t.Fatalf("expected only the first pending upgrade, got total=%d rows=%+v", total, rows)
	}
	if blobs := env.storedBlobs(t, constants.ProofSceneUpgrade); len(blobs) != 1 || blobs[0].Key != *rows[0].PaymentProof {
		t.Fatalf("winning upgrade must keep its proof, got %+v", blobs)
	}
}
