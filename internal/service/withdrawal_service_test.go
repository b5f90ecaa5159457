package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bluepay/internal/constants"
	"github.com/bluepay/internal/models"
	"github.com/bluepay/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var errLedgerWriteRefused = errors.New("ledger write refused")

// failingEarningsRepo 模拟推荐收益扣减失败
type failingEarningsRepo struct {
	repository.ProfileRepository
	err error
}

func (r *failingEarningsRepo) UpdateEarnings(uint, models.Money, time.Time) error {
	return r.err
}

func (r *failingEarningsRepo) WithTx(tx *gorm.DB) repository.ProfileRepository {
	return &failingEarningsRepo{ProfileRepository: r.ProfileRepository.WithTx(tx), err: r.err}
}

func (r *failingEarningsRepo) WithContext(ctx context.Context) repository.ProfileRepository {
	return &failingEarningsRepo{ProfileRepository: r.ProfileRepository.WithContext(ctx), err: r.err}
}

// failingWithdrawalInsertRepo 模拟提现记录写入失败
type failingWithdrawalInsertRepo struct {
	repository.WithdrawalRepository
	err error
}

func (r *failingWithdrawalInsertRepo) Create(*models.WithdrawalRequest) error {
	return r.err
}

func (r *failingWithdrawalInsertRepo) WithTx(tx *gorm.DB) repository.WithdrawalRepository {
	return &failingWithdrawalInsertRepo{WithdrawalRepository: r.WithdrawalRepository.WithTx(tx), err: r.err}
}

func (r *failingWithdrawalInsertRepo) WithContext(ctx context.Context) repository.WithdrawalRepository {
	return &failingWithdrawalInsertRepo{WithdrawalRepository: r.WithdrawalRepository.WithContext(ctx), err: r.err}
}

func submitEarnings(t *testing.T, env *serviceTestEnv, userID uint, amount int64) *WithdrawalView {
	t.Helper()
	view, err := env.withdrawal.SubmitEarningsWithdrawal(context.Background(), userID, validEarningsInput(amount), validProof(t))
	if err != nil {
		t.Fatalf("submit withdrawal failed: %v", err)
	}
	return view
}

func TestSubmitAndApproveEarningsWithdrawal(t *testing.T) {
	env := newServiceTestEnv(t)
	user, _ := env.createUser(t, "ada@example.com")
	env.setEarnings(t, user.ID, 150000)

	view := submitEarnings(t, env, user.ID, 120000)
	if view.Status != constants.WithdrawalStatusUnderReview {
		t.Fatalf("expected under_review, got %s", view.Status)
	}
	if !view.ActivationFee.Decimal.Equal(decimal.NewFromInt(13450)) {
		t.Fatalf("unexpected activation fee: %s", view.ActivationFee.String())
	}
	if view.PaymentScreenshot == nil || *view.PaymentScreenshot == "" {
		t.Fatalf("expected stored proof key")
	}
	if view.ProofURL == "" {
		t.Fatalf("expected time-bounded proof link")
	}
	if !env.earnings(t, user.ID).Equal(decimal.NewFromInt(150000)) {
		t.Fatalf("submission must not debit earnings")
	}

	approved, err := env.withdrawal.Approve(context.Background(), ReviewWithdrawalInput{AdminID: 99, RequestID: view.ID})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Status != constants.WithdrawalStatusApproved {
		t.Fatalf("expected approved, got %s", approved.Status)
	}
	if got := env.earnings(t, user.ID); !got.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("expected earnings 30000 after approval, got %s", got)
	}
}

func TestSubmitRejectsSecondActiveWithdrawal(t *testing.T) {
	env := newServiceTestEnv(t)
	user, _ := env.createUser(t, "dup@example.com")
	env.setEarnings(t, user.ID, 300000)

	submitEarnings(t, env, user.ID, 120000)
	_, err := env.withdrawal.SubmitEarningsWithdrawal(context.Background(), user.ID, validEarningsInput(110000), validProof(t))
	if !errors.Is(err, ErrDuplicatePendingRequest) {
		t.Fatalf("expected duplicate pending error, got %v", err)
	}
	if blobs := env.storedBlobs(t, constants.ProofSceneWithdrawal); len(blobs) != 1 {
		t.Fatalf("rejected submission must not store a proof, got %d blobs", len(blobs))
	}
}

func TestSubmitRejectsAmountAboveEarnings(t *testing.T) {
	env := newServiceTestEnv(t)
	user, _ := env.createUser(t, "poor@example.com")
	env.setEarnings(t, user.ID, 100000)

	_, err := env.withdrawal.SubmitEarningsWithdrawal(context.Background(), user.ID, validEarningsInput(120000), validProof(t))
	if !errors.Is(err, ErrInsufficientEarnings) {
		t.Fatalf("expected insufficient earnings, got %v", err)
	}
}

func TestSubmitRequiresProof(t *testing.T) {
	env := newServiceTestEnv(t)
	user, _ := env.createUser(t, "noproof@example.com")
	env.setEarnings(t, user.ID, 150000)

	_, err := env.withdrawal.SubmitEarningsWithdrawal(context.Background(), user.ID, validEarningsInput(120000), nil)
	if !errors.Is(err, ErrProofRequired) || !errors.Is(err, ErrValidation) {
		t.Fatalf("expected proof required validation error, got %v", err)
	}
	active, err := env.withdrawalRepo.GetActiveByUser(user.ID)
	if err != nil {
		t.Fatalf("load active failed: %v", err)
	}
	if active != nil {
		t.Fatalf("no request should be stored without proof")
	}
}

func TestRejectLeavesEarningsUnchanged(t *testing.T) {
	env := newServiceTestEnv(t)
	user, _ := env.createUser(t, "reject@example.com")
	env.setEarnings(t, user.ID, 150000)
	view := submitEarnings(t, env, user.ID, 120000)

	rejected, err := env.withdrawal.Reject(context.Background(), ReviewWithdrawalInput{AdminID: 99, RequestID: view.ID, Note: "proof unreadable"})
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != constants.WithdrawalStatusRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}
	if got := env.earnings(t, user.ID); !got.Equal(decimal.NewFromInt(150000)) {
		t.Fatalf("reject must not change earnings, got %s", got)
	}

	if _, err := env.withdrawal.Approve(context.Background(), ReviewWithdrawalInput{AdminID: 99, RequestID: view.ID}); !errors.Is(err, ErrWithdrawalStatusInvalid) {
		t.Fatalf("terminal request must not be approved, got %v", err)
	}

	// 驳回后允许重新提交
	submitEarnings(t, env, user.ID, 100000)
}

func TestApproveTwiceDebitsOnce(t *testing.T) {
	env := newServiceTestEnv(t)
	user, _ := env.createUser(t, "twice@example.com")
	env.setEarnings(t, user.ID, 150000)
	view := submitEarnings(t, env, user.ID, 120000)

	input := ReviewWithdrawalInput{AdminID: 99, RequestID: view.ID}
	if _, err := env.withdrawal.Approve(context.Background(), input); err != nil {
		t.Fatalf("first approve failed: %v", err)
	}
	if _, err := env.withdrawal.Approve(context.Background(), input); !errors.Is(err, ErrWithdrawalStatusInvalid) {
		t.Fatalf("expected status invalid on second approve, got %v", err)
	}
	if got := env.earnings(t, user.ID); !got.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("earnings debited twice: %s", got)
	}
}

func TestApproveFloorsEarningsAtZero(t *testing.T) {
	env := newServiceTestEnv(t)
	user, _ := env.createUser(t, "floor@example.com")
	env.setEarnings(t, user.ID, 150000)
	view := submitEarnings(t, env, user.ID, 120000)

	// 审核前收益被其他操作减少
	env.setEarnings(t, user.ID, 50000)

	if _, err := env.withdrawal.Approve(context.Background(), ReviewWithdrawalInput{AdminID: 99, RequestID: view.ID}); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if got := env.earnings(t, user.ID); !got.IsZero() {
		t.Fatalf("expected earnings floored at zero, got %s", got)
	}
}

func TestApproveUnknownWithdrawal(t *testing.T) {
	env := newServiceTestEnv(t)
	if _, err := env.withdrawal.Approve(context.Background(), ReviewWithdrawalInput{AdminID: 1, RequestID: 404}); !errors.Is(err, ErrWithdrawalNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := env.withdrawal.Reject(context.Background(), ReviewWithdrawalInput{AdminID: 1}); !errors.Is(err, ErrWithdrawalNotFound) {
		t.Fatalf("expected not found for zero id, got %v", err)
	}
}

func TestApproveDebitFailureRecordsReconciliation(t *testing.T) {
	env := newServiceTestEnv(t)
	user, _ := env.createUser(t, "debit@example.com")
	env.setEarnings(t, user.ID, 150000)
	view := submitEarnings(t, env, user.ID, 120000)

	healthy := env.profileRepo
	env.profileRepo = &failingEarningsRepo{ProfileRepository: healthy, err: errLedgerWriteRefused}
	env.rebuild()

	_, err := env.withdrawal.Approve(context.Background(), ReviewWithdrawalInput{AdminID: 99, RequestID: view.ID})
	if !errors.Is(err, ErrConsistency) {
		t.Fatalf("expected consistency error, got %v", err)
	}
	var consistencyErr *ConsistencyError
	if !errors.As(err, &consistencyErr) || consistencyErr.WithdrawalID != view.ID {
		t.Fatalf("expected consistency error for withdrawal %d, got %v", view.ID, err)
	}
	if !errors.Is(err, errLedgerWriteRefused) {
		t.Fatalf("consistency error should wrap the debit failure, got %v", err)
	}

	stored, err := env.withdrawalRepo.GetByID(view.ID)
	if err != nil || stored == nil {
		t.Fatalf("load withdrawal failed: %v", err)
	}
	if stored.Status != constants.WithdrawalStatusUnderReview {
		t.Fatalf("status must roll back with the failed debit, got %s", stored.Status)
	}
	if got := env.earnings(t, user.ID); !got.Equal(decimal.NewFromInt(150000)) {
		t.Fatalf("earnings must stay untouched, got %s", got)
	}

	items := env.reconciliationItems(t, constants.ReconciliationKindApprovalDebit)
	if len(items) != 1 {
		t.Fatalf("expected one approval_debit item, got %d", len(items))
	}
	if items[0].WithdrawalID == nil || *items[0].WithdrawalID != view.ID || items[0].UserID != user.ID {
		t.Fatalf("unexpected reconciliation item: %+v", items[0])
	}
	if items[0].Status != constants.ReconciliationStatusOpen {
		t.Fatalf("expected open item, got %s", items[0].Status)
	}

	// 修复后可再次审核
	env.profileRepo = healthy
	env.rebuild()
	if _, err := env.withdrawal.Approve(context.Background(), ReviewWithdrawalInput{AdminID: 99, RequestID: view.ID}); err != nil {
		t.Fatalf("approve after recovery failed: %v", err)
	}
	if got := env.earnings(t, user.ID); !got.Equal(decimal.NewFromInt(30000)) {
		t.Fatalf("expected 30000 after recovery, got %s", got)
	}
}

func TestInsertFailureCleansOrphanedProofInline(t *testing.T) {
	env := newServiceTestEnv(t)
	user, _ := env.createUser(t, "orphan@example.com")
	env.setEarnings(t, user.ID, 150000)

	env.withdrawalRepo = &failingWithdrawalInsertRepo{WithdrawalRepository: env.withdrawalRepo, err: errors.New("insert rejected")}
	env.rebuild()

	_, err := env.withdrawal.SubmitEarningsWithdrawal(context.Background(), user.ID, validEarningsInput(120000), validProof(t))
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}

	items := env.reconciliationItems(t, constants.ReconciliationKindOrphanProof)
	if len(items) != 1 {
		t.Fatalf("expected one orphan_proof item, got %d", len(items))
	}
	if items[0].Status != constants.ReconciliationStatusResolved || items[0].ResolvedAt == nil {
		t.Fatalf("inline cleanup should resolve the item: %+v", items[0])
	}
	if blobs := env.storedBlobs(t, constants.ProofSceneWithdrawal); len(blobs) != 0 {
		t.Fatalf("orphaned proof should be deleted, got %d blobs", len(blobs))
	}
}

func TestInsertFailureEnqueuesProofCleanup(t *testing.T) {
	env := newServiceTestEnv(t)
	env.queue.enabled = true
	user, _ := env.createUser(t, "queued@example.com")
	env.setEarnings(t, user.ID, 150000)

	env.withdrawalRepo = &failingWithdrawalInsertRepo{WithdrawalRepository: env.withdrawalRepo, err: errors.New("insert rejected")}
	env.rebuild()

	if _, err := env.withdrawal.SubmitEarningsWithdrawal(context.Background(), user.ID, validEarningsInput(120000), validProof(t)); err == nil {
		t.Fatalf("expected submission to fail")
	}
	if len(env.queue.cleanups) != 1 {
		t.Fatalf("expected one cleanup task, got %d", len(env.queue.cleanups))
	}
	payload := env.queue.cleanups[0]
	items := env.reconciliationItems(t, constants.ReconciliationKindOrphanProof)
	if len(items) != 1 || items[0].ID != payload.ReconciliationID || items[0].BlobKey != payload.BlobKey {
		t.Fatalf("cleanup payload does not match reconciliation item: %+v %+v", payload, items)
	}
	if items[0].Status != constants.ReconciliationStatusOpen {
		t.Fatalf("queued cleanup should leave the item open, got %s", items[0].Status)
	}

	if err := env.proof.Cleanup(context.Background(), payload.BlobKey, payload.ReconciliationID); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if blobs := env.storedBlobs(t, constants.ProofSceneWithdrawal); len(blobs) != 0 {
		t.Fatalf("cleanup should delete the blob, got %d", len(blobs))
	}
}

func TestSubmitNotifiesAdminWhenQueueEnabled(t *testing.T) {
	env := newServiceTestEnv(t)
	env.queue.enabled = true
	user, _ := env.createUser(t, "notify@example.com")
	env.setEarnings(t, user.ID, 150000)

	view := submitEarnings(t, env, user.ID, 120000)
	if len(env.queue.withdrawals) != 1 || env.queue.withdrawals[0].WithdrawalID != view.ID {
		t.Fatalf("expected notify task for withdrawal %d, got %+v", view.ID, env.queue.withdrawals)
	}
}

func TestListMineAndActive(t *testing.T) {
	env := newServiceTestEnv(t)
	user, _ := env.createUser(t, "history@example.com")
	env.setEarnings(t, user.ID, 150000)

	active, err := env.withdrawal.GetActive(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get active failed: %v", err)
	}
	if active != nil {
		t.Fatalf("expected no active request")
	}

	view := submitEarnings(t, env, user.ID, 120000)
	active, err = env.withdrawal.GetActive(context.Background(), user.ID)
	if err != nil || active == nil || active.ID != view.ID {
		t.Fatalf("expected active request %d, got %+v err=%v", view.ID, active, err)
	}

	rows, total, err := env.withdrawal.ListMine(context.Background(), user.ID, 1, 20)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].ProofURL == "" {
		t.Fatalf("unexpected list result: total=%d rows=%+v", total, rows)
	}

	counts, err := env.withdrawal.CountByStatus(context.Background())
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if counts[constants.WithdrawalStatusUnderReview] != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
}

// staleActiveWithdrawalRepo 模拟并发提交：未完成申请预读始终看不到对方刚写入的记录
type staleActiveWithdrawalRepo struct {
	repository.WithdrawalRepository
}

func (r staleActiveWithdrawalRepo) WithContext(ctx context.Context) repository.WithdrawalRepository {
	return staleActiveWithdrawalRepo{r.WithdrawalRepository.WithContext(ctx)}
}

func (r staleActiveWithdrawalRepo) GetActiveByUser(uint) (*models.WithdrawalRequest, error) {
	return nil, nil
}

func TestConcurrentSubmitKeepsWinnerProof(t *testing.T) {
	env := newServiceTestEnv(t)
	user, _ := env.createUser(t, "race@example.com")
	env.setEarnings(t, user.ID, 300000)

	frozen := time.Now()
	env.proof.now = func() time.Time { return frozen }
	gate := NewFeeGate(env.cfg.Withdrawal, staleActiveWithdrawalRepo{env.withdrawalRepo})
	svc := NewWithdrawalService(gate, env.withdrawalRepo, env.profileRepo, env.reconRepo, env.proof, env.queue, env.retrier)

	winner, err := svc.SubmitEarningsWithdrawal(context.Background(), user.ID, validEarningsInput(120000), validProof(t))
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	if _, err := svc.SubmitEarningsWithdrawal(context.Background(), user.ID, validEarningsInput(110000), validProof(t)); !errors.Is(err, ErrDuplicatePendingRequest) {
		t.Fatalf("expected duplicate pending error, got %v", err)
	}

	stored, err := env.withdrawalRepo.GetByID(winner.ID)
	if err != nil || stored == nil || stored.PaymentScreenshot == nil {
		t.Fatalf("reload winner failed: %v", err)
	}
	blobs := env.storedBlobs(t, constants.ProofSceneWithdrawal)
	if len(blobs) != 1 || blobs[0].Key != *stored.PaymentScreenshot {
		t.Fatalf("winner %d must keep proof %s, got %+v", winner.ID, *stored.PaymentScreenshot, blobs)
	}
	if link, err := env.proof.Link(context.Background(), *stored.PaymentScreenshot); err != nil || link == "" {
		t.Fatalf("winner proof link failed: %q %v", link, err)
	}
	if items := env.reconciliationItems(t, constants.ReconciliationKindOrphanProof); len(items) != 1 || items[0].BlobKey == *stored.PaymentScreenshot {
		t.Fatalf("expected one orphan item for the losing proof, got %+v", items)
	}
}
