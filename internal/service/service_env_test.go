package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/bluepay/internal/config"
	"github.com/bluepay/internal/constants"
	"github.com/bluepay/internal/models"
	"github.com/bluepay/internal/queue"
	"github.com/bluepay/internal/repository"
	"github.com/bluepay/internal/storage"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const testActivationCode = "BPC55262527"

// stubTaskQueue 记录投递的任务，enabled=false 时模拟未启用队列
type stubTaskQueue struct {
	mu          sync.Mutex
	enabled     bool
	cleanups    []queue.ProofCleanupPayload
	withdrawals []queue.WithdrawalNotifyPayload
	upgrades    []queue.UpgradeNotifyPayload
}

func (q *stubTaskQueue) Enabled() bool { return q != nil && q.enabled }

func (q *stubTaskQueue) EnqueueProofCleanup(payload queue.ProofCleanupPayload, _ ...asynq.Option) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cleanups = append(q.cleanups, payload)
	return nil
}

func (q *stubTaskQueue) EnqueueWithdrawalNotify(payload queue.WithdrawalNotifyPayload, _ ...asynq.Option) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.withdrawals = append(q.withdrawals, payload)
	return nil
}

func (q *stubTaskQueue) EnqueueUpgradeNotify(payload queue.UpgradeNotifyPayload, _ ...asynq.Option) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.upgrades = append(q.upgrades, payload)
	return nil
}

type serviceTestEnv struct {
	db    *gorm.DB
	cfg   *config.Config
	store *storage.BucketStore
	queue *stubTaskQueue

	userRepo       repository.UserRepository
	profileRepo    repository.ProfileRepository
	withdrawalRepo repository.WithdrawalRepository
	upgradeRepo    repository.UpgradeRepository
	walletRepo     repository.WalletRepository
	reconRepo      repository.ReconciliationRepository
	auditRepo      repository.RoleAuditLogRepository

	retrier        *Retrier
	gate           *FeeGate
	proof          *ProofService
	withdrawal     *WithdrawalService
	referral       *ReferralService
	upgrade        *UpgradeService
	wallet         *WalletService
	reconciliation *ReconciliationService
}

func newServiceTestConfig(root string) *config.Config {
	return &config.Config{
		App:        config.AppConfig{Name: "bluepay-test", Currency: constants.CurrencyDefault},
		UserJWT:    config.JWTConfig{SecretKey: "test-user-jwt-secret-0123456789abcdef", ExpireHours: 24},
		Withdrawal: testWithdrawalConfig(),
		Referral:   config.ReferralConfig{DefaultRate: 15000, CodeLength: 8},
		Upgrade:    config.UpgradeConfig{Fee: 15000, NewRate: 25000},
		Retry:      config.RetryConfig{MaxAttempts: 3, BaseDelayMS: 1, TimeoutMS: 5000},
		Storage: config.StorageConfig{
			Root:           root,
			LinkSecret:     "test-link-secret",
			LinkTTLSeconds: 86400,
			PublicBaseURL:  "/api/v1/proofs",
			MaxSize:        64 * 1024,
			AllowedTypes:   []string{"image/jpeg", "image/png", "image/webp"},
			MaxWidth:       4096,
			MaxHeight:      4096,
		},
		Security: config.SecurityConfig{
			PasswordPolicy: config.PasswordPolicyConfig{
				MinLength:     8,
				RequireUpper:  true,
				RequireLower:  true,
				RequireNumber: true,
			},
		},
	}
}

func newServiceTestEnv(t *testing.T) *serviceTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:service_env_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	models.DB = db

	cfg := newServiceTestConfig(t.TempDir())
	store, err := storage.OpenLocalStore(cfg.Storage.Root, storage.NewLinkSigner(cfg.Storage.LinkSecret, cfg.Storage.PublicBaseURL))
	if err != nil {
		t.Fatalf("init blob store failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	env := &serviceTestEnv{
		db:             db,
		cfg:            cfg,
		store:          store,
		queue:          &stubTaskQueue{},
		userRepo:       repository.NewUserRepository(db),
		profileRepo:    repository.NewProfileRepository(db),
		withdrawalRepo: repository.NewWithdrawalRepository(db),
		upgradeRepo:    repository.NewUpgradeRepository(db),
		walletRepo:     repository.NewWalletRepository(db),
		reconRepo:      repository.NewReconciliationRepository(db),
		auditRepo:      repository.NewRoleAuditLogRepository(db),
		retrier:        newTestRetrier(),
	}
	env.rebuild()
	return env
}

// rebuild 依据当前仓库重新装配服务，便于测试替换故障仓库
func (e *serviceTestEnv) rebuild() {
	e.gate = NewFeeGate(e.cfg.Withdrawal, e.withdrawalRepo)
	e.proof = NewProofService(e.cfg.Storage, e.store, e.reconRepo, e.queue, e.retrier)
	e.withdrawal = NewWithdrawalService(e.gate, e.withdrawalRepo, e.profileRepo, e.reconRepo, e.proof, e.queue, e.retrier)
	e.referral = NewReferralService(e.cfg.Referral, e.profileRepo, e.retrier)
	e.upgrade = NewUpgradeService(e.cfg.Upgrade, e.upgradeRepo, e.profileRepo, e.proof, e.queue, e.retrier)
	e.wallet = NewWalletService(e.cfg, e.gate, e.walletRepo, e.profileRepo, e.retrier)
	e.reconciliation = NewReconciliationService(e.reconRepo, e.withdrawalRepo, e.upgradeRepo, e.proof)
}

// createUser 创建用户及其推荐档案与钱包账户
func (e *serviceTestEnv) createUser(t *testing.T, email string) (*models.User, *models.Profile) {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "hash",
		FullName:     "Ada Obi",
		Status:       constants.UserStatusActive,
	}
	if err := e.userRepo.Create(user); err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	profile, err := e.referral.CreateProfile(e.profileRepo, user.ID)
	if err != nil {
		t.Fatalf("create profile failed: %v", err)
	}
	if _, err := e.wallet.EnsureAccount(e.walletRepo, user.ID); err != nil {
		t.Fatalf("create wallet failed: %v", err)
	}
	return user, profile
}

func (e *serviceTestEnv) setEarnings(t *testing.T, userID uint, amount int64) {
	t.Helper()
	if err := e.profileRepo.UpdateEarnings(userID, models.NewMoneyFromInt(amount), time.Now()); err != nil {
		t.Fatalf("set earnings failed: %v", err)
	}
}

func (e *serviceTestEnv) earnings(t *testing.T, userID uint) decimal.Decimal {
	t.Helper()
	profile, err := e.profileRepo.GetByUserID(userID)
	if err != nil || profile == nil {
		t.Fatalf("load profile failed: %v", err)
	}
	return profile.ReferralEarnings.Decimal
}

func (e *serviceTestEnv) reconciliationItems(t *testing.T, kind string) []models.ReconciliationItem {
	t.Helper()
	items, _, err := e.reconRepo.List(repository.ReconciliationListFilter{Page: 1, PageSize: 100, Kind: kind})
	if err != nil {
		t.Fatalf("list reconciliation failed: %v", err)
	}
	return items
}

func (e *serviceTestEnv) storedBlobs(t *testing.T, scene string) []storage.BlobInfo {
	t.Helper()
	items, err := e.store.List(context.Background(), scene)
	if err != nil {
		t.Fatalf("list blobs failed: %v", err)
	}
	return items
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 20, G: 90, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png failed: %v", err)
	}
	return buf.Bytes()
}

func proofFromBytes(content []byte) *ProofFile {
	return &ProofFile{Content: bytes.NewReader(content), Size: int64(len(content))}
}

func validProof(t *testing.T) *ProofFile {
	t.Helper()
	return proofFromBytes(pngBytes(t, 4, 4))
}
