//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bluepay/internal/constants"
	"github.com/bluepay/internal/models"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	dropAll := func() {
		for _, m := range models.Migrations() {
			_ = m.Rollback(db)
		}
		_ = db.Migrator().DropTable(gormigrate.DefaultOptions.TableName)
	}
	dropAll()
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate postgres failed: %v", err)
	}

	t.Cleanup(func() {
		dropAll()
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresConcurrentApprovalMatchesOnce(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewWithdrawalRepository(db)
	user := createRepoTestUser(t, db, "pg-race@example.com", "Race User")

	req := newRepoTestWithdrawal(user.ID, constants.WithdrawalStatusUnderReview, time.Now())
	if err := repo.Create(req); err != nil {
		t.Fatalf("create withdrawal failed: %v", err)
	}

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		matched int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(reviewer uint) {
			defer wg.Done()
			affected, err := repo.Transition(WithdrawalTransition{
				ID:         req.ID,
				From:       []constants.WithdrawalStatus{constants.WithdrawalStatusUnderReview},
				To:         constants.WithdrawalStatusApproved,
				ReviewedBy: reviewer,
				At:         time.Now(),
			})
			if err != nil {
				t.Errorf("transition failed: %v", err)
				return
			}
			mu.Lock()
			matched += affected
			mu.Unlock()
		}(uint(i + 1))
	}
	wg.Wait()

	if matched != 1 {
		t.Fatalf("expected exactly one matching transition, got %d", matched)
	}
}

func TestPostgresActiveSlotRejectsSecondActiveRequest(t *testing.T) {
	db := setupPostgresIntegrationDB(t)
	repo := NewWithdrawalRepository(db)
	user := createRepoTestUser(t, db, "pg-slot@example.com", "Slot User")

	if err := repo.Create(newRepoTestWithdrawal(user.ID, constants.WithdrawalStatusUnderReview, time.Now())); err != nil {
		t.Fatalf("create first withdrawal failed: %v", err)
	}
	if err := repo.Create(newRepoTestWithdrawal(user.ID, constants.WithdrawalStatusUnderReview, time.Now())); err == nil {
		t.Fatalf("expected unique violation on second active withdrawal")
	}
}
