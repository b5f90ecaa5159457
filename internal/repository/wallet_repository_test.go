package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/bluepay/internal/constants"
	"github.com/bluepay/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupWalletRepositoryTest(t *testing.T) (*GormWalletRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:wallet_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.WalletAccount{}, &models.WalletTransaction{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewWalletRepository(db), db
}

func TestWalletRepositoryListTransactionsFilters(t *testing.T) {
	repo, _ := setupWalletRepositoryTest(t)

	txns := []models.WalletTransaction{
		{UserID: 1, Type: constants.WalletTxnTypeCredit, Direction: constants.WalletTxnDirectionIn, Amount: models.NewMoneyFromInt(500)},
		{UserID: 1, Type: constants.WalletTxnTypeWithdraw, Direction: constants.WalletTxnDirectionOut, Amount: models.NewMoneyFromInt(200), Reference: "Ada Obi - 0123456789 (GTBank)"},
		{UserID: 2, Type: constants.WalletTxnTypeCredit, Direction: constants.WalletTxnDirectionIn, Amount: models.NewMoneyFromInt(50)},
	}
	for i := range txns {
		if err := repo.CreateTransaction(&txns[i]); err != nil {
			t.Fatalf("create transaction failed: %v", err)
		}
	}

	rows, total, err := repo.ListTransactions(WalletTransactionListFilter{UserID: 1, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list transactions failed: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("expected 2 rows for user 1, got %d", total)
	}
	if rows[0].Type != constants.WalletTxnTypeWithdraw {
		t.Fatalf("expected newest first, got %s", rows[0].Type)
	}

	rows, total, err = repo.ListTransactions(WalletTransactionListFilter{UserID: 1, Type: constants.WalletTxnTypeCredit})
	if err != nil {
		t.Fatalf("list by type failed: %v", err)
	}
	if total != 1 || rows[0].Amount.String() != "500.00" {
		t.Fatalf("unexpected typed result: total=%d rows=%+v", total, rows)
	}
}

func TestWalletRepositoryAccountLifecycle(t *testing.T) {
	repo, _ := setupWalletRepositoryTest(t)

	account, err := repo.GetAccountByUserID(5)
	if err != nil {
		t.Fatalf("get missing account failed: %v", err)
	}
	if account != nil {
		t.Fatalf("expected nil account")
	}
	if err := repo.CreateAccount(&models.WalletAccount{UserID: 5, Balance: models.NewMoneyFromInt(100)}); err != nil {
		t.Fatalf("create account failed: %v", err)
	}
	if err := repo.CreateAccount(&models.WalletAccount{UserID: 5}); err == nil {
		t.Fatalf("expected duplicate account to fail")
	}
	account, err = repo.GetAccountByUserIDForUpdate(5)
	if err != nil || account == nil {
		t.Fatalf("get account for update failed: %v", err)
	}
	account.Balance = models.NewMoneyFromInt(40)
	if err := repo.UpdateAccount(account); err != nil {
		t.Fatalf("update account failed: %v", err)
	}
	account, _ = repo.GetAccountByUserID(5)
	if account.Balance.String() != "40.00" {
		t.Fatalf("unexpected balance: %s", account.Balance.String())
	}
}
