package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bluepay/internal/constants"
	"github.com/bluepay/internal/repository"

	"github.com/shopspring/decimal"
)

func walletInput(amount int64, code string) WithdrawalInput {
	return WithdrawalInput{
		BankName:         "Opay",
		AccountName:      "Ada Obi",
		AccountNumber:    "9012345678",
		WithdrawalAmount: decimal.NewFromInt(amount),
		ActivationCode:   code,
	}
}

func TestAdminAdjustAndWithdrawToBank(t *testing.T) {
	env := newServiceTestEnv(t)
	user, _ := env.createUser(t, "wallet@example.com")

	account, txn, err := env.wallet.AdminAdjust(context.Background(), WalletAdjustInput{
		OperatorID: 1,
		UserID:     user.ID,
		Delta:      decimal.NewFromInt(5000),
		Remark:     "  campaign bonus ",
	})
	if err != nil {
		t.Fatalf("admin adjust failed: %v", err)
	}
	if !account.Balance.Decimal.Equal(decimal.NewFromInt(5000)) {
		t.Fatalf("unexpected balance: %s", account.Balance.String())
	}
	if txn.Type != constants.WalletTxnTypeAdminAdjust || txn.Direction != constants.WalletTxnDirectionIn || txn.Remark != "campaign bonus" {
		t.Fatalf("unexpected adjust txn: %+v", txn)
	}

	if _, _, err := env.wallet.WithdrawToBank(context.Background(), user.ID, walletInput(1000, "WRONG")); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected invalid code, got %v", err)
	}
	if _, _, err := env.wallet.WithdrawToBank(context.Background(), user.ID, walletInput(6000, testActivationCode)); !errors.Is(err, ErrWalletInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	account, txn, err = env.wallet.WithdrawToBank(context.Background(), user.ID, walletInput(2000, testActivationCode))
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if !account.Balance.Decimal.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("unexpected balance after withdraw: %s", account.Balance.String())
	}
	if txn.Direction != constants.WalletTxnDirectionOut || !txn.Amount.Decimal.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("unexpected withdraw txn: %+v", txn)
	}
	if !txn.BalanceBefore.Decimal.Equal(decimal.NewFromInt(5000)) || !txn.BalanceAfter.Decimal.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("unexpected balance snapshot: %+v", txn)
	}

	rows, total, err := env.wallet.ListTransactions(context.Background(), repository.WalletTransactionListFilter{Page: 1, PageSize: 20, UserID: user.ID})
	if err != nil {
		t.Fatalf("list transactions failed: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("expected 2 transactions, got total=%d len=%d", total, len(rows))
	}
}

func TestAdminAdjustRejectsZeroAndOverdraft(t *testing.T) {
	env := newServiceTestEnv(t)
	user, _ := env.createUser(t, "adjust@example.com")

	if _, _, err := env.wallet.AdminAdjust(context.Background(), WalletAdjustInput{OperatorID: 1, UserID: user.ID, Delta: decimal.Zero}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if _, _, err := env.wallet.AdminAdjust(context.Background(), WalletAdjustInput{OperatorID: 1, UserID: user.ID, Delta: decimal.NewFromInt(-1)}); !errors.Is(err, ErrWalletInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
}

func TestGetBalanceCombinesLedgers(t *testing.T) {
	env := newServiceTestEnv(t)
	user, _ := env.createUser(t, "balance@example.com")
	env.setEarnings(t, user.ID, 150000)
	if _, _, err := env.wallet.AdminAdjust(context.Background(), WalletAdjustInput{OperatorID: 1, UserID: user.ID, Delta: decimal.NewFromInt(700)}); err != nil {
		t.Fatalf("admin adjust failed: %v", err)
	}

	view, err := env.wallet.GetBalance(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("get balance failed: %v", err)
	}
	if !view.ReferralEarnings.Decimal.Equal(decimal.NewFromInt(150000)) || !view.WalletBalance.Decimal.Equal(decimal.NewFromInt(700)) {
		t.Fatalf("unexpected balance view: %+v", view)
	}
	if view.Currency != constants.CurrencyDefault {
		t.Fatalf("unexpected currency: %s", view.Currency)
	}
}
