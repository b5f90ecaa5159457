package service

import (
	"testing"

	"github.com/bluepay/internal/constants"
)

func TestCanTransitionTable(t *testing.T) {
	all := []constants.WithdrawalStatus{
		constants.WithdrawalStatusPending,
		constants.WithdrawalStatusUnderReview,
		constants.WithdrawalStatusApproved,
		constants.WithdrawalStatusRejected,
	}
	allowed := map[[2]constants.WithdrawalStatus]bool{
		{constants.WithdrawalStatusPending, constants.WithdrawalStatusUnderReview}:  true,
		{constants.WithdrawalStatusPending, constants.WithdrawalStatusRejected}:     true,
		{constants.WithdrawalStatusUnderReview, constants.WithdrawalStatusApproved}: true,
		{constants.WithdrawalStatusUnderReview, constants.WithdrawalStatusRejected}: true,
	}
	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]constants.WithdrawalStatus{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
	if CanTransition("", constants.WithdrawalStatusApproved) {
		t.Fatalf("unknown status must not transition")
	}
}

func TestSourcesFor(t *testing.T) {
	approve := sourcesFor(constants.WithdrawalStatusApproved)
	if len(approve) != 1 || approve[0] != constants.WithdrawalStatusUnderReview {
		t.Fatalf("unexpected approve sources: %v", approve)
	}
	reject := sourcesFor(constants.WithdrawalStatusRejected)
	if len(reject) != 2 {
		t.Fatalf("unexpected reject sources: %v", reject)
	}
}
