package service

import (
	"github.com/bluepay/internal/constants"
)

var withdrawalTransitions = map[constants.WithdrawalStatus][]constants.WithdrawalStatus{
	constants.WithdrawalStatusPending: {
		constants.WithdrawalStatusUnderReview,
		constants.WithdrawalStatusRejected,
	},
	constants.WithdrawalStatusUnderReview: {
		constants.WithdrawalStatusApproved,
		constants.WithdrawalStatusRejected,
	},
}

// CanTransition 判断提现申请状态能否从 from 迁移到 to
func CanTransition(from, to constants.WithdrawalStatus) bool {
	for _, next := range withdrawalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// sourcesFor 返回可迁移到 to 的全部源状态，用于条件更新
func sourcesFor(to constants.WithdrawalStatus) []constants.WithdrawalStatus {
	sources := make([]constants.WithdrawalStatus, 0, 2)
	for _, from := range []constants.WithdrawalStatus{
		constants.WithdrawalStatusPending,
		constants.WithdrawalStatusUnderReview,
		constants.WithdrawalStatusApproved,
		constants.WithdrawalStatusRejected,
	} {
		if CanTransition(from, to) {
			sources = append(sources, from)
		}
	}
	return sources
}
