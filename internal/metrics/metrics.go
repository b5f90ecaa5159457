package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal HTTP 请求计数
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bluepay_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPResponseTime HTTP 响应耗时
	HTTPResponseTime = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bluepay_http_response_time_seconds",
			Help:    "Histogram of response times",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// WithdrawalTransitions 提现申请状态迁移计数
	WithdrawalTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bluepay_withdrawal_transitions_total",
			Help: "Withdrawal request state transitions by target status and outcome",
		},
		[]string{"to", "outcome"},
	)

	// WithdrawalSubmissions 提现申请提交计数
	WithdrawalSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bluepay_withdrawal_submissions_total",
			Help: "Withdrawal submissions by flow and outcome",
		},
		[]string{"flow", "outcome"},
	)

	// ProofUploadBytes 凭证上传大小
	ProofUploadBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bluepay_proof_upload_bytes",
			Help:    "Size of stored payment proofs",
			Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10),
		},
		[]string{"scene"},
	)

	// ReconciliationItems 对账事项创建计数
	ReconciliationItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bluepay_reconciliation_items_total",
			Help: "Reconciliation items recorded by kind",
		},
		[]string{"kind"},
	)

	// ReferralCredits 推荐奖励结果计数
	ReferralCredits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bluepay_referral_credits_total",
			Help: "Referral crediting attempts by outcome",
		},
		[]string{"outcome"},
	)

	// RateLimitDecisions 限流判定计数
	RateLimitDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bluepay_rate_limit_decisions_total",
			Help: "Rate limit decisions by rule and outcome",
		},
		[]string{"rule", "outcome"},
	)
)

// 结果标签常量
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)
