package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWithdrawalTransitionsCounter(t *testing.T) {
	before := testutil.ToFloat64(WithdrawalTransitions.WithLabelValues("approved", OutcomeOK))
	WithdrawalTransitions.WithLabelValues("approved", OutcomeOK).Inc()
	after := testutil.ToFloat64(WithdrawalTransitions.WithLabelValues("approved", OutcomeOK))
	if after-before != 1 {
		t.Fatalf("expected counter to increase by 1, got %v", after-before)
	}
}
