package worker

import (
	"context"
	"testing"
	"time"

	"github.com/bluepay/internal/queue"

	"github.com/hibiken/asynq"
)

func TestHandlersRejectMalformedPayload(t *testing.T) {
	consumer := NewConsumer(nil)
	handlers := map[string]func(context.Context, *asynq.Task) error{
		queue.TaskProofCleanup:     consumer.handleProofCleanup,
		queue.TaskWithdrawalNotify: consumer.handleWithdrawalNotify,
		queue.TaskUpgradeNotify:    consumer.handleUpgradeNotify,
	}
	for name, handler := range handlers {
		if err := handler(context.Background(), asynq.NewTask(name, []byte("{bad"))); err == nil {
			t.Fatalf("%s: expected unmarshal error", name)
		}
	}
}

func TestHandlersSkipEmptyPayload(t *testing.T) {
	consumer := NewConsumer(nil)
	handlers := map[string]func(context.Context, *asynq.Task) error{
		queue.TaskProofCleanup:     consumer.handleProofCleanup,
		queue.TaskWithdrawalNotify: consumer.handleWithdrawalNotify,
		queue.TaskUpgradeNotify:    consumer.handleUpgradeNotify,
	}
	for name, handler := range handlers {
		if err := handler(context.Background(), asynq.NewTask(name, []byte("{}"))); err != nil {
			t.Fatalf("%s: expected skip, got %v", name, err)
		}
	}
}

func TestHandlersSkipWithoutServices(t *testing.T) {
	consumer := NewConsumer(nil)
	task, err := queue.NewWithdrawalNotifyTask(queue.WithdrawalNotifyPayload{WithdrawalID: 9})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleWithdrawalNotify(context.Background(), task); err != nil {
		t.Fatalf("expected skip without notification service, got %v", err)
	}
	cleanup, err := queue.NewProofCleanupTask(queue.ProofCleanupPayload{BlobKey: "withdrawal-proofs/1/1.png"})
	if err != nil {
		t.Fatalf("build cleanup task failed: %v", err)
	}
	if err := consumer.handleProofCleanup(context.Background(), cleanup); err != nil {
		t.Fatalf("expected skip without proof service, got %v", err)
	}
}

func TestResolveSweepInterval(t *testing.T) {
	if got := resolveSweepInterval(0); got != defaultOrphanSweepInterval {
		t.Fatalf("unexpected default interval: %v", got)
	}
	if got := resolveSweepInterval(5); got != 5*time.Minute {
		t.Fatalf("unexpected interval: %v", got)
	}
}
