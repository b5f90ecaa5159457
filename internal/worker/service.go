package worker

import (
	"context"
	"errors"
	"time"

	"github.com/bluepay/internal/config"
	"github.com/bluepay/internal/logger"
	"github.com/bluepay/internal/queue"

	"github.com/hibiken/asynq"
)

const defaultOrphanSweepInterval = 30 * time.Minute

// Service 异步队列服务
type Service struct {
	name          string
	server        *asynq.Server
	mux           *asynq.ServeMux
	consumer      *Consumer
	sweepInterval time.Duration
}

// NewService 创建异步队列服务
func NewService(cfg *config.Config, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Queue.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(&cfg.Queue)
	serverCfg.Logger = logger.S()
	serverCfg.ErrorHandler = asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		logger.Warnw("worker_task_failed", "type", task.Type(), "retried", retried, "max_retry", maxRetry, "error", err)
	})
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:          "worker",
		server:        server,
		mux:           mux,
		consumer:      consumer,
		sweepInterval: resolveSweepInterval(cfg.Storage.OrphanScanMinutes),
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动消费者并阻塞到 ctx 结束，信号由 Runner 统一处理
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	if s.consumer != nil && s.consumer.Container != nil && s.consumer.ReconciliationService != nil {
		go s.runOrphanSweepLoop(ctx)
	}
	<-ctx.Done()
	return nil
}

// Stop 等待进行中的任务完成后关闭
func (s *Service) Stop(context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	return nil
}

func (s *Service) runOrphanSweepLoop(ctx context.Context) {
	runOnce := func() {
		if _, err := s.consumer.ReconciliationService.SweepOrphanProofs(ctx); err != nil {
			logger.Warnw("worker_orphan_sweep_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

func resolveSweepInterval(minutes int) time.Duration {
	if minutes <= 0 {
		return defaultOrphanSweepInterval
	}
	return time.Duration(minutes) * time.Minute
}
