package queue

import (
	"errors"

	"github.com/bluepay/internal/config"
	"github.com/bluepay/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 高优先级队列名称
	CriticalQueue = constants.QueueCritical

	defaultConcurrency  = 10
	cleanupMaxRetry     = 5
	notifyMaxRetry      = 3
	cleanupTaskIDPrefix = "proof-cleanup:"
)

// Client 队列客户端封装，未启用时所有投递均为空操作
type Client struct {
	client *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{client: asynq.NewClient(redisOpt(cfg))}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueueProofCleanup 推送孤立凭证清理任务，同一 blob 只保留一个待执行任务
func (c *Client) EnqueueProofCleanup(payload ProofCleanupPayload, opts ...asynq.Option) error {
	task, err := NewProofCleanupTask(payload)
	if err != nil {
		return err
	}
	base := []asynq.Option{
		asynq.Queue(DefaultQueue),
		asynq.MaxRetry(cleanupMaxRetry),
		asynq.TaskID(cleanupTaskIDPrefix + payload.BlobKey),
	}
	return c.enqueue(task, append(base, opts...))
}

// EnqueueWithdrawalNotify 推送提现申请管理员通知任务
func (c *Client) EnqueueWithdrawalNotify(payload WithdrawalNotifyPayload, opts ...asynq.Option) error {
	task, err := NewWithdrawalNotifyTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, append([]asynq.Option{asynq.Queue(CriticalQueue), asynq.MaxRetry(notifyMaxRetry)}, opts...))
}

// EnqueueUpgradeNotify 推送升级申请管理员通知任务
func (c *Client) EnqueueUpgradeNotify(payload UpgradeNotifyPayload, opts ...asynq.Option) error {
	task, err := NewUpgradeNotifyTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, append([]asynq.Option{asynq.Queue(CriticalQueue), asynq.MaxRetry(notifyMaxRetry)}, opts...))
}

func (c *Client) enqueue(task *asynq.Task, opts []asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	_, err := c.client.Enqueue(task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	concurrency := defaultConcurrency
	queues := map[string]int{CriticalQueue: 2, DefaultQueue: 1}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			queues = cfg.Queues
		}
	}
	return redisOpt(cfg), asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func redisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	if cfg == nil {
		cfg = &config.QueueConfig{}
	}
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}
