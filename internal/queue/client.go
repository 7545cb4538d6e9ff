package queue

import (
	"fmt"
	"strings"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/config"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault
	// CriticalQueue 高优先级队列名称
	CriticalQueue = constants.QueueCritical
)

// Client 队列客户端封装
type Client struct {
	client *asynq.Client
}

// NewClient 创建队列客户端，未启用时返回禁用状态的客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{client: asynq.NewClient(buildRedisOpt(cfg))}, nil
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

// EnqueueCustomerSMS 推送顾客短信任务。尽力而为，不重试。
func (c *Client) EnqueueCustomerSMS(payload CustomerSMSPayload, opts ...asynq.Option) error {
	task, err := NewCustomerSMSTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, append([]asynq.Option{asynq.Queue(DefaultQueue), asynq.MaxRetry(0)}, opts...)...)
}

// EnqueuePharmacyNotification 推送药房通知任务。每次调用只投递一次，重试由再次指派触发。
func (c *Client) EnqueuePharmacyNotification(payload PharmacyNotificationPayload, opts ...asynq.Option) error {
	task, err := NewPharmacyNotificationTask(payload)
	if err != nil {
		return err
	}
	return c.enqueue(task, append([]asynq.Option{asynq.Queue(CriticalQueue), asynq.MaxRetry(0)}, opts...)...)
}

func (c *Client) enqueue(task *asynq.Task, opts ...asynq.Option) error {
	if !c.Enabled() {
		return ErrQueueDisabled
	}
	_, err := c.client.Enqueue(task, opts...)
	return err
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	opt := buildRedisOpt(cfg)
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{CriticalQueue: 6, DefaultQueue: 3}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Host) != "" {
			host = strings.TrimSpace(cfg.Host)
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}
