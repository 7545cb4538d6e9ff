package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/config"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// Broker 跨实例传递变更事件
type Broker interface {
	Name() string
	Publish(ctx context.Context, ev ChangeEvent) error
	// Consume 阻塞消费事件直到 ctx 结束
	Consume(ctx context.Context, handle func(ChangeEvent)) error
	Close() error
}

// ErrBrokerUnavailable 所选 broker 缺少依赖
var ErrBrokerUnavailable = errors.New("realtime broker unavailable")

// NewBroker 根据配置创建 broker，redis 客户端为空时回退到进程内 broker
func NewBroker(cfg config.RealtimeConfig, rdb *redis.Client, hub *Hub) (Broker, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Broker)) {
	case "", "memory":
		return NewMemoryBroker(hub), nil
	case "redis":
		if rdb == nil {
			logger.Warnw("realtime_redis_broker_fallback_memory", "reason", "redis_disabled")
			return NewMemoryBroker(hub), nil
		}
		return NewRedisBroker(rdb, cfg.Channel), nil
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 || strings.TrimSpace(cfg.KafkaTopic) == "" {
			return nil, fmt.Errorf("%w: kafka brokers/topic not configured", ErrBrokerUnavailable)
		}
		return NewKafkaBroker(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID), nil
	default:
		return nil, fmt.Errorf("%w: unknown broker %q", ErrBrokerUnavailable, cfg.Broker)
	}
}

// MemoryBroker 单实例部署时直接投递到本地 Hub
type MemoryBroker struct {
	hub *Hub
}

// NewMemoryBroker 创建进程内 broker
func NewMemoryBroker(hub *Hub) *MemoryBroker {
	return &MemoryBroker{hub: hub}
}

// Name 名称
func (b *MemoryBroker) Name() string { return "memory" }

// Publish 同步分发
func (b *MemoryBroker) Publish(_ context.Context, ev ChangeEvent) error {
	b.hub.Dispatch(ev)
	return nil
}

// Consume 进程内 broker 无需消费，阻塞至 ctx 结束
func (b *MemoryBroker) Consume(ctx context.Context, _ func(ChangeEvent)) error {
	<-ctx.Done()
	return nil
}

// Close 关闭
func (b *MemoryBroker) Close() error { return nil }

// RedisBroker 基于 Redis Pub/Sub
type RedisBroker struct {
	rdb     *redis.Client
	channel string
}

// NewRedisBroker 创建 Redis broker
func NewRedisBroker(rdb *redis.Client, channel string) *RedisBroker {
	if strings.TrimSpace(channel) == "" {
		channel = "order_changes"
	}
	return &RedisBroker{rdb: rdb, channel: channel}
}

// Name 名称
func (b *RedisBroker) Name() string { return "redis" }

// Publish 发布事件
func (b *RedisBroker) Publish(ctx context.Context, ev ChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, payload).Err()
}

// Consume 订阅频道并回调
func (b *RedisBroker) Consume(ctx context.Context, handle func(ChangeEvent)) error {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Warnw("realtime_redis_payload_invalid", "error", err)
				continue
			}
			handle(ev)
		}
	}
}

// Close 关闭（Redis 客户端由调用方管理）
func (b *RedisBroker) Close() error { return nil }

// KafkaBroker 基于 Kafka 主题，每个实例使用独立消费组以接收全量事件
type KafkaBroker struct {
	writer  *kafka.Writer
	brokers []string
	topic   string
	groupID string
}

// NewKafkaBroker 创建 Kafka broker
func NewKafkaBroker(brokers []string, topic, groupID string) *KafkaBroker {
	if strings.TrimSpace(groupID) == "" {
		host, _ := os.Hostname()
		groupID = fmt.Sprintf("discreetkit-realtime-%s-%s", host, uuid.NewString()[:8])
	}
	return &KafkaBroker{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
		},
		brokers: brokers,
		topic:   topic,
		groupID: groupID,
	}
}

// Name 名称
func (b *KafkaBroker) Name() string { return "kafka" }

// Publish 以订单 ID 为 key 写入，保证同一订单事件有序
func (b *KafkaBroker) Publish(ctx context.Context, ev ChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(ev.ID()), 10)),
		Value: payload,
		Time:  ev.At,
	})
}

// Consume 消费主题
func (b *KafkaBroker) Consume(ctx context.Context, handle func(ChangeEvent)) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		Topic:       b.topic,
		GroupID:     b.groupID,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warnw("realtime_kafka_read_failed", "error", err)
			continue
		}
		var ev ChangeEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			logger.Warnw("realtime_kafka_payload_invalid", "error", err, "offset", msg.Offset)
			continue
		}
		handle(ev)
	}
}

// Close 关闭写入端
func (b *KafkaBroker) Close() error {
	return b.writer.Close()
}
