package realtime

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/config"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRedisClient 连接 DK_TEST_REDIS_ADDR（默认本机 6379），不可达时跳过
func testRedisClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := strings.TrimSpace(os.Getenv("DK_TEST_REDIS_ADDR"))
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DialTimeout: 300 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

// consumeInto 后台消费 broker，事件写入返回的通道
func consumeInto(t *testing.T, b Broker) <-chan ChangeEvent {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan ChangeEvent, 16)
	done := make(chan error, 1)
	go func() {
		done <- b.Consume(ctx, func(ev ChangeEvent) {
			select {
			case events <- ev:
			default:
			}
		})
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Errorf("%s consumer did not stop", b.Name())
		}
	})
	return events
}

// publishUntilReceived 订阅建立前的消息会丢失，因此重复发布直到收到
func publishUntilReceived(t *testing.T, b Broker, ev ChangeEvent, events <-chan ChangeEvent, within time.Duration) ChangeEvent {
	t.Helper()
	deadline := time.After(within)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		err := b.Publish(ctx, ev)
		cancel()
		require.NoError(t, err)
		select {
		case got := <-events:
			return got
		case <-deadline:
			t.Fatalf("%s broker did not deliver within %s", b.Name(), within)
			return ChangeEvent{}
		case <-tick.C:
		}
	}
}

func TestRedisBrokerRoundTrip(t *testing.T) {
	rdb := testRedisClient(t)
	channel := "dk_test_" + uuid.NewString()
	b, err := NewBroker(config.RealtimeConfig{Broker: "redis", Channel: channel}, rdb, NewHub())
	require.NoError(t, err)
	require.Equal(t, "redis", b.Name())

	events := consumeInto(t, b)
	sent := NewChangeEvent(repository.ChangeUpdate,
		order(11, constants.OrderStatusReceived, nil),
		order(11, constants.OrderStatusProcessing, uintPtr(3)))
	got := publishUntilReceived(t, b, sent, events, 3*time.Second)

	assert.Equal(t, repository.ChangeUpdate, got.Type)
	assert.Equal(t, uint(11), got.ID())
	require.NotNil(t, got.New)
	assert.Equal(t, constants.OrderStatusProcessing, got.New.Status)
	require.NotNil(t, got.New.PharmacyID)
	assert.Equal(t, uint(3), *got.New.PharmacyID)
	assert.Equal(t, constants.OrderStatusReceived, got.Old.Status)
}

func TestRedisBrokerBridgesToRemoteHub(t *testing.T) {
	rdb := testRedisClient(t)
	channel := "dk_test_" + uuid.NewString()

	// 两个实例共享同一频道，写入方实例与订阅方实例各自持有 Hub
	writerHub, readerHub := NewHub(), NewHub()
	writer := NewPropagator(NewRedisBroker(rdb, channel), writerHub)
	reader := NewPropagator(NewRedisBroker(rdb, channel), readerHub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = reader.Run(ctx) }()

	sub := readerHub.Subscribe(PharmacyTopic(5))
	defer readerHub.Unsubscribe(sub)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		writer.PublishOrderChange(repository.ChangeUpdate,
			order(21, constants.OrderStatusPendingPayment, nil),
			order(21, constants.OrderStatusReceived, uintPtr(5)))
		select {
		case ev := <-sub.C:
			assert.Equal(t, repository.ChangeInsert, ev.Type)
			assert.Equal(t, uint(21), ev.ID())
			return
		case <-time.After(100 * time.Millisecond):
		}
	}
	t.Fatal("remote hub did not receive pharmacy event")
}

func TestPropagatorFallsBackToLocalHubWhenRedisDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	hub := NewHub()
	p := NewPropagator(NewRedisBroker(rdb, ""), hub)
	sub := hub.Subscribe(OrderTopic(31))
	defer hub.Unsubscribe(sub)

	p.PublishOrderChange(repository.ChangeInsert, nil, order(31, constants.OrderStatusPendingPayment, nil))
	ev := receive(t, sub)
	assert.Equal(t, repository.ChangeInsert, ev.Type)
	assert.Equal(t, uint(31), ev.ID())
}

func TestNewBrokerKafkaRequiresTopic(t *testing.T) {
	_, err := NewBroker(config.RealtimeConfig{Broker: "kafka"}, nil, NewHub())
	assert.ErrorIs(t, err, ErrBrokerUnavailable)

	b, err := NewBroker(config.RealtimeConfig{Broker: "kafka", KafkaBrokers: []string{"127.0.0.1:9092"}, KafkaTopic: "orders"}, nil, NewHub())
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, "kafka", b.Name())
	kb, ok := b.(*KafkaBroker)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(kb.groupID, "discreetkit-realtime-"))
}

func TestKafkaBrokerRoundTrip(t *testing.T) {
	raw := strings.TrimSpace(os.Getenv("DK_TEST_KAFKA_BROKERS"))
	if raw == "" {
		t.Skip("DK_TEST_KAFKA_BROKERS not set")
	}
	topic := strings.TrimSpace(os.Getenv("DK_TEST_KAFKA_TOPIC"))
	if topic == "" {
		topic = "discreetkit_test_order_changes"
	}
	b := NewKafkaBroker(strings.Split(raw, ","), topic, "dk-test-"+uuid.NewString()[:8])
	defer b.Close()

	events := consumeInto(t, b)
	sent := NewChangeEvent(repository.ChangeInsert, nil, order(41, constants.OrderStatusPendingPayment, nil))
	got := publishUntilReceived(t, b, sent, events, 30*time.Second)
	assert.Equal(t, uint(41), got.ID())
	assert.Equal(t, repository.ChangeInsert, got.Type)
}
