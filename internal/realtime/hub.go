package realtime

import (
	"sync"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/logger"
)

const defaultSubscriptionBuffer = 32

// Subscription 单个订阅连接
type Subscription struct {
	Topic string
	C     <-chan ChangeEvent

	ch   chan ChangeEvent
	once sync.Once
}

// Hub 进程内订阅分发
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription]struct{}
	buffer int
}

// NewHub 创建分发中心
func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[*Subscription]struct{}),
		buffer: defaultSubscriptionBuffer,
	}
}

// Subscribe 订阅主题
func (h *Hub) Subscribe(topic string) *Subscription {
	ch := make(chan ChangeEvent, h.buffer)
	sub := &Subscription{Topic: topic, C: ch, ch: ch}

	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Subscription]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

// Unsubscribe 取消订阅并关闭通道
func (h *Hub) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	h.mu.Lock()
	if subs, ok := h.topics[sub.Topic]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.topics, sub.Topic)
		}
	}
	h.mu.Unlock()
	sub.once.Do(func() { close(sub.ch) })
}

// Subscribers 返回主题当前订阅数
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Dispatch 按路由规则分发事件。订阅方缓冲已满时丢弃，由客户端轮询兜底。
func (h *Hub) Dispatch(ev ChangeEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, d := range Route(ev) {
		for sub := range h.topics[d.Topic] {
			select {
			case sub.ch <- d.Event:
			default:
				logger.Warnw("realtime_subscriber_buffer_full", "topic", d.Topic, "order_id", ev.ID())
			}
		}
	}
}
