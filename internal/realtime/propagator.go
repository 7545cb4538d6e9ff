package realtime

import (
	"context"
	"time"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/logger"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"
)

const publishTimeout = 3 * time.Second

// Propagator 接收仓库层的订单变更并发布到 broker
type Propagator struct {
	broker Broker
	hub    *Hub
}

// NewPropagator 创建变更传播器
func NewPropagator(broker Broker, hub *Hub) *Propagator {
	return &Propagator{broker: broker, hub: hub}
}

// Hub 返回本地分发中心
func (p *Propagator) Hub() *Hub {
	return p.hub
}

// PublishOrderChange 实现 repository.OrderChangePublisher。
// broker 发布失败时仅投递给本实例订阅方，其余实例依赖客户端轮询。
func (p *Propagator) PublishOrderChange(changeType string, before, after *models.Order) {
	ev := NewChangeEvent(changeType, before, after)
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.broker.Publish(ctx, ev); err != nil {
		logger.Warnw("realtime_publish_failed",
			"broker", p.broker.Name(),
			"order_id", ev.ID(),
			"type", changeType,
			"error", err,
		)
		if p.hub != nil {
			p.hub.Dispatch(ev)
		}
	}
}

// Run 消费 broker 事件并分发到本地订阅方，阻塞至 ctx 结束
func (p *Propagator) Run(ctx context.Context) error {
	logger.Infow("realtime_bridge_started", "broker", p.broker.Name())
	err := p.broker.Consume(ctx, p.hub.Dispatch)
	logger.Infow("realtime_bridge_stopped", "broker", p.broker.Name())
	return err
}

// Close 关闭 broker
func (p *Propagator) Close() error {
	return p.broker.Close()
}
