package app

import (
	"context"
	"errors"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/realtime"
)

// RealtimeService 消费跨实例 broker 并投递到本地 Hub
type RealtimeService struct {
	propagator *realtime.Propagator
}

// NewRealtimeService 创建实时推送服务
func NewRealtimeService(propagator *realtime.Propagator) *RealtimeService {
	return &RealtimeService{propagator: propagator}
}

// Name 服务名称
func (s *RealtimeService) Name() string {
	return "realtime"
}

// Start 阻塞消费直到 ctx 取消
func (s *RealtimeService) Start(ctx context.Context) error {
	if s == nil || s.propagator == nil {
		return errors.New("realtime propagator not initialized")
	}
	err := s.propagator.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stop 连接由容器统一关闭
func (s *RealtimeService) Stop(_ context.Context) error {
	return nil
}
