// Package breaker 为外部服务调用提供熔断，服务不可用时快速失败。
package breaker

import (
	"time"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/logger"

	"github.com/sony/gobreaker"
)

// Settings 熔断参数
type Settings struct {
	MaxRequests  uint32        // 半开状态允许的探测请求数
	Interval     time.Duration // 闭合状态下计数清零周期
	Timeout      time.Duration // 打开状态持续时间
	MinRequests  uint32        // 触发熔断的最小请求数
	FailureRatio float64       // 触发熔断的失败比例
}

// DefaultSettings 默认熔断参数
func DefaultSettings() Settings {
	return Settings{
		MaxRequests:  1,
		Interval:     10 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.5,
	}
}

// New 创建熔断器
func New(name string, s Settings) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= s.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warnw("circuit_breaker_state_changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}
