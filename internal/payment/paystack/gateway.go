package paystack

import (
	"context"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/breaker"

	"github.com/sony/gobreaker"
)

// Gateway 带熔断的 Paystack 客户端
type Gateway struct {
	cfg Config
	cb  *gobreaker.CircuitBreaker
}

// NewGateway 创建支付网关
func NewGateway(cfg Config) *Gateway {
	cfg.Normalize()
	return &Gateway{
		cfg: cfg,
		cb:  breaker.New("paystack", breaker.DefaultSettings()),
	}
}

// Config 返回网关配置
func (g *Gateway) Config() Config {
	return g.cfg
}

// Initialize 初始化交易
func (g *Gateway) Initialize(ctx context.Context, input InitializeInput) (*InitializeResult, error) {
	out, err := g.cb.Execute(func() (interface{}, error) {
		return InitializeTransaction(ctx, &g.cfg, input)
	})
	if err != nil {
		return nil, err
	}
	return out.(*InitializeResult), nil
}

// VerifySignature 校验 Webhook 签名
func (g *Gateway) VerifySignature(body []byte, signature string) error {
	return VerifyWebhookSignature(g.cfg.SecretKey, body, signature)
}
