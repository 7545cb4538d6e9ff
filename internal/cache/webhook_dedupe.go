package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ClaimWebhook 抢占 Webhook 处理权，已处理过的事件返回 false
func ClaimWebhook(ctx context.Context, provider, eventKey string, ttl time.Duration) (bool, error) {
	eventKey = strings.TrimSpace(eventKey)
	if eventKey == "" {
		return true, nil
	}
	return SetNX(ctx, webhookKey(provider, eventKey), time.Now().Unix(), ttl)
}

// ReleaseWebhook 处理失败时释放，允许网关重投
func ReleaseWebhook(ctx context.Context, provider, eventKey string) error {
	eventKey = strings.TrimSpace(eventKey)
	if eventKey == "" {
		return nil
	}
	return Del(ctx, webhookKey(provider, eventKey))
}

func webhookKey(provider, eventKey string) string {
	return fmt.Sprintf("webhook:%s:%s", strings.ToLower(strings.TrimSpace(provider)), eventKey)
}
