package shared

import (
	"io"
	"time"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/response"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/realtime"

	"github.com/gin-gonic/gin"
)

const streamKeepAlive = 25 * time.Second

// ServeStream 以 SSE 推送主题上的订单变更，连接断开时取消订阅
func ServeStream(c *gin.Context, hub *realtime.Hub, topic string) {
	if hub == nil {
		RespondError(c, response.CodeInternal, "error.stream_unavailable", nil)
		return
	}
	sub := hub.Subscribe(topic)
	defer hub.Unsubscribe(sub)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	RequestLog(c).Debugw("realtime_stream_opened", "topic", topic)
	ticker := time.NewTicker(streamKeepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.SSEvent("ready", gin.H{"topic": topic})
	c.Writer.Flush()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent("change", ev)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
	RequestLog(c).Debugw("realtime_stream_closed", "topic", topic)
}
