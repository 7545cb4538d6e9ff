package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	httpReadHeaderTimeout = 10 * time.Second
	httpIdleTimeout       = 120 * time.Second
)

// HTTPService API 服务。不设置写超时，SSE 连接由 Stop 统一断开
type HTTPService struct {
	name   string
	addr   string
	server *http.Server

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}
	cancel   context.CancelFunc
}

// NewHTTPService 创建 HTTP 服务
func NewHTTPService(addr string, handler http.Handler) *HTTPService {
	baseCtx, cancel := context.WithCancel(context.Background())
	return &HTTPService{
		name: "http",
		addr: addr,
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: httpReadHeaderTimeout,
			IdleTimeout:       httpIdleTimeout,
			BaseContext:       func(net.Listener) context.Context { return baseCtx },
		},
		ready:  make(chan struct{}),
		cancel: cancel,
	}
}

// Name 服务名称
func (s *HTTPService) Name() string {
	if s == nil || s.name == "" {
		return "http"
	}
	return s.name
}

// Start 监听并阻塞服务，Stop 后返回 nil
func (s *HTTPService) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("http server not initialized")
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	close(s.ready)

	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr 实际监听地址，Start 之前为空
func (s *HTTPService) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Ready 监听建立后关闭
func (s *HTTPService) Ready() <-chan struct{} {
	return s.ready
}

// Stop 先取消请求上下文使订阅流退出，再优雅关闭；超时后强制断开
func (s *HTTPService) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.cancel()
	err := s.server.Shutdown(ctx)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return s.server.Close()
	}
	return err
}
