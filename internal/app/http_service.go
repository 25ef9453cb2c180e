package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/logger"
)

// APIService 对外 HTTP API
type APIService struct {
	server *http.Server
	bound  chan net.Addr
}

// NewAPIService 按服务配置创建 HTTP 服务
func NewAPIService(cfg config.ServerConfig, handler http.Handler) *APIService {
	return &APIService{
		server: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: seconds(cfg.ReadHeaderTimeoutSeconds),
			WriteTimeout:      seconds(cfg.WriteTimeoutSeconds),
			IdleTimeout:       seconds(cfg.IdleTimeoutSeconds),
		},
		bound: make(chan net.Addr, 1),
	}
}

// Name 组件名称
func (s *APIService) Name() string {
	return ModeAPI
}

// Start 监听端口并阻塞到 Stop
func (s *APIService) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("app: listen %s: %w", s.server.Addr, err)
	}
	logger.Infow("api_listening", "addr", ln.Addr().String())
	s.bound <- ln.Addr()
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 优雅关闭，等待进行中的请求完成
func (s *APIService) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
