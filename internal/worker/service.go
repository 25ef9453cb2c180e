package worker

import (
	"context"
	"errors"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 消费异步任务的 worker
type Service struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewService 创建 worker，队列未启用时返回错误
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		server: asynq.NewServer(opt, serverCfg),
		mux:    mux,
	}, nil
}

// Name 组件名称
func (s *Service) Name() string {
	return "worker"
}

// Start 开始消费并阻塞到 ctx 取消
func (s *Service) Start(ctx context.Context) error {
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// Stop 等待进行中的任务完成后退出
func (s *Service) Stop(context.Context) error {
	s.server.Shutdown()
	return nil
}
