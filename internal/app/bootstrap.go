package app

import (
	"context"
	"errors"
	"os/signal"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/metrics"
	"github.com/bazaar-next/internal/provider"
	"github.com/bazaar-next/internal/router"
	"github.com/bazaar-next/internal/worker"

	"go.uber.org/zap"
)

// BuildRunner 按组件组装运行器
func BuildRunner(cfg *config.Config, components Components, log *zap.SugaredLogger) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	if cfg.Metrics.Enabled {
		metrics.Init(cfg.Metrics.Namespace, nil)
	}
	container := provider.NewContainer(cfg)

	var services []Service
	if components.API {
		services = append(services, NewAPIService(cfg.Server, router.SetupRouter(cfg, container)))
	}
	if components.Worker {
		workerService, err := worker.NewService(&cfg.Queue, worker.NewConsumer(container))
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	}
	if components.Scheduler {
		scheduler, err := worker.NewSchedulerService(&cfg.Queue, cfg.Order.TrackingSyncCron)
		if err != nil {
			return nil, err
		}
		services = append(services, scheduler)
	}
	return NewRunner(log, services...)
}

// Run 应用启动入口，收到 Signals 中的信号后优雅退出
func Run(opts Options) error {
	if opts.Config == nil {
		return errors.New("config is nil")
	}
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}
	components, err := ParseComponents(opts.Mode)
	if err != nil {
		return err
	}

	runner, err := BuildRunner(opts.Config, components, opts.Logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(ctx, opts.Signals...)
		defer cancel()
	}
	opts.Logger.Infow("app_start",
		"addr", opts.Config.Server.Host+":"+opts.Config.Server.Port,
		"components", components.String(),
	)
	return runner.Run(ctx, opts.shutdownTimeout())
}
