package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// errServiceExited 组件在未收到停止信号时自行返回
var errServiceExited = errors.New("app: service exited")

// Service 由 Runner 管理生命周期的组件
// Start 阻塞到组件退出，Stop 需让 Start 尽快返回
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Runner 并发运行各组件；任一组件退出或 ctx 取消后按启动的逆序停止全部组件
type Runner struct {
	services []Service
	log      *zap.SugaredLogger
}

// NewRunner 创建运行器，组件名必须唯一
func NewRunner(log *zap.SugaredLogger, services ...Service) (*Runner, error) {
	if len(services) == 0 {
		return nil, errors.New("app: no services to run")
	}
	seen := make(map[string]struct{}, len(services))
	for _, svc := range services {
		if svc == nil {
			return nil, errors.New("app: nil service")
		}
		if _, dup := seen[svc.Name()]; dup {
			return nil, fmt.Errorf("app: duplicate service %q", svc.Name())
		}
		seen[svc.Name()] = struct{}{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Runner{services: services, log: log}, nil
}

// Run 阻塞到全部组件停止；由 ctx 取消或组件正常退出引起的停止返回 nil
func (r *Runner) Run(ctx context.Context, stopTimeout time.Duration) error {
	eg, egCtx := errgroup.WithContext(ctx)
	for _, svc := range r.services {
		eg.Go(func() error {
			r.log.Infow("service_start", "service", svc.Name())
			err := svc.Start(egCtx)
			r.log.Infow("service_exit", "service", svc.Name(), "error", err)
			if err == nil {
				return fmt.Errorf("%w: %s", errServiceExited, svc.Name())
			}
			return err
		})
	}
	eg.Go(func() error {
		<-egCtx.Done()
		r.stopAll(stopTimeout)
		return nil
	})

	err := eg.Wait()
	if errors.Is(err, errServiceExited) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (r *Runner) stopAll(timeout time.Duration) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for i := len(r.services) - 1; i >= 0; i-- {
		svc := r.services[i]
		if err := svc.Stop(stopCtx); err != nil {
			r.log.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
		}
	}
}
