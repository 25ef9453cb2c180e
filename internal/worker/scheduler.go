package worker

import (
	"context"
	"errors"
	"strings"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/queue"

	"github.com/hibiken/asynq"
)

// SchedulerService 按 cron 周期投递运单状态同步任务，集群内只运行一份
type SchedulerService struct {
	scheduler *asynq.Scheduler
	entryID   string
}

// NewSchedulerService 创建调度组件，cron 为空时返回错误
func NewSchedulerService(cfg *config.QueueConfig, trackingCron string) (*SchedulerService, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	trackingCron = strings.TrimSpace(trackingCron)
	if trackingCron == "" {
		return nil, errors.New("tracking sync cron is empty")
	}
	opt, _ := queue.BuildServerConfig(cfg)
	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				logger.Warnw("worker_scheduler_enqueue_failed", "error", err)
				return
			}
			logger.Debugw("worker_scheduler_enqueued", "task", info.Type, "task_id", info.ID)
		},
	})
	entryID, err := scheduler.Register(trackingCron, queue.NewOrderTrackingSyncTask(),
		asynq.Queue(queue.DefaultQueue),
		asynq.Unique(queue.TrackingSyncUniqueTTL),
	)
	if err != nil {
		return nil, err
	}
	logger.Infow("worker_scheduler_registered", "task", queue.TaskOrderTrackingSync, "cron", trackingCron, "entry_id", entryID)
	return &SchedulerService{scheduler: scheduler, entryID: entryID}, nil
}

// Name 组件名称
func (s *SchedulerService) Name() string {
	return "scheduler"
}

// Start 启动调度并阻塞到 ctx 取消
func (s *SchedulerService) Start(ctx context.Context) error {
	if err := s.scheduler.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// Stop 停止调度
func (s *SchedulerService) Stop(context.Context) error {
	s.scheduler.Shutdown()
	return nil
}
