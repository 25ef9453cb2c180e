package worker

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/provider"
	"github.com/bazaar-next/internal/queue"

	"github.com/hibiken/asynq"
)

const shippingCancelTimeout = 10 * time.Second

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderTimeoutCancel, c.handleOrderTimeoutCancel)
	mux.HandleFunc(queue.TaskShippingCancel, c.handleShippingCancel)
	mux.HandleFunc(queue.TaskOrderTrackingSync, c.handleOrderTrackingSync)
}

func (c *Consumer) handleOrderTimeoutCancel(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_timeout_cancel_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderTimeoutCancelPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_timeout_cancel_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_timeout_cancel_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.Container == nil || c.OrderService == nil {
		logger.Warnw("worker_order_timeout_cancel_skip_order_service_nil", "order_id", payload.OrderID)
		return nil
	}
	cancelled, err := c.OrderService.CancelExpiredOrder(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_timeout_cancel_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if !cancelled {
		logger.Debugw("worker_order_timeout_cancel_skip_not_expired", "order_id", payload.OrderID)
	}
	return nil
}

func (c *Consumer) handleShippingCancel(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_shipping_cancel_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ShippingCancelPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_shipping_cancel_unmarshal_failed", "error", err)
		return err
	}
	code := strings.TrimSpace(payload.OrderCode)
	if code == "" {
		logger.Debugw("worker_shipping_cancel_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.Container == nil || c.Shipper == nil {
		logger.Warnw("worker_shipping_cancel_skip_shipper_nil", "order_code", code)
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, shippingCancelTimeout)
	defer cancel()
	if err := c.Shipper.CancelShipment(callCtx, code); err != nil {
		logger.Warnw("worker_shipping_cancel_failed",
			"order_code", code,
			"order_id", payload.OrderID,
			"reason", payload.Reason,
			"error", err,
		)
		return err
	}
	logger.Infow("worker_shipping_cancelled",
		"order_code", code,
		"order_id", payload.OrderID,
		"reason", payload.Reason,
	)
	return nil
}

func (c *Consumer) handleOrderTrackingSync(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_tracking_sync_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	if c.Container == nil || c.OrderService == nil {
		logger.Warnw("worker_order_tracking_sync_skip_order_service_nil")
		return nil
	}
	// 单个订单失败已计入报告，这里只在整体中断时返回错误
	if _, err := c.OrderService.UpdateTrackingOrdersStatus(ctx); err != nil {
		logger.Warnw("worker_order_tracking_sync_failed", "error", err)
		return err
	}
	return nil
}
