package queue

import (
	"encoding/json"

	"github.com/bazaar-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderTimeoutCancel 超时取消任务
	TaskOrderTimeoutCancel = constants.TaskOrderTimeoutCancel
	// TaskOrderTrackingSync 运输中订单状态同步任务
	TaskOrderTrackingSync = constants.TaskOrderTrackingSync
	// TaskShippingCancel 承运商运单取消任务
	TaskShippingCancel = constants.TaskShippingCancel
)

// OrderTimeoutCancelPayload 超时取消任务载荷
type OrderTimeoutCancelPayload struct {
	OrderID uint `json:"order_id"`
}

// ShippingCancelPayload 运单取消任务载荷
type ShippingCancelPayload struct {
	OrderCode string `json:"order_code"`
	OrderID   uint   `json:"order_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// NewOrderTimeoutCancelTask 创建超时取消任务
func NewOrderTimeoutCancelTask(payload OrderTimeoutCancelPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderTimeoutCancel, body), nil
}

// NewOrderTrackingSyncTask 创建状态同步任务（无载荷）
func NewOrderTrackingSyncTask() *asynq.Task {
	return asynq.NewTask(TaskOrderTrackingSync, nil)
}

// NewShippingCancelTask 创建运单取消任务
func NewShippingCancelTask(payload ShippingCancelPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskShippingCancel, body), nil
}
