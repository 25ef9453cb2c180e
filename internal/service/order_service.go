package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/metrics"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/queue"
	"github.com/bazaar-next/internal/repository"
	"github.com/bazaar-next/internal/shipping"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const defaultTrackingSyncConcurrency = 8

var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPendingPayment: {
		constants.OrderStatusPendingConfirmation: true,
		constants.OrderStatusCancelled:           true,
	},
	constants.OrderStatusPendingConfirmation: {
		constants.OrderStatusTracking:  true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusTracking: {
		constants.OrderStatusDelivered: true,
		constants.OrderStatusCancelled: true,
	},
}

func canTransition(from, to string) bool {
	return allowedTransitions[from][to]
}

// OrderService 订单服务
type OrderService struct {
	orderRepo       repository.OrderRepository
	couponRepo      repository.CouponRepository
	shipper         shipping.Resolver
	queueClient     *queue.Client
	syncConcurrency int
	clock           func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, couponRepo repository.CouponRepository, shipper shipping.Resolver, queueClient *queue.Client, syncConcurrency int) *OrderService {
	if syncConcurrency <= 0 {
		syncConcurrency = defaultTrackingSyncConcurrency
	}
	return &OrderService{
		orderRepo:       orderRepo,
		couponRepo:      couponRepo,
		shipper:         shipper,
		queueClient:     queueClient,
		syncConcurrency: syncConcurrency,
		clock:           time.Now,
	}
}

// TrackingSyncReport 一次物流状态同步的统计
type TrackingSyncReport struct {
	Checked   int `json:"checked"`
	Delivered int `json:"delivered"`
	Cancelled int `json:"cancelled"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// GetOrderByUser 获取用户订单详情
func (s *OrderService) GetOrderByUser(orderID, userID uint) (*models.SalesOrder, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetOrderAdmin 管理端获取订单详情
func (s *OrderService) GetOrderAdmin(orderID uint) (*models.SalesOrder, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrdersByUser 用户订单列表
func (s *OrderService) ListOrdersByUser(filter repository.OrderListFilter) ([]models.SalesOrder, int64, error) {
	return s.orderRepo.ListByUser(filter)
}

// ListOrdersAdmin 管理端订单列表
func (s *OrderService) ListOrdersAdmin(filter repository.OrderListFilter) ([]models.SalesOrder, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// CancelOrder 用户取消订单，仅限待付款或待确认的本人订单
func (s *OrderService) CancelOrder(orderID, userID uint) (*models.SalesOrder, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return s.cancel(order, "user_cancel", false)
}

// CancelOrderByAdmin 管理端取消订单，状态规则与用户取消相同
func (s *OrderService) CancelOrderByAdmin(orderID uint) (*models.SalesOrder, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return s.cancel(order, "admin_cancel", false)
}

// CancelExpiredOrder 超时未付款的订单自动取消并归还优惠券次数
// 订单已付款或尚未过期时不做处理
func (s *OrderService) CancelExpiredOrder(orderID uint) (bool, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return false, err
	}
	if order == nil || order.Status != constants.OrderStatusPendingPayment {
		return false, nil
	}
	if order.ExpiresAt != nil && s.clock().Before(*order.ExpiresAt) {
		return false, nil
	}
	if _, err := s.cancel(order, "payment_timeout", true); err != nil {
		if errors.Is(err, ErrOrderCancelNotAllowed) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func isCancellable(status string) bool {
	return status == constants.OrderStatusPendingPayment || status == constants.OrderStatusPendingConfirmation
}

func (s *OrderService) cancel(order *models.SalesOrder, reason string, releaseCoupons bool) (*models.SalesOrder, error) {
	if !isCancellable(order.Status) || !canTransition(order.Status, constants.OrderStatusCancelled) {
		return nil, ErrOrderCancelNotAllowed
	}
	now := s.clock()
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		ok, err := s.orderRepo.WithTx(tx).UpdateStatus(order.ID, []string{order.Status}, constants.OrderStatusCancelled, map[string]interface{}{
			"cancelled_at": now,
			"updated_at":   now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return ErrOrderCancelNotAllowed
		}
		if !releaseCoupons {
			return nil
		}
		couponRepo := s.couponRepo.WithTx(tx)
		for _, code := range order.CouponCodes() {
			if err := couponRepo.ReleaseUsage(code); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cancelShipment(s.queueClient, s.shipper, queue.ShippingCancelPayload{
		OrderCode: order.ShippingOrderCode,
		OrderID:   order.ID,
		Reason:    reason,
	})
	logger.Infow("order_cancelled",
		"order_id", order.ID,
		"from_status", order.Status,
		"reason", reason,
	)
	order.Status = constants.OrderStatusCancelled
	order.CancelledAt = &now
	order.UpdatedAt = now
	return order, nil
}

// ConfirmOrder 确认订单并进入运输中
func (s *OrderService) ConfirmOrder(orderID uint) (*models.SalesOrder, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return s.confirm(order)
}

// ConfirmOrderByShopOwner 店主确认自己店铺的订单
func (s *OrderService) ConfirmOrderByShopOwner(orderID, ownerID uint) (*models.SalesOrder, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.Shop == nil || order.Shop.OwnerID != ownerID {
		return nil, ErrOrderNotFound
	}
	return s.confirm(order)
}

func (s *OrderService) confirm(order *models.SalesOrder) (*models.SalesOrder, error) {
	if order.Status != constants.OrderStatusPendingConfirmation {
		return nil, ErrOrderConfirmNotAllowed
	}
	now := s.clock()
	ok, err := s.orderRepo.UpdateStatus(order.ID, []string{order.Status}, constants.OrderStatusTracking, map[string]interface{}{
		"updated_at": now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOrderConfirmNotAllowed
	}
	order.Status = constants.OrderStatusTracking
	order.UpdatedAt = now
	return order, nil
}

// UpdateTrackingOrdersStatus 向承运商查询所有运输中订单并回写状态
// 单个订单查询失败只记录日志，不影响其他订单
func (s *OrderService) UpdateTrackingOrdersStatus(ctx context.Context) (*TrackingSyncReport, error) {
	orders, err := s.orderRepo.ListTracking(0)
	if err != nil {
		return nil, err
	}
	report := &TrackingSyncReport{Checked: len(orders)}
	var mu sync.Mutex
	record := func(outcome string) {
		mu.Lock()
		defer mu.Unlock()
		switch outcome {
		case constants.OrderStatusDelivered:
			report.Delivered++
		case constants.OrderStatusCancelled:
			report.Cancelled++
		case "failed":
			report.Failed++
		default:
			report.Unchanged++
		}
		metrics.IncTrackingSync(outcome)
	}

	var eg errgroup.Group
	eg.SetLimit(s.syncConcurrency)
	for i := range orders {
		order := &orders[i]
		eg.Go(func() error {
			if ctx.Err() != nil {
				record("failed")
				return nil
			}
			outcome, err := s.syncOrder(ctx, order)
			if err != nil {
				logger.Warnw("order_tracking_sync_failed",
					"order_id", order.ID,
					"shipping_order_code", order.ShippingOrderCode,
					"error", err,
				)
				record("failed")
				return nil
			}
			record(outcome)
			return nil
		})
	}
	_ = eg.Wait()

	logger.Infow("order_tracking_sync_done",
		"checked", report.Checked,
		"delivered", report.Delivered,
		"cancelled", report.Cancelled,
		"unchanged", report.Unchanged,
		"failed", report.Failed,
	)
	return report, ctx.Err()
}

func (s *OrderService) syncOrder(ctx context.Context, order *models.SalesOrder) (string, error) {
	raw, err := s.shipper.ShipmentStatus(ctx, order.ShippingOrderCode)
	if err != nil {
		return "", err
	}
	status, ok := shipping.MapExternalStatus(raw)
	if !ok || !canTransition(order.Status, status) {
		return "unchanged", nil
	}
	now := s.clock()
	updates := map[string]interface{}{"updated_at": now}
	switch status {
	case constants.OrderStatusDelivered:
		updates["delivered_at"] = now
	case constants.OrderStatusCancelled:
		updates["cancelled_at"] = now
	}
	updated, err := s.orderRepo.UpdateStatus(order.ID, []string{constants.OrderStatusTracking}, status, updates)
	if err != nil {
		return "", err
	}
	if !updated {
		return "unchanged", nil
	}
	logger.Infow("order_tracking_status_updated",
		"order_id", order.ID,
		"external_status", raw,
		"status", status,
	)
	return status, nil
}
