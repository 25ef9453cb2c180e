package admin

import (
	"strconv"
	"strings"

	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// AdminListOrders 管理端订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	userID, err := parseQueryUint(c, "user_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "user_id is invalid", err)
		return
	}
	shopID, err := parseQueryUint(c, "shop_id")
	if err != nil {
		respondError(c, response.CodeBadRequest, "shop_id is invalid", err)
		return
	}

	orders, total, err := h.OrderService.ListOrdersAdmin(repository.OrderListFilter{
		Page:       page,
		PageSize:   pageSize,
		UserID:     userID,
		ShopID:     shopID,
		Status:     strings.TrimSpace(c.Query("status")),
		CheckoutNo: strings.TrimSpace(c.Query("checkout_no")),
		OrderNo:    strings.TrimSpace(c.Query("order_no")),
		Keyword:    strings.TrimSpace(c.Query("keyword")),
	})
	if err != nil {
		respondServiceError(c, err, "order fetch failed")
		return
	}
	response.SuccessWithPage(c, orders, page, pageSize, total)
}

// AdminGetOrder 管理端订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrderAdmin(orderID)
	if err != nil {
		respondServiceError(c, err, "order fetch failed")
		return
	}
	response.Success(c, order)
}

// AdminCancelOrder 管理端取消订单
func (h *Handler) AdminCancelOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.CancelOrderByAdmin(orderID)
	if err != nil {
		respondServiceError(c, err, "order cancel failed")
		return
	}
	operator, _ := c.Get("user_id")
	requestLog(c).Infow("admin_order_cancelled", "order_id", orderID, "operator", operator)
	response.Success(c, order)
}

// AdminConfirmOrder 管理端确认订单
func (h *Handler) AdminConfirmOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.ConfirmOrder(orderID)
	if err != nil {
		respondServiceError(c, err, "order confirm failed")
		return
	}
	response.Success(c, order)
}

// AdminSyncTrackingOrders 立即执行一次运输中订单状态同步
func (h *Handler) AdminSyncTrackingOrders(c *gin.Context) {
	report, err := h.OrderService.UpdateTrackingOrdersStatus(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "tracking sync failed")
		return
	}
	response.Success(c, report)
}
