package admin

import (
	"strconv"
	"strings"
	"time"

	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/repository"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CouponRequest 创建/更新优惠券请求
type CouponRequest struct {
	Code              string          `json:"code"`
	Type              string          `json:"type" binding:"required"`
	DiscountType      string          `json:"discount_type" binding:"required"`
	Value             decimal.Decimal `json:"value"`
	MaxDiscountAmount decimal.Decimal `json:"max_discount_amount"`
	MinOrderValue     decimal.Decimal `json:"min_order_value"`
	MaxUseCount       int             `json:"max_use_count"`
	CategoryIDs       []uint          `json:"category_ids"`
	StartTime         time.Time       `json:"start_time"`
	EndTime           time.Time       `json:"end_time"`
	IsActive          *bool           `json:"is_active"`
}

func (r CouponRequest) toInput() service.CouponInput {
	return service.CouponInput{
		Code:              r.Code,
		Type:              r.Type,
		DiscountType:      r.DiscountType,
		Value:             models.NewMoneyFromDecimal(r.Value),
		MaxDiscountAmount: models.NewMoneyFromDecimal(r.MaxDiscountAmount),
		MinOrderValue:     models.NewMoneyFromDecimal(r.MinOrderValue),
		MaxUseCount:       r.MaxUseCount,
		CategoryIDs:       r.CategoryIDs,
		StartTime:         r.StartTime,
		EndTime:           r.EndTime,
		IsActive:          r.IsActive,
	}
}

// ListCoupons 优惠券列表
func (h *Handler) ListCoupons(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.CouponListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     strings.TrimSpace(c.Query("code")),
		Type:     strings.TrimSpace(c.Query("type")),
	}
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "is_active is invalid", err)
			return
		}
		filter.IsActive = &active
	}

	coupons, total, err := h.CouponAdminService.List(filter)
	if err != nil {
		respondServiceError(c, err, "coupon fetch failed")
		return
	}
	response.SuccessWithPage(c, coupons, page, pageSize, total)
}

// CreateCoupon 创建优惠券
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	coupon, err := h.CouponAdminService.Create(req.toInput())
	if err != nil {
		respondServiceError(c, err, "coupon create failed")
		return
	}
	requestLog(c).Infow("admin_coupon_created", "code", coupon.Code, "type", coupon.Type)
	response.Success(c, coupon)
}

// UpdateCoupon 更新优惠券
func (h *Handler) UpdateCoupon(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	coupon, err := h.CouponAdminService.Update(c.Param("code"), req.toInput())
	if err != nil {
		respondServiceError(c, err, "coupon update failed")
		return
	}
	response.Success(c, coupon)
}

// DeleteCoupon 删除优惠券
func (h *Handler) DeleteCoupon(c *gin.Context) {
	code := c.Param("code")
	if err := h.CouponAdminService.Delete(code); err != nil {
		respondServiceError(c, err, "coupon delete failed")
		return
	}
	requestLog(c).Infow("admin_coupon_deleted", "code", code)
	response.Success(c, gin.H{"deleted": true})
}
