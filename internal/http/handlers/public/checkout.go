package public

import (
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/payment"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutPreviewRequest 结算预览请求
type CheckoutPreviewRequest struct {
	WardID             uint   `json:"ward_id" binding:"required"`
	ProductCouponCode  string `json:"product_coupon_code"`
	ShippingCouponCode string `json:"shipping_coupon_code"`
}

// CheckoutRequest 结算请求
type CheckoutRequest struct {
	WardID             uint   `json:"ward_id" binding:"required"`
	ShippingName       string `json:"shipping_name"`
	ShippingPhone      string `json:"shipping_phone"`
	ShippingAddress    string `json:"shipping_address"`
	PaymentMethod      string `json:"payment_method" binding:"required"`
	ProductCouponCode  string `json:"product_coupon_code"`
	ShippingCouponCode string `json:"shipping_coupon_code"`
}

// PreviewCheckout 结算预览，不落库
func (h *Handler) PreviewCheckout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	preview, err := h.CheckoutService.Preview(c.Request.Context(), service.PreviewInput{
		UserID:             uid,
		WardID:             req.WardID,
		ProductCouponCode:  req.ProductCouponCode,
		ShippingCouponCode: req.ShippingCouponCode,
	})
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	response.Success(c, preview)
}

// Checkout 提交结算，按店铺拆单
func (h *Handler) Checkout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}
	method, err := payment.ParseMethod(req.PaymentMethod)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	result, err := h.CheckoutService.Checkout(c.Request.Context(), service.CheckoutInput{
		UserID:             uid,
		WardID:             req.WardID,
		ShippingName:       req.ShippingName,
		ShippingPhone:      req.ShippingPhone,
		ShippingAddress:    req.ShippingAddress,
		PaymentMethod:      method,
		ProductCouponCode:  req.ProductCouponCode,
		ShippingCouponCode: req.ShippingCouponCode,
		ClientIP:           c.ClientIP(),
	})
	if err != nil {
		respondCheckoutError(c, err)
		return
	}
	requestLog(c).Infow("checkout_completed",
		"user_id", uid,
		"checkout_no", result.CheckoutNo,
		"orders", len(result.Orders),
		"payment_method", method.Kind(),
	)
	response.Success(c, result)
}
