package service

import (
	"errors"
	"net/http"
)

// Error 业务错误，Code 采用 HTTP 语义（404 / 400 / 500）
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func notFound(msg string) *Error   { return &Error{Code: http.StatusNotFound, Message: msg} }
func validation(msg string) *Error { return &Error{Code: http.StatusBadRequest, Message: msg} }
func external(msg string) *Error   { return &Error{Code: http.StatusInternalServerError, Message: msg} }

// 资源不存在
var (
	ErrWardNotFound     = notFound("ward not found")
	ErrCouponNotFound   = notFound("coupon not found")
	ErrOrderNotFound    = notFound("order not found")
	ErrProductNotFound  = notFound("product not found")
	ErrPaymentNotFound  = notFound("payment not found")
	ErrCategoryNotFound = notFound("category not found")
)

// 参数或业务校验失败
var (
	ErrEmptyCart               = validation("cart is empty")
	ErrInvalidQuantity         = validation("quantity must be greater than zero")
	ErrProductNotAvailable     = validation("product is not available")
	ErrShippingInfoInvalid     = validation("shipping name, phone and address are required")
	ErrPaymentMethodInvalid    = validation("payment method is invalid")
	ErrCheckoutInProgress      = validation("another checkout is in progress")
	ErrCouponTypeMismatch      = validation("coupon type mismatch")
	ErrCouponInactive          = validation("coupon is inactive")
	ErrCouponNotStarted        = validation("coupon has not started")
	ErrCouponExpired           = validation("coupon has expired")
	ErrCouponUsageLimit        = validation("coupon usage limit reached")
	ErrCouponMinAmount         = validation("order value below coupon minimum")
	ErrCouponCategoryMismatch  = validation("coupon does not apply to these categories")
	ErrOrderCancelNotAllowed   = validation("order cannot be cancelled in its current status")
	ErrOrderConfirmNotAllowed  = validation("order cannot be confirmed in its current status")
	ErrPaymentSignatureInvalid = validation("payment callback signature invalid")
	ErrPaymentAmountMismatch   = validation("payment amount mismatch")
	ErrCouponInvalid           = validation("coupon parameters are invalid")
	ErrCouponCodeExists        = validation("coupon code already exists")
)

// 外部依赖失败
var (
	ErrCouponFetchFailed         = external("failed to load coupon")
	ErrShippingFeeUnavailable    = external("shipping fee unavailable")
	ErrShipmentStatusUnavailable = external("shipment status unavailable")
	ErrPaymentURLUnavailable     = external("payment url unavailable")
	ErrPaymentGatewayUnavailable = external("payment gateway unavailable")
)

// CodeOf 返回错误对应的状态码，未知错误视为 500
func CodeOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return http.StatusInternalServerError
}
