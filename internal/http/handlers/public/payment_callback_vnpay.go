package public

import (
	"errors"
	"net/http"

	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
)

// vnpayIPNReply VNPay IPN 约定的应答结构
type vnpayIPNReply struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// VNPayReturn 用户支付完成后的浏览器回跳
func (h *Handler) VNPayReturn(c *gin.Context) {
	query := c.Request.URL.Query()
	requestLog(c).Infow("vnpay_return_received",
		"txn_ref", query.Get("vnp_TxnRef"),
		"response_code", query.Get("vnp_ResponseCode"),
		"client_ip", c.ClientIP(),
	)
	record, err := h.PaymentService.HandleVNPayReturn(query)
	if err != nil {
		respondWithMappedError(c, err, nil, "payment callback failed")
		return
	}
	response.Success(c, gin.H{
		"txn_ref": record.TxnRef,
		"status":  record.Status,
		"amount":  record.Amount,
	})
}

// VNPayIPN 服务端异步通知，应答码遵循 VNPay 约定
func (h *Handler) VNPayIPN(c *gin.Context) {
	log := requestLog(c)
	query := c.Request.URL.Query()
	record, err := h.PaymentService.HandleVNPayReturn(query)
	if err != nil {
		reply := vnpayIPNReplyFor(err)
		log.Warnw("vnpay_ipn_handle_failed",
			"txn_ref", query.Get("vnp_TxnRef"),
			"rsp_code", reply.RspCode,
			"error", err,
		)
		c.JSON(http.StatusOK, reply)
		return
	}
	log.Infow("vnpay_ipn_processed", "txn_ref", record.TxnRef, "status", record.Status)
	c.JSON(http.StatusOK, vnpayIPNReply{RspCode: "00", Message: "Confirm Success"})
}

func vnpayIPNReplyFor(err error) vnpayIPNReply {
	switch {
	case errors.Is(err, service.ErrPaymentSignatureInvalid):
		return vnpayIPNReply{RspCode: "97", Message: "Invalid signature"}
	case errors.Is(err, service.ErrPaymentNotFound):
		return vnpayIPNReply{RspCode: "01", Message: "Order not found"}
	case errors.Is(err, service.ErrPaymentAmountMismatch):
		return vnpayIPNReply{RspCode: "04", Message: "Invalid amount"}
	default:
		return vnpayIPNReply{RspCode: "99", Message: "Unknown error"}
	}
}
