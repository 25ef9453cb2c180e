package public

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// WechatNotify 微信支付异步通知
func (h *Handler) WechatNotify(c *gin.Context) {
	log := requestLog(c)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Warnw("wechat_callback_body_read_failed", "error", err)
		respondWechatCallback(c, false)
		return
	}
	if !isWechatCallbackRequest(c, body) {
		log.Warnw("wechat_callback_not_matched", "client_ip", c.ClientIP(), "body_size", len(body))
		respondWechatCallback(c, false)
		return
	}
	log.Infow("wechat_callback_received",
		"client_ip", c.ClientIP(),
		"body_size", len(body),
		"wechatpay_timestamp", strings.TrimSpace(c.GetHeader("Wechatpay-Timestamp")),
		"wechatpay_serial", strings.TrimSpace(c.GetHeader("Wechatpay-Serial")),
	)

	headers := make(map[string]string)
	for key, values := range c.Request.Header {
		if len(values) == 0 {
			continue
		}
		headers[key] = values[0]
	}

	record, err := h.PaymentService.HandleWechatNotify(c.Request.Context(), headers, body)
	if err != nil {
		log.Warnw("wechat_callback_handle_failed", "error", err)
		respondWechatCallback(c, false)
		return
	}
	log.Infow("wechat_callback_processed",
		"txn_ref", record.TxnRef,
		"status", record.Status,
	)
	respondWechatCallback(c, true)
}

func isWechatCallbackRequest(c *gin.Context, body []byte) bool {
	if strings.TrimSpace(c.GetHeader("Wechatpay-Signature")) == "" {
		return false
	}
	if strings.TrimSpace(c.GetHeader("Wechatpay-Timestamp")) == "" {
		return false
	}
	if strings.TrimSpace(c.GetHeader("Wechatpay-Nonce")) == "" {
		return false
	}
	if strings.TrimSpace(c.GetHeader("Wechatpay-Serial")) == "" {
		return false
	}

	payload := map[string]interface{}{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}
	resourceRaw, ok := payload["resource"]
	if !ok {
		return false
	}
	_, ok = resourceRaw.(map[string]interface{})
	return ok
}

func respondWechatCallback(c *gin.Context, success bool) {
	if success {
		c.JSON(http.StatusOK, gin.H{
			"code":    "SUCCESS",
			"message": "成功",
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    "FAIL",
		"message": "失败",
	})
}
