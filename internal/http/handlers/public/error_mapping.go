package public

import (
	"errors"

	handlershared "github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/payment"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义非业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

// respondWithMappedError 先匹配规则表，再按业务错误码响应。
func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	handlershared.RespondServiceError(c, err, fallbackMsg)
}

var checkoutErrorRules = []mappedHandlerError{
	{target: payment.ErrMethodInvalid, code: response.CodeBadRequest, msg: service.ErrPaymentMethodInvalid.Message},
}

func respondCheckoutError(c *gin.Context, err error) {
	respondWithMappedError(c, err, checkoutErrorRules, "checkout failed")
}

func respondCartError(c *gin.Context, err error) {
	respondWithMappedError(c, err, nil, "cart update failed")
}

func respondOrderError(c *gin.Context, err error) {
	respondWithMappedError(c, err, nil, "order operation failed")
}

func respondLocationError(c *gin.Context, err error) {
	respondWithMappedError(c, err, nil, "location lookup failed")
}
