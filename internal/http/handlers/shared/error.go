package shared

import (
	"errors"

	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, msg string, err error) {
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", code,
			"message", msg,
			"error", err,
		)
	}
	response.Error(c, code, msg)
}

// RespondServiceError 按业务错误的类别返回响应，仅对 500 类错误记录原始错误。
func RespondServiceError(c *gin.Context, err error, fallbackMsg string) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		RespondError(c, response.CodeInternal, fallbackMsg, err)
		return
	}
	code := response.CodeOfKind(svcErr.Code)
	if code == response.CodeInternal {
		RespondError(c, code, svcErr.Message, err)
		return
	}
	RespondError(c, code, svcErr.Message, nil)
}
