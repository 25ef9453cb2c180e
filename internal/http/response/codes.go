package response

import "net/http"

// 业务状态码，沿用 HTTP 语义
const (
	CodeOK              = 0
	CodeBadRequest      = http.StatusBadRequest
	CodeUnauthorized    = http.StatusUnauthorized
	CodeForbidden       = http.StatusForbidden
	CodeNotFound        = http.StatusNotFound
	CodeTooManyRequests = http.StatusTooManyRequests
	CodeInternal        = http.StatusInternalServerError
)

// CodeOfKind 将结算错误的类别（HTTP 语义码）收敛为响应码：404 / 400 原样返回，其余一律 500
func CodeOfKind(kind int) int {
	switch kind {
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusBadRequest:
		return CodeBadRequest
	default:
		return CodeInternal
	}
}
