package shared

import (
	"github.com/bazaar-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// 鉴权中间件写入的上下文键
const (
	ContextKeyUserID    = "user_id"
	ContextKeyUserRoles = "user_roles"
)

// GetContextUint 从上下文读取 uint 值并统一处理错误响应。
func GetContextUint(c *gin.Context, key string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "unauthorized", nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, key+" is invalid", nil)
			return 0, false
		}
		return uint(v), true
	case float64:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, key+" is invalid", nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CodeInternal, key+" has an unexpected type", nil)
		return 0, false
	}
}

// GetUserID 读取当前用户 ID
func GetUserID(c *gin.Context) (uint, bool) {
	return GetContextUint(c, ContextKeyUserID)
}

// GetUserRoles 读取令牌携带的角色
func GetUserRoles(c *gin.Context) []string {
	value, ok := c.Get(ContextKeyUserRoles)
	if !ok {
		return nil
	}
	roles, _ := value.([]string)
	return roles
}
