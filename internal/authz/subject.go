package authz

import (
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
)

const (
	apiV1Prefix = "/api/v1"
	userPrefix  = "user:"
	rolePrefix  = "role:"
	roleAnchor  = rolePrefix + "__anchor__"
)

var (
	ErrUnavailable    = errors.New("authz service unavailable")
	ErrRoleRequired   = errors.New("role is required")
	ErrReservedRole   = errors.New("reserved role is not allowed")
	ErrUserRequired   = errors.New("user id is required")
	ErrActionRequired = errors.New("action is required")
)

// Policy 权限策略
type Policy struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
}

// SubjectForUser 生成用户主体标识
func SubjectForUser(userID uint) string {
	return userPrefix + strconv.FormatUint(uint64(userID), 10)
}

// NormalizeRole 统一角色名称，空白折叠为下划线
func NormalizeRole(role string) (string, error) {
	name := strings.TrimPrefix(strings.TrimSpace(role), rolePrefix)
	name = strings.Join(strings.Fields(name), "_")
	if name == "" {
		return "", ErrRoleRequired
	}
	return rolePrefix + name, nil
}

// NormalizeObject 统一授权资源路径，去掉 /api/v1 前缀
func NormalizeObject(object string) string {
	cleaned := path.Clean("/" + strings.TrimSpace(object))
	if rest, ok := strings.CutPrefix(cleaned, apiV1Prefix); ok && (rest == "" || rest[0] == '/') {
		cleaned = rest
	}
	if cleaned == "" {
		return "/"
	}
	return cleaned
}

// NormalizeAction 统一授权动作
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}

func policyFromRule(rule []string) (Policy, bool) {
	if len(rule) < 3 {
		return Policy{}, false
	}
	return Policy{
		Subject: strings.TrimSpace(rule[0]),
		Object:  NormalizeObject(rule[1]),
		Action:  NormalizeAction(rule[2]),
	}, true
}

func wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
