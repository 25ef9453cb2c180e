package authz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	casbinTableName = "casbin_rule"
	groupingPtype   = "g"
)

// 主体既可以是 user:<id>，也可以是令牌里的 role:<name>
const adminConsoleModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (g(r.sub, p.sub) || r.sub == p.sub) && keyMatch2(r.obj, p.obj) && (r.act == p.act || p.act == "*")
`

// Service 管理后台授权服务
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// Decision 一次鉴权的结果，Subject 为放行时命中的主体
type Decision struct {
	Allowed bool
	Subject string
	Object  string
	Action  string
}

// NewService 基于 casbin_rule 表创建授权服务
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, fmt.Errorf("authz db is nil")
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", casbinTableName)
	if err != nil {
		return nil, wrapf(err, "create authz adapter failed")
	}
	m, err := model.NewModelFromString(adminConsoleModel)
	if err != nil {
		return nil, wrapf(err, "load authz model failed")
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, wrapf(err, "init authz enforcer failed")
	}
	enforcer.AddFunction("keyMatch2", util.KeyMatch2Func)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, wrapf(err, "load authz policy failed")
	}
	return &Service{enforcer: enforcer}, nil
}

func (s *Service) ready() error {
	if s == nil || s.enforcer == nil {
		return ErrUnavailable
	}
	return nil
}

// candidateSubjects 用户主体优先，随后是去重后的令牌角色
func candidateSubjects(userID uint, roles []string) []string {
	subjects := make([]string, 0, len(roles)+1)
	if userID != 0 {
		subjects = append(subjects, SubjectForUser(userID))
	}
	seen := make(map[string]struct{}, len(roles))
	for _, raw := range roles {
		role, err := NormalizeRole(raw)
		if err != nil || role == roleAnchor {
			continue
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		subjects = append(subjects, role)
	}
	return subjects
}

// Authorize 判定管理员对某个后台接口的访问
func (s *Service) Authorize(userID uint, roles []string, obj, act string) (Decision, error) {
	decision := Decision{Object: NormalizeObject(obj), Action: NormalizeAction(act)}
	if err := s.ready(); err != nil {
		return decision, err
	}
	for _, sub := range candidateSubjects(userID, roles) {
		ok, err := s.enforcer.Enforce(sub, decision.Object, decision.Action)
		if err != nil {
			return decision, wrapf(err, "enforce %s", sub)
		}
		if ok {
			decision.Allowed = true
			decision.Subject = sub
			return decision, nil
		}
	}
	return decision, nil
}

// EnforceUser 任一主体通过即放行
func (s *Service) EnforceUser(userID uint, roles []string, obj, act string) (bool, error) {
	decision, err := s.Authorize(userID, roles, obj, act)
	return decision.Allowed, err
}

// EnsureRole 确保角色存在
func (s *Service) EnsureRole(role string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	normalized, err := NormalizeRole(role)
	if err != nil {
		return "", err
	}
	if normalized == roleAnchor {
		return "", ErrReservedRole
	}
	if _, err := s.enforcer.AddNamedGroupingPolicy(groupingPtype, normalized, roleAnchor); err != nil {
		return "", wrapf(err, "create role failed")
	}
	return normalized, nil
}

// ListRoles 列出角色
func (s *Service) ListRoles() ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetFilteredNamedGroupingPolicy(groupingPtype, 1, roleAnchor)
	if err != nil {
		return nil, wrapf(err, "list roles failed")
	}
	roles := make([]string, 0, len(rules))
	for _, rule := range rules {
		if len(rule) > 0 && strings.HasPrefix(rule[0], rolePrefix) {
			roles = append(roles, rule[0])
		}
	}
	sort.Strings(roles)
	return roles, nil
}

// GrantRolePolicy 为角色授予后台接口权限
func (s *Service) GrantRolePolicy(role, object, action string) error {
	act := NormalizeAction(action)
	if act == "" {
		return ErrActionRequired
	}
	normalized, err := s.EnsureRole(role)
	if err != nil {
		return err
	}
	_, err = s.enforcer.AddPolicy(normalized, NormalizeObject(object), act)
	return wrapf(err, "grant policy failed")
}

// GetRolePolicies 查询角色策略
func (s *Service) GetRolePolicies(role string) ([]Policy, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	normalized, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}
	rules, err := s.enforcer.GetFilteredPolicy(0, normalized)
	if err != nil {
		return nil, wrapf(err, "get role policies failed")
	}
	policies := make([]Policy, 0, len(rules))
	for _, rule := range rules {
		if p, ok := policyFromRule(rule); ok {
			policies = append(policies, p)
		}
	}
	return policies, nil
}

// SetUserRoles 覆盖设置用户角色
func (s *Service) SetUserRoles(userID uint, roles []string) error {
	if userID == 0 {
		return ErrUserRequired
	}
	if err := s.ready(); err != nil {
		return err
	}
	subject := SubjectForUser(userID)
	if _, err := s.enforcer.RemoveFilteredNamedGroupingPolicy(groupingPtype, 0, subject); err != nil {
		return wrapf(err, "clear user roles failed")
	}
	for _, role := range roles {
		normalized, err := s.EnsureRole(role)
		if err != nil {
			return err
		}
		if _, err := s.enforcer.AddNamedGroupingPolicy(groupingPtype, subject, normalized); err != nil {
			return wrapf(err, "assign user role failed")
		}
	}
	return nil
}

// GetUserRoles 查询用户直接绑定的角色
func (s *Service) GetUserRoles(userID uint) ([]string, error) {
	if userID == 0 {
		return nil, ErrUserRequired
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	roles, err := s.enforcer.GetRolesForUser(SubjectForUser(userID))
	if err != nil {
		return nil, wrapf(err, "get user roles failed")
	}
	filtered := roles[:0:0]
	for _, role := range roles {
		if strings.HasPrefix(role, rolePrefix) && role != roleAnchor {
			filtered = append(filtered, role)
		}
	}
	sort.Strings(filtered)
	return filtered, nil
}
