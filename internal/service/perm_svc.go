package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"mall_dev_v1_202608/internal/errs"
	"mall_dev_v1_202608/internal/model"
	"mall_dev_v1_202608/internal/repository"
)

// ==================== 资源/动作枚举 ====================

// 资源常量
const (
	ResourceProduct  = "product"
	ResourceStock    = "stock"
	ResourceCategory = "category"
	ResourceBrand    = "brand"
	ResourceOrder    = "order"
	ResourceUser     = "user"
	ResourcePolicy   = "policy"
)

// 动作常量
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionManage = "manage"
)

var validResources = map[string]struct{}{
	ResourceProduct:  {},
	ResourceStock:    {},
	ResourceCategory: {},
	ResourceBrand:    {},
	ResourceOrder:    {},
	ResourceUser:     {},
	ResourcePolicy:   {},
}

var validActions = map[string]struct{}{
	ActionCreate: {},
	ActionRead:   {},
	ActionUpdate: {},
	ActionDelete: {},
	ActionManage: {},
}

// IsValidResource 资源名是否在枚举内
func IsValidResource(resource string) bool {
	_, ok := validResources[resource]
	return ok
}

// IsValidAction 动作名是否在枚举内
func IsValidAction(action string) bool {
	_, ok := validActions[action]
	return ok
}

// ==================== PermissionService ====================

type grantKey struct {
	Role     string
	Resource string
	Action   string
}

// PermissionService 角色权限引擎
// 内存态授权集 + 角色分配图，LoadPolicy/SavePolicy 与策略存储显式同步；
// 变更后不调 SavePolicy 则重启丢失。
// 角色继承通过 AddRoleForSubject("super_admin", "admin") 表达：
// super_admin 继承 admin 的全部授权，解析时沿分配图传递
type PermissionService struct {
	mu     sync.RWMutex
	repo   repository.PolicyRepository
	grants map[grantKey]struct{}
	// subject(用户名或角色名) -> 持有的角色集合
	roles  map[string]map[string]struct{}
	loaded bool
}

// NewPermissionService 创建权限引擎，使用前必须 LoadPolicy
func NewPermissionService(repo repository.PolicyRepository) *PermissionService {
	return &PermissionService{
		repo:   repo,
		grants: make(map[grantKey]struct{}),
		roles:  make(map[string]map[string]struct{}),
	}
}

// ready 未初始化的引擎返回 ErrNotInitialized，与"无权限"(false, nil) 严格区分
func (s *PermissionService) ready() error {
	if s == nil || s.repo == nil {
		return errs.ErrNotInitialized
	}
	if !s.loaded {
		return errs.ErrNotInitialized
	}
	return nil
}

func validateGrant(resource, action string) error {
	if !IsValidResource(resource) {
		return fmt.Errorf("资源 %q 不在枚举内: %w", resource, errs.ErrInvalidArgument)
	}
	if !IsValidAction(action) {
		return fmt.Errorf("动作 %q 不在枚举内: %w", action, errs.ErrInvalidArgument)
	}
	return nil
}

// ==================== 授权维护 ====================

// AddPolicy 添加授权三元组，幂等：已存在返回 (false, nil)
func (s *PermissionService) AddPolicy(role, resource, action string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	if err := validateGrant(resource, action); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := grantKey{Role: role, Resource: resource, Action: action}
	if _, exists := s.grants[key]; exists {
		return false, nil
	}
	s.grants[key] = struct{}{}
	return true, nil
}

// RemovePolicy 删除授权三元组，幂等：不存在返回 (false, nil)
func (s *PermissionService) RemovePolicy(role, resource, action string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	if err := validateGrant(resource, action); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := grantKey{Role: role, Resource: resource, Action: action}
	if _, exists := s.grants[key]; !exists {
		return false, nil
	}
	delete(s.grants, key)
	return true, nil
}

// ==================== 角色分配 ====================

// AddRoleForSubject 为主体分配角色；主体本身是角色名时即表达角色继承
func (s *PermissionService) AddRoleForSubject(subject, role string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.roles[subject]
	if !ok {
		set = make(map[string]struct{})
		s.roles[subject] = set
	}
	if _, exists := set[role]; exists {
		return false, nil
	}
	set[role] = struct{}{}
	return true, nil
}

// DeleteRoleForSubject 撤销角色分配
func (s *PermissionService) DeleteRoleForSubject(subject, role string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.roles[subject]
	if !ok {
		return false, nil
	}
	if _, exists := set[role]; !exists {
		return false, nil
	}
	delete(set, role)
	if len(set) == 0 {
		delete(s.roles, subject)
	}
	return true, nil
}

// HasRoleForSubject 主体是否直接持有角色（不含继承）
func (s *PermissionService) HasRoleForSubject(subject, role string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.roles[subject]
	if !ok {
		return false, nil
	}
	_, exists := set[role]
	return exists, nil
}

// GetRolesForSubject 主体直接持有的角色，按名称排序
func (s *PermissionService) GetRolesForSubject(subject string) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.roles[subject]
	out := make([]string, 0, len(set))
	for role := range set {
		out = append(out, role)
	}
	sort.Strings(out)
	return out, nil
}

// ==================== 权限判定 ====================

// CheckPermission 判定主体(或角色)对资源/动作是否有权限
// 沿角色分配图做广度优先遍历，任一可达角色持有授权即放行（OR 语义）；
// visited 集合保证继承图出现环时不会死循环
func (s *PermissionService) CheckPermission(subject, resource, action string) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	if err := validateGrant(resource, action); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	key := func(role string) grantKey {
		return grantKey{Role: role, Resource: resource, Action: action}
	}

	visited := map[string]struct{}{subject: {}}
	queue := []string{subject}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if _, ok := s.grants[key(current)]; ok {
			return true, nil
		}
		for role := range s.roles[current] {
			if _, seen := visited[role]; seen {
				continue
			}
			visited[role] = struct{}{}
			queue = append(queue, role)
		}
	}
	return false, nil
}

// ==================== 持久化同步 ====================

// SavePolicy 将内存态全量回写策略存储
func (s *PermissionService) SavePolicy(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}

	s.mu.RLock()
	rules := make([]model.PolicyRule, 0, len(s.grants)+len(s.roles))
	for key := range s.grants {
		rules = append(rules, model.PolicyRule{
			PType: model.PolicyTypeGrant,
			V0:    key.Role,
			V1:    key.Resource,
			V2:    key.Action,
		})
	}
	for subject, set := range s.roles {
		for role := range set {
			rules = append(rules, model.PolicyRule{
				PType: model.PolicyTypeAssignment,
				V0:    subject,
				V1:    role,
			})
		}
	}
	s.mu.RUnlock()

	// 回写顺序稳定，便于对库内容做对比
	sort.Slice(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.PType != b.PType {
			return a.PType > b.PType // p 在前
		}
		if a.V0 != b.V0 {
			return a.V0 < b.V0
		}
		if a.V1 != b.V1 {
			return a.V1 < b.V1
		}
		return a.V2 < b.V2
	})

	if err := s.repo.SaveAll(ctx, rules); err != nil {
		return errs.Storage("save policy", err)
	}
	return nil
}

// LoadPolicy 从策略存储重建内存态，首次调用后引擎才可用
func (s *PermissionService) LoadPolicy(ctx context.Context) error {
	if s == nil || s.repo == nil {
		return errs.ErrNotInitialized
	}

	rules, err := s.repo.LoadAll(ctx)
	if err != nil {
		return errs.Storage("load policy", err)
	}

	grants := make(map[grantKey]struct{}, len(rules))
	roles := make(map[string]map[string]struct{})
	for _, rule := range rules {
		switch rule.PType {
		case model.PolicyTypeGrant:
			grants[grantKey{Role: rule.V0, Resource: rule.V1, Action: rule.V2}] = struct{}{}
		case model.PolicyTypeAssignment:
			set, ok := roles[rule.V0]
			if !ok {
				set = make(map[string]struct{})
				roles[rule.V0] = set
			}
			set[rule.V1] = struct{}{}
		}
	}

	s.mu.Lock()
	s.grants = grants
	s.roles = roles
	s.loaded = true
	s.mu.Unlock()
	return nil
}
