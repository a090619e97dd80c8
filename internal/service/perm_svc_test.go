package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mall_dev_v1_202608/internal/errs"
	"mall_dev_v1_202608/internal/model"
	"mall_dev_v1_202608/internal/repository"
)

func setupPermTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.PolicyRule{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

// newLoadedPermService 返回已 LoadPolicy 的空引擎
func newLoadedPermService(t *testing.T) *PermissionService {
	db := setupPermTestDB(t)
	svc := NewPermissionService(repository.NewPolicyRepository(db))
	if err := svc.LoadPolicy(context.Background()); err != nil {
		t.Fatalf("LoadPolicy() error = %v", err)
	}
	return svc
}

func TestPermissionService_NotInitialized(t *testing.T) {
	db := setupPermTestDB(t)
	svc := NewPermissionService(repository.NewPolicyRepository(db))

	if _, err := svc.CheckPermission("admin", ResourceProduct, ActionRead); !errors.Is(err, errs.ErrNotInitialized) {
		t.Errorf("未加载的引擎 CheckPermission 应返回 ErrNotInitialized, got %v", err)
	}
	if _, err := svc.AddPolicy("admin", ResourceProduct, ActionRead); !errors.Is(err, errs.ErrNotInitialized) {
		t.Errorf("未加载的引擎 AddPolicy 应返回 ErrNotInitialized, got %v", err)
	}
	if err := svc.SavePolicy(context.Background()); !errors.Is(err, errs.ErrNotInitialized) {
		t.Errorf("未加载的引擎 SavePolicy 应返回 ErrNotInitialized, got %v", err)
	}
}

func TestPermissionService_AddPolicyIdempotent(t *testing.T) {
	svc := newLoadedPermService(t)

	added, err := svc.AddPolicy("admin", ResourceProduct, ActionCreate)
	if err != nil {
		t.Fatalf("AddPolicy() error = %v", err)
	}
	if !added {
		t.Error("首次添加应返回 true")
	}

	added, err = svc.AddPolicy("admin", ResourceProduct, ActionCreate)
	if err != nil {
		t.Fatalf("重复 AddPolicy() error = %v", err)
	}
	if added {
		t.Error("重复添加应返回 false")
	}
}

func TestPermissionService_InvalidVocabulary(t *testing.T) {
	svc := newLoadedPermService(t)

	if _, err := svc.AddPolicy("admin", "warehouse", ActionRead); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("非法资源应返回 ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.AddPolicy("admin", ResourceProduct, "fly"); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("非法动作应返回 ErrInvalidArgument, got %v", err)
	}
	if _, err := svc.CheckPermission("admin", "warehouse", ActionRead); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("非法资源判定应返回 ErrInvalidArgument, got %v", err)
	}
}

func TestPermissionService_CheckDirectGrant(t *testing.T) {
	svc := newLoadedPermService(t)

	svc.AddPolicy("operator", ResourceProduct, ActionUpdate)

	ok, err := svc.CheckPermission("operator", ResourceProduct, ActionUpdate)
	if err != nil {
		t.Fatalf("CheckPermission() error = %v", err)
	}
	if !ok {
		t.Error("直接授权应放行")
	}

	// 无授权返回 (false, nil)，而非错误
	ok, err = svc.CheckPermission("operator", ResourceProduct, ActionDelete)
	if err != nil {
		t.Fatalf("CheckPermission() error = %v", err)
	}
	if ok {
		t.Error("未授权应拒绝")
	}
}

func TestPermissionService_InheritanceTransitive(t *testing.T) {
	svc := newLoadedPermService(t)

	// viewer <- operator <- admin，用户 alice 仅持有 admin
	svc.AddPolicy("viewer", ResourceProduct, ActionRead)
	svc.AddRoleForSubject("operator", "viewer")
	svc.AddRoleForSubject("admin", "operator")
	svc.AddRoleForSubject("alice", "admin")

	ok, err := svc.CheckPermission("alice", ResourceProduct, ActionRead)
	if err != nil {
		t.Fatalf("CheckPermission() error = %v", err)
	}
	if !ok {
		t.Error("多级角色继承应放行")
	}

	// 中间角色直接判定同样放行
	ok, _ = svc.CheckPermission("operator", ResourceProduct, ActionRead)
	if !ok {
		t.Error("角色作为主体判定应放行")
	}
}

func TestPermissionService_RevocationTakesEffect(t *testing.T) {
	svc := newLoadedPermService(t)

	svc.AddPolicy("viewer", ResourceProduct, ActionRead)
	svc.AddRoleForSubject("bob", "viewer")

	if ok, _ := svc.CheckPermission("bob", ResourceProduct, ActionRead); !ok {
		t.Fatal("前置条件失败：授权未生效")
	}

	removed, err := svc.DeleteRoleForSubject("bob", "viewer")
	if err != nil || !removed {
		t.Fatalf("DeleteRoleForSubject() = (%v, %v)", removed, err)
	}

	if ok, _ := svc.CheckPermission("bob", ResourceProduct, ActionRead); ok {
		t.Error("撤销角色后应立即拒绝")
	}

	// 撤销授权同样立即生效
	svc.AddRoleForSubject("bob", "viewer")
	svc.RemovePolicy("viewer", ResourceProduct, ActionRead)
	if ok, _ := svc.CheckPermission("bob", ResourceProduct, ActionRead); ok {
		t.Error("撤销授权后应立即拒绝")
	}
}

func TestPermissionService_MultiRoleUnion(t *testing.T) {
	svc := newLoadedPermService(t)

	svc.AddPolicy("editor", ResourceProduct, ActionUpdate)
	svc.AddPolicy("auditor", ResourceOrder, ActionRead)
	svc.AddRoleForSubject("carol", "editor")
	svc.AddRoleForSubject("carol", "auditor")

	if ok, _ := svc.CheckPermission("carol", ResourceProduct, ActionUpdate); !ok {
		t.Error("多角色主体应获得 editor 的权限")
	}
	if ok, _ := svc.CheckPermission("carol", ResourceOrder, ActionRead); !ok {
		t.Error("多角色主体应获得 auditor 的权限")
	}
	if ok, _ := svc.CheckPermission("carol", ResourceOrder, ActionDelete); ok {
		t.Error("任一角色均未授权时应拒绝")
	}
}

func TestPermissionService_CycleGuard(t *testing.T) {
	svc := newLoadedPermService(t)

	// a -> b -> c -> a 成环
	svc.AddRoleForSubject("role_a", "role_b")
	svc.AddRoleForSubject("role_b", "role_c")
	svc.AddRoleForSubject("role_c", "role_a")

	// 环上无授权：必须终止并拒绝，而非死循环
	ok, err := svc.CheckPermission("role_a", ResourceProduct, ActionRead)
	if err != nil {
		t.Fatalf("CheckPermission() error = %v", err)
	}
	if ok {
		t.Error("环上无授权应拒绝")
	}

	// 环上任一角色持有授权则放行
	svc.AddPolicy("role_c", ResourceProduct, ActionRead)
	if ok, _ := svc.CheckPermission("role_a", ResourceProduct, ActionRead); !ok {
		t.Error("环上存在授权应放行")
	}
}

func TestPermissionService_GetRolesSorted(t *testing.T) {
	svc := newLoadedPermService(t)

	svc.AddRoleForSubject("dave", "zulu")
	svc.AddRoleForSubject("dave", "alpha")
	svc.AddRoleForSubject("dave", "mike")

	roles, err := svc.GetRolesForSubject("dave")
	if err != nil {
		t.Fatalf("GetRolesForSubject() error = %v", err)
	}
	want := []string{"alpha", "mike", "zulu"}
	if !reflect.DeepEqual(roles, want) {
		t.Errorf("roles = %v, want %v", roles, want)
	}

	has, _ := svc.HasRoleForSubject("dave", "mike")
	if !has {
		t.Error("HasRoleForSubject 应返回 true")
	}
	has, _ = svc.HasRoleForSubject("dave", "admin")
	if has {
		t.Error("未分配角色 HasRoleForSubject 应返回 false")
	}
}

func TestPermissionService_SaveLoadRoundTrip(t *testing.T) {
	db := setupPermTestDB(t)
	repo := repository.NewPolicyRepository(db)
	ctx := context.Background()

	svc := NewPermissionService(repo)
	if err := svc.LoadPolicy(ctx); err != nil {
		t.Fatalf("LoadPolicy() error = %v", err)
	}

	svc.AddPolicy("admin", ResourceProduct, ActionManage)
	svc.AddPolicy("viewer", ResourceProduct, ActionRead)
	svc.AddRoleForSubject("admin", "viewer")
	svc.AddRoleForSubject("alice", "admin")

	if err := svc.SavePolicy(ctx); err != nil {
		t.Fatalf("SavePolicy() error = %v", err)
	}

	// 用同一存储重建第二个引擎，状态应完全一致
	other := NewPermissionService(repo)
	if err := other.LoadPolicy(ctx); err != nil {
		t.Fatalf("第二引擎 LoadPolicy() error = %v", err)
	}

	if ok, _ := other.CheckPermission("alice", ResourceProduct, ActionRead); !ok {
		t.Error("重建后的引擎应保留继承授权")
	}
	roles, _ := other.GetRolesForSubject("admin")
	if !reflect.DeepEqual(roles, []string{"viewer"}) {
		t.Errorf("重建后的角色分配 = %v, want [viewer]", roles)
	}

	// 再次全量回写不应产生重复行
	if err := other.SavePolicy(ctx); err != nil {
		t.Fatalf("二次 SavePolicy() error = %v", err)
	}
	var count int64
	db.Model(&model.PolicyRule{}).Count(&count)
	if count != 4 {
		t.Errorf("策略行数 = %d, want 4", count)
	}
}

func TestPermissionService_ConcurrentCheck(t *testing.T) {
	svc := newLoadedPermService(t)

	svc.AddPolicy("viewer", ResourceProduct, ActionRead)
	for i := 0; i < 50; i++ {
		svc.AddRoleForSubject(fmt.Sprintf("user_%d", i), "viewer")
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			subject := fmt.Sprintf("user_%d", i)
			ok, err := svc.CheckPermission(subject, ResourceProduct, ActionRead)
			if err != nil || !ok {
				t.Errorf("并发判定 %s = (%v, %v)", subject, ok, err)
			}
		}(i)
	}
	wg.Wait()
}
