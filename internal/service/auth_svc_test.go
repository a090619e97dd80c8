package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mall_dev_v1_202608/internal/errs"
	"mall_dev_v1_202608/internal/model"
	"mall_dev_v1_202608/internal/repository"
	"mall_dev_v1_202608/pkg/utils"
)

func setupAuthTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.SysUser{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func newAuthTestService(t *testing.T) (*AuthService, *gorm.DB) {
	db := setupAuthTestDB(t)

	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	user := &model.SysUser{
		Username: "alice",
		Password: hash,
		Role:     "admin",
		Status:   model.UserStatusActive,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}

	tokens := newTestTokenService(time.Hour)
	svc := NewAuthService(repository.NewUserRepository(db), tokens, utils.NewTTLCache(time.Minute), nil)
	return svc, db
}

func TestAuthService_LoginSuccess(t *testing.T) {
	svc, _ := newAuthTestService(t)

	token, user, err := svc.Login(context.Background(), "alice", "secret123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token == "" {
		t.Error("登录成功应返回令牌")
	}
	if user.Username != "alice" || user.Role != "admin" {
		t.Errorf("用户信息错误: %+v", user)
	}

	claims, err := svc.tokens.ParseToken(token)
	if err != nil {
		t.Fatalf("解析登录令牌失败: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != "admin" {
		t.Errorf("令牌声明与用户不符: %+v", claims)
	}
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	svc, _ := newAuthTestService(t)

	_, _, err := svc.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, errs.ErrInvalidCredentials) {
		t.Fatalf("密码错误应返回 ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_LoginUnknownUser(t *testing.T) {
	svc, _ := newAuthTestService(t)

	// 用户不存在与密码错误不可区分
	_, _, err := svc.Login(context.Background(), "nobody", "whatever")
	if !errors.Is(err, errs.ErrInvalidCredentials) {
		t.Fatalf("未知用户应返回 ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_LoginDisabledUser(t *testing.T) {
	svc, db := newAuthTestService(t)

	db.Model(&model.SysUser{}).Where("username = ?", "alice").
		Update("status", model.UserStatusDisabled)

	_, _, err := svc.Login(context.Background(), "alice", "secret123")
	if !errors.Is(err, errs.ErrInvalidCredentials) {
		t.Fatalf("停用账号应返回 ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_LoginLockout(t *testing.T) {
	svc, _ := newAuthTestService(t)
	ctx := context.Background()

	for i := 0; i < maxLoginAttempts; i++ {
		if _, _, err := svc.Login(ctx, "alice", fmt.Sprintf("bad_%d", i)); err == nil {
			t.Fatal("错误密码不应登录成功")
		}
	}

	// 锁定期内连正确密码也被拒
	_, _, err := svc.Login(ctx, "alice", "secret123")
	if !errors.Is(err, errs.ErrInvalidCredentials) {
		t.Fatalf("锁定后登录应返回 ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_LockoutResetOnSuccess(t *testing.T) {
	svc, _ := newAuthTestService(t)
	ctx := context.Background()

	// 失败若干次但未达上限，成功登录后计数清零
	for i := 0; i < maxLoginAttempts-1; i++ {
		svc.Login(ctx, "alice", "bad")
	}
	if _, _, err := svc.Login(ctx, "alice", "secret123"); err != nil {
		t.Fatalf("未达锁定上限应可登录: %v", err)
	}

	// 清零后再失败一次不触发锁定
	svc.Login(ctx, "alice", "bad")
	if _, _, err := svc.Login(ctx, "alice", "secret123"); err != nil {
		t.Fatalf("计数清零后登录失败: %v", err)
	}
}

func TestAuthService_Refresh(t *testing.T) {
	svc, _ := newAuthTestService(t)

	token, _, err := svc.Login(context.Background(), "alice", "secret123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	refreshed, err := svc.Refresh(token)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if _, err := svc.tokens.ParseToken(refreshed); err != nil {
		t.Fatalf("刷新令牌应有效: %v", err)
	}

	if _, err := svc.Refresh("garbage"); !errors.Is(err, errs.ErrTokenMalformed) {
		t.Errorf("垃圾输入刷新应返回 ErrTokenMalformed, got %v", err)
	}
}
