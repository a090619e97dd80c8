package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"mall_dev_v1_202608/internal/errs"
	"mall_dev_v1_202608/internal/model"
	"mall_dev_v1_202608/internal/repository"
	"mall_dev_v1_202608/pkg/utils"
)

// 连续失败 maxLoginAttempts 次后，该用户名在缓存 TTL 内拒绝登录
const maxLoginAttempts = 5

// AuthService 登录与令牌刷新
type AuthService struct {
	userRepo repository.UserRepository
	tokens   *TokenService
	attempts *utils.TTLCache // username -> 失败次数
	logger   *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(userRepo repository.UserRepository, tokens *TokenService, attempts *utils.TTLCache, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		userRepo: userRepo,
		tokens:   tokens,
		attempts: attempts,
		logger:   logger,
	}
}

// Login 校验用户名密码并签发令牌
// 用户不存在与密码错误统一返回 ErrInvalidCredentials，不泄漏账号是否存在
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *model.SysUser, error) {
	if s.locked(username) {
		return "", nil, fmt.Errorf("账号 %s 尝试次数过多，请稍后再试: %w", username, errs.ErrInvalidCredentials)
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.recordFailure(username)
			return "", nil, errs.ErrInvalidCredentials
		}
		return "", nil, errs.Storage("get user", err)
	}

	if user.Status != model.UserStatusActive {
		return "", nil, fmt.Errorf("账号已停用: %w", errs.ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.recordFailure(username)
		return "", nil, errs.ErrInvalidCredentials
	}

	if s.attempts != nil {
		s.attempts.Delete("login:" + username)
	}

	token, err := s.tokens.IssueToken(user.ID, user.Username, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("签发令牌: %w", err)
	}

	s.logger.Info("用户登录成功", zap.String("username", username))
	return token, user, nil
}

// Refresh 刷新令牌，语义由 TokenService.RefreshToken 决定
func (s *AuthService) Refresh(oldToken string) (string, error) {
	return s.tokens.RefreshToken(oldToken)
}

// HashPassword 生成密码哈希，供建号与测试使用
func HashPassword(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ==================== 失败锁定 ====================

func (s *AuthService) locked(username string) bool {
	if s.attempts == nil {
		return false
	}
	val, ok := s.attempts.Get("login:" + username)
	if !ok {
		return false
	}
	count, _ := strconv.Atoi(val)
	return count >= maxLoginAttempts
}

func (s *AuthService) recordFailure(username string) {
	if s.attempts == nil {
		return
	}
	key := "login:" + username
	count := 0
	if val, ok := s.attempts.Get(key); ok {
		count, _ = strconv.Atoi(val)
	}
	s.attempts.Set(key, strconv.Itoa(count+1))
}
