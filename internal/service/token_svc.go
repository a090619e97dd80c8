package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mall_dev_v1_202608/internal/errs"
)

// ==================== 配置 ====================

// TokenConfig 签发配置
type TokenConfig struct {
	Secret        string        // 签名密钥
	TTL           time.Duration // Token 有效期
	RefreshWindow time.Duration // 过期后仍允许刷新的宽限窗口
	Issuer        string        // 签发者
}

// DefaultTokenConfig 默认配置
func DefaultTokenConfig() *TokenConfig {
	return &TokenConfig{
		Secret:        "mall-dev-secret-change-in-production",
		TTL:           2 * time.Hour,
		RefreshWindow: 7 * 24 * time.Hour,
		Issuer:        "mall-dev",
	}
}

// ==================== Claims 定义 ====================

// UserClaims 用户声明
type UserClaims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// ==================== TokenService ====================

// TokenService 会话令牌的签发/解析/校验/刷新
// 纯函数式，除时钟外无 I/O 依赖
type TokenService struct {
	cfg *TokenConfig
}

// NewTokenService 创建令牌服务
func NewTokenService(cfg *TokenConfig) *TokenService {
	if cfg == nil {
		cfg = DefaultTokenConfig()
	}
	return &TokenService{cfg: cfg}
}

// IssueToken 签发令牌
func (s *TokenService) IssueToken(userID int64, username, role string) (string, error) {
	if s.cfg.Secret == "" {
		return "", errors.New("jwt 签名密钥未配置")
	}

	now := time.Now()
	claims := &UserClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Secret))
}

// ParseToken 解析并校验令牌
// 过期 / 签名错误 / 格式错误分别映射为独立哨兵，调用方按类别处理
func (s *TokenService) ParseToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, s.keyFunc)
	if err != nil {
		return nil, mapJWTError(err)
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, errs.ErrTokenMalformed
	}
	return claims, nil
}

// ValidateToken 布尔契约：任何解析失败都返回 false，不泄漏错误细节
func (s *TokenService) ValidateToken(tokenString string) bool {
	_, err := s.ParseToken(tokenString)
	return err == nil
}

// RefreshToken 用旧令牌换新令牌
// 已过期但结构完整且签名正确的令牌，在 RefreshWindow 内仍可刷新；
// 签名错误与格式错误一律拒绝
func (s *TokenService) RefreshToken(oldToken string) (string, error) {
	claims := &UserClaims{}
	// 跳过时间校验，过期判定由下面的宽限窗口逻辑接管
	_, err := jwt.ParseWithClaims(oldToken, claims, s.keyFunc, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", mapJWTError(err)
	}

	if claims.ExpiresAt != nil {
		deadline := claims.ExpiresAt.Add(s.cfg.RefreshWindow)
		if time.Now().After(deadline) {
			return "", fmt.Errorf("刷新窗口已过: %w", errs.ErrTokenExpired)
		}
	}

	return s.IssueToken(claims.UserID, claims.Username, claims.Role)
}

// ==================== 内部辅助 ====================

func (s *TokenService) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errs.ErrInvalidSignature
	}
	return []byte(s.cfg.Secret), nil
}

// mapJWTError 将 jwt 库错误映射为业务哨兵
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return errs.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, errs.ErrInvalidSignature):
		return errs.ErrInvalidSignature
	default:
		// 解码失败、片段缺失等一律视为格式错误
		return errs.ErrTokenMalformed
	}
}
