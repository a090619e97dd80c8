package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mall_dev_v1_202608/internal/errs"
	"mall_dev_v1_202608/internal/service"
)

// ==================== Context Keys ====================

const (
	ContextKeyUserID   = "user_id"
	ContextKeyUsername = "username"
	ContextKeyRole     = "role"
	ContextKeyClaims   = "claims"
)

// ==================== 中间件 ====================

// AuthMiddleware JWT 认证 + 权限校验
// 依赖显式注入，不读任何包级全局状态
type AuthMiddleware struct {
	tokens *service.TokenService
	perms  *service.PermissionService
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(tokens *service.TokenService, perms *service.PermissionService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, perms: perms}
}

// JWTAuth 解析 Bearer Token 并注入用户信息
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "未提供认证信息",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "认证格式错误，应为 Bearer {token}",
			})
			c.Abort()
			return
		}

		claims, err := m.tokens.ParseToken(parts[1])
		if err != nil {
			// 过期给刷新提示，签名/格式错误不给
			if errors.Is(err, errs.ErrTokenExpired) {
				c.JSON(http.StatusUnauthorized, gin.H{
					"code":    401,
					"message": "Token 已过期，请刷新或重新登录",
				})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{
					"code":    401,
					"message": "Token 无效",
				})
			}
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyUsername, claims.Username)
		c.Set(ContextKeyRole, claims.Role)
		c.Set(ContextKeyClaims, claims)

		c.Next()
	}
}

// RequirePermission 基于权限引擎的资源/动作校验
// 引擎未初始化返回 500（部署错误），无权限返回 403
func (m *AuthMiddleware) RequirePermission(resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetUserRole(c)
		if role == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "未获取到用户角色",
			})
			c.Abort()
			return
		}

		allowed, err := m.perms.CheckPermission(role, resource, action)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    500,
				"message": "权限校验失败: " + err.Error(),
			})
			c.Abort()
			return
		}
		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "无权限访问",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// ==================== 辅助函数 ====================

// GetUserID 从 Context 获取用户 ID
func GetUserID(c *gin.Context) int64 {
	if id, exists := c.Get(ContextKeyUserID); exists {
		return id.(int64)
	}
	return 0
}

// GetUsername 从 Context 获取用户名
func GetUsername(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUsername); exists {
		return name.(string)
	}
	return ""
}

// GetUserRole 从 Context 获取用户角色
func GetUserRole(c *gin.Context) string {
	if role, exists := c.Get(ContextKeyRole); exists {
		return role.(string)
	}
	return ""
}

// GetUserClaims 从 Context 获取完整 Claims
func GetUserClaims(c *gin.Context) *service.UserClaims {
	if claims, exists := c.Get(ContextKeyClaims); exists {
		return claims.(*service.UserClaims)
	}
	return nil
}
