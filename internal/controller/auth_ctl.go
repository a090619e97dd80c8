package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mall_dev_v1_202608/internal/api/dto"
	"mall_dev_v1_202608/internal/service"
)

type AuthController struct {
	authService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Login 用户登录
// POST /api/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	token, user, err := ctrl.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		replyError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LoginResp{
		Code:    0,
		Message: "success",
		Token:   token,
		UserID:  user.ID,
		Role:    user.Role,
	})
}

// Refresh 刷新令牌
// POST /api/auth/refresh
func (ctrl *AuthController) Refresh(c *gin.Context) {
	var req dto.RefreshReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	token, err := ctrl.authService.Refresh(req.Token)
	if err != nil {
		replyError(c, err)
		return
	}

	replyOK(c, gin.H{"token": token})
}
