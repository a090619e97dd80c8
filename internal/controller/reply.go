package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mall_dev_v1_202608/internal/errs"
)

// replyError 业务错误到 HTTP 状态码的统一映射
func replyError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, errs.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrInsufficientStock):
		status = http.StatusConflict
	case errors.Is(err, errs.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, errs.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    401,
			"message": "Token 已过期，请刷新或重新登录",
		})
		return
	case errors.Is(err, errs.ErrInvalidSignature), errors.Is(err, errs.ErrTokenMalformed):
		status = http.StatusUnauthorized
	}

	c.JSON(status, gin.H{
		"code":    status,
		"message": err.Error(),
	})
}

// replyOK 成功响应统一信封
func replyOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    data,
	})
}
