package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mall_dev_v1_202608/internal/api/dto"
	"mall_dev_v1_202608/internal/service"
)

// PolicyController 权限策略管理
// 变更只改引擎内存态，之后立即 SavePolicy 落库
type PolicyController struct {
	perms *service.PermissionService
}

func NewPolicyController(perms *service.PermissionService) *PolicyController {
	return &PolicyController{perms: perms}
}

// AddPolicy 添加授权
// POST /api/policies
func (ctrl *PolicyController) AddPolicy(c *gin.Context) {
	var req dto.PolicyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	added, err := ctrl.perms.AddPolicy(req.Role, req.Resource, req.Action)
	if err != nil {
		replyError(c, err)
		return
	}
	if added {
		if err := ctrl.perms.SavePolicy(c.Request.Context()); err != nil {
			replyError(c, err)
			return
		}
	}
	replyOK(c, gin.H{"added": added})
}

// RemovePolicy 删除授权
// DELETE /api/policies
func (ctrl *PolicyController) RemovePolicy(c *gin.Context) {
	var req dto.PolicyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	removed, err := ctrl.perms.RemovePolicy(req.Role, req.Resource, req.Action)
	if err != nil {
		replyError(c, err)
		return
	}
	if removed {
		if err := ctrl.perms.SavePolicy(c.Request.Context()); err != nil {
			replyError(c, err)
			return
		}
	}
	replyOK(c, gin.H{"removed": removed})
}

// AddRole 分配角色（主体为角色名时表达继承）
// POST /api/policies/roles
func (ctrl *PolicyController) AddRole(c *gin.Context) {
	var req dto.RoleAssignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	added, err := ctrl.perms.AddRoleForSubject(req.Subject, req.Role)
	if err != nil {
		replyError(c, err)
		return
	}
	if added {
		if err := ctrl.perms.SavePolicy(c.Request.Context()); err != nil {
			replyError(c, err)
			return
		}
	}
	replyOK(c, gin.H{"added": added})
}

// RemoveRole 撤销角色
// DELETE /api/policies/roles
func (ctrl *PolicyController) RemoveRole(c *gin.Context) {
	var req dto.RoleAssignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	removed, err := ctrl.perms.DeleteRoleForSubject(req.Subject, req.Role)
	if err != nil {
		replyError(c, err)
		return
	}
	if removed {
		if err := ctrl.perms.SavePolicy(c.Request.Context()); err != nil {
			replyError(c, err)
			return
		}
	}
	replyOK(c, gin.H{"removed": removed})
}

// GetRoles 查询主体角色
// GET /api/policies/roles/:subject
func (ctrl *PolicyController) GetRoles(c *gin.Context) {
	subject := c.Param("subject")
	roles, err := ctrl.perms.GetRolesForSubject(subject)
	if err != nil {
		replyError(c, err)
		return
	}
	replyOK(c, gin.H{"subject": subject, "roles": roles})
}
