package router

import (
	"github.com/gin-gonic/gin"

	"mall_dev_v1_202608/internal/controller"
	"mall_dev_v1_202608/internal/middleware"
	"mall_dev_v1_202608/internal/service"
)

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine,
	auth *middleware.AuthMiddleware,
	authCtrl *controller.AuthController,
	productCtrl *controller.ProductController,
	policyCtrl *controller.PolicyController) {
	api := r.Group("/api")
	{
		// auth 鉴权组，无需登录
		authGroup := api.Group("/auth")
		{
			// POST /api/auth/login
			authGroup.POST("/login", authCtrl.Login)
			// POST /api/auth/refresh
			authGroup.POST("/refresh", authCtrl.Refresh)
		}

		// product 商品组
		products := api.Group("/products")
		products.Use(auth.JWTAuth())
		{
			products.GET("", auth.RequirePermission(service.ResourceProduct, service.ActionRead), productCtrl.List)
			products.GET("/:id", auth.RequirePermission(service.ResourceProduct, service.ActionRead), productCtrl.Get)
			products.POST("", auth.RequirePermission(service.ResourceProduct, service.ActionCreate), productCtrl.Create)
			products.PUT("/:id", auth.RequirePermission(service.ResourceProduct, service.ActionUpdate), productCtrl.Update)
			products.DELETE("/:id", auth.RequirePermission(service.ResourceProduct, service.ActionDelete), productCtrl.Delete)
			products.PUT("/:id/status", auth.RequirePermission(service.ResourceProduct, service.ActionUpdate), productCtrl.UpdateStatus)
			products.PUT("/batch-status", auth.RequirePermission(service.ResourceProduct, service.ActionUpdate), productCtrl.BatchUpdateStatus)

			// 库存操作单独授权
			products.POST("/:id/stock/deduct", auth.RequirePermission(service.ResourceStock, service.ActionUpdate), productCtrl.DeductStock)
			products.POST("/:id/stock/restore", auth.RequirePermission(service.ResourceStock, service.ActionUpdate), productCtrl.RestoreStock)
			products.PUT("/:id/stock", auth.RequirePermission(service.ResourceStock, service.ActionUpdate), productCtrl.SetStock)
		}

		// policy 策略管理，仅管理权限可用
		policies := api.Group("/policies")
		policies.Use(auth.JWTAuth())
		policies.Use(auth.RequirePermission(service.ResourcePolicy, service.ActionManage))
		{
			policies.POST("", policyCtrl.AddPolicy)
			policies.DELETE("", policyCtrl.RemovePolicy)
			policies.POST("/roles", policyCtrl.AddRole)
			policies.DELETE("/roles", policyCtrl.RemoveRole)
			policies.GET("/roles/:subject", policyCtrl.GetRoles)
		}
	}
}
