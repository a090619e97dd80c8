package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mall_dev_v1_202608/internal/controller"
	"mall_dev_v1_202608/internal/middleware"
	"mall_dev_v1_202608/internal/model"
	"mall_dev_v1_202608/internal/repository"
	"mall_dev_v1_202608/internal/router"
	"mall_dev_v1_202608/internal/service"
	"mall_dev_v1_202608/internal/task"
	"mall_dev_v1_202608/pkg/config"
	"mall_dev_v1_202608/pkg/database"
	"mall_dev_v1_202608/pkg/logger"
	"mall_dev_v1_202608/pkg/utils"
)

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 2. 初始化日志
	zlog, err := logger.New(cfg.Server.Mode)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zlog.Sync()

	// 3. 初始化数据库
	db := initDatabase(cfg)

	// 4. 初始化依赖
	deps := initDependencies(db, cfg, zlog)

	// 5. 加载权限策略并写入种子数据
	if err := bootstrap(deps, zlog); err != nil {
		zlog.Fatal("初始化基础数据失败", zap.Error(err))
	}

	// 6. 启动定时任务
	tm := initTasks(deps, cfg, zlog)
	defer tm.Stop()

	// 7. 初始化路由
	gin.SetMode(ginMode(cfg.Server.Mode))
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLog(zlog))
	router.InitRoutes(r, deps.AuthMW, deps.Controllers.Auth, deps.Controllers.Product, deps.Controllers.Policy)

	// 8. 启动服务
	startServer(r, cfg, zlog)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	AuthMW      *middleware.AuthMiddleware
	Controllers *Controllers
}

// Repositories 仓库集合
type Repositories struct {
	Product  repository.ProductRepository
	Category repository.CategoryRepository
	Brand    repository.BrandRepository
	Merchant repository.MerchantRepository
	User     repository.UserRepository
	Policy   repository.PolicyRepository
}

// Services 服务集合
type Services struct {
	Token      *service.TokenService
	Permission *service.PermissionService
	Product    *service.ProductService
	Stock      *service.StockService
	Auth       *service.AuthService
}

// Controllers 控制器集合
type Controllers struct {
	Auth    *controller.AuthController
	Product *controller.ProductController
	Policy  *controller.PolicyController
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase(cfg *config.Config) *gorm.DB {
	return database.InitDB(cfg.Database.DSN(),
		// RBAC
		&model.SysUser{}, &model.PolicyRule{},
		// Catalog
		&model.Category{}, &model.Brand{}, &model.Merchant{},
		// Product
		&model.Product{}, &model.ProductImage{}, &model.ProductAttribute{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB, cfg *config.Config, zlog *zap.Logger) *Dependencies {
	// -------- Repo 层 --------
	repos := &Repositories{
		Product:  repository.NewProductRepository(db),
		Category: repository.NewCategoryRepository(db),
		Brand:    repository.NewBrandRepository(db),
		Merchant: repository.NewMerchantRepository(db),
		User:     repository.NewUserRepository(db),
		Policy:   repository.NewPolicyRepository(db),
	}

	// -------- Service 层 --------
	tokenSvc := service.NewTokenService(&service.TokenConfig{
		Secret:        cfg.JWT.Secret,
		TTL:           cfg.JWT.TTL,
		RefreshWindow: cfg.JWT.RefreshWindow,
		Issuer:        cfg.JWT.Issuer,
	})
	permSvc := service.NewPermissionService(repos.Policy)
	loginAttempts := utils.NewTTLCache(15 * time.Minute)

	services := &Services{
		Token:      tokenSvc,
		Permission: permSvc,
		Product:    service.NewProductService(repos.Product, repos.Category, repos.Brand, repos.Merchant, zlog),
		Stock:      service.NewStockService(repos.Product, zlog),
		Auth:       service.NewAuthService(repos.User, tokenSvc, loginAttempts, zlog),
	}

	// -------- Controller 层 --------
	controllers := &Controllers{
		Auth:    controller.NewAuthController(services.Auth),
		Product: controller.NewProductController(services.Product, services.Stock),
		Policy:  controller.NewPolicyController(services.Permission),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		AuthMW:      middleware.NewAuthMiddleware(tokenSvc, permSvc),
		Controllers: controllers,
	}
}

// ==================== 种子数据 ====================

// bootstrap 加载权限策略，库为空时写入默认策略和管理员账号
func bootstrap(deps *Dependencies, zlog *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	perms := deps.Services.Permission
	if err := perms.LoadPolicy(ctx); err != nil {
		return fmt.Errorf("加载权限策略失败: %w", err)
	}

	roles, err := perms.GetRolesForSubject("super_admin")
	if err != nil {
		return err
	}
	if len(roles) == 0 {
		zlog.Info("权限策略为空，写入默认策略")
		// manage 不隐含其他动作，路由校验到哪个动作就授哪个
		seeds := [][3]string{
			{"admin", service.ResourceProduct, service.ActionCreate},
			{"admin", service.ResourceProduct, service.ActionDelete},
			{"admin", service.ResourceProduct, service.ActionManage},
			{"admin", service.ResourceStock, service.ActionManage},
			{"admin", service.ResourcePolicy, service.ActionManage},
			{"operator", service.ResourceProduct, service.ActionRead},
			{"operator", service.ResourceProduct, service.ActionUpdate},
			{"operator", service.ResourceStock, service.ActionUpdate},
			{"viewer", service.ResourceProduct, service.ActionRead},
		}
		for _, s := range seeds {
			if _, err := perms.AddPolicy(s[0], s[1], s[2]); err != nil {
				return err
			}
		}
		// admin 继承 operator 的读写，operator 继承 viewer 的只读
		if _, err := perms.AddRoleForSubject("admin", "operator"); err != nil {
			return err
		}
		if _, err := perms.AddRoleForSubject("operator", "viewer"); err != nil {
			return err
		}
		if _, err := perms.AddRoleForSubject("super_admin", "admin"); err != nil {
			return err
		}
		if err := perms.SavePolicy(ctx); err != nil {
			return fmt.Errorf("保存权限策略失败: %w", err)
		}
	}

	// 默认管理员
	if _, err := deps.Repos.User.GetByUsername(ctx, "admin"); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		hash, err := service.HashPassword("admin123")
		if err != nil {
			return err
		}
		admin := &model.SysUser{
			Username: "admin",
			Password: hash,
			Role:     "admin",
			Status:   model.UserStatusActive,
		}
		if err := deps.Repos.User.Create(ctx, admin); err != nil {
			return err
		}
		zlog.Info("已创建默认管理员账号", zap.String("username", "admin"))
	}

	return nil
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(deps *Dependencies, cfg *config.Config, zlog *zap.Logger) *task.TaskManager {
	tm := task.NewTaskManager(deps.Repos.Product, &task.TaskManagerConfig{
		StockAlertEnabled:  cfg.Task.StockAlertEnabled,
		StockAlertSchedule: cfg.Task.StockAlertSchedule,
	}, zlog)

	if err := tm.Start(); err != nil {
		zlog.Fatal("启动定时任务失败", zap.Error(err))
	}
	return tm
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine, cfg *config.Config, zlog *zap.Logger) {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r,
	}

	// 异步启动服务
	go func() {
		zlog.Info("服务启动", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("服务启动失败", zap.Error(err))
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zlog.Fatal("服务强制关闭", zap.Error(err))
	}

	zlog.Info("服务已退出")
}

func ginMode(mode string) string {
	if mode == "release" {
		return gin.ReleaseMode
	}
	return gin.DebugMode
}
