package task

import (
	"go.uber.org/zap"

	"mall_dev_v1_202608/internal/repository"
)

// ==================== TaskManager 后台任务管理器 ====================

// TaskManager 统一管理后台定时任务
type TaskManager struct {
	stockAlertTask *StockAlertTask
	logger         *zap.Logger
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	StockAlertEnabled  bool
	StockAlertSchedule string // cron 表达式，空则用默认值
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		StockAlertEnabled: true,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(productRepo repository.ProductRepository, cfg *TaskManagerConfig, logger *zap.Logger) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tm := &TaskManager{logger: logger}

	if cfg.StockAlertEnabled {
		tm.stockAlertTask = NewStockAlertTask(productRepo, logger)
		tm.stockAlertTask.SetSchedule(cfg.StockAlertSchedule)
	}

	return tm
}

// Start 启动所有任务
func (tm *TaskManager) Start() error {
	tm.logger.Info("正在启动后台任务...")

	if tm.stockAlertTask != nil {
		if err := tm.stockAlertTask.Start(); err != nil {
			return err
		}
	}

	tm.logger.Info("后台任务已全部启动")
	return nil
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	tm.logger.Info("正在停止后台任务...")

	if tm.stockAlertTask != nil {
		tm.stockAlertTask.Stop()
	}

	tm.logger.Info("后台任务已全部停止")
}

// Status 获取任务状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"stock_alert": tm.stockAlertTask != nil,
	}
}
