package task

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"mall_dev_v1_202608/internal/repository"
)

// ==================== StockAlertTask 低库存巡检任务 ====================

// StockAlertTask 定时扫描活跃商品，库存触及阈值时告警
type StockAlertTask struct {
	productRepo repository.ProductRepository
	logger      *zap.Logger
	cron        *cron.Cron

	spec  string // cron 表达式
	limit int    // 单次扫描上限
}

func NewStockAlertTask(productRepo repository.ProductRepository, logger *zap.Logger) *StockAlertTask {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockAlertTask{
		productRepo: productRepo,
		logger:      logger,
		cron:        cron.New(cron.WithSeconds()), // 支持秒级控制
		spec:        "0 0/10 * * * *",             // 每 10 分钟巡检一次
		limit:       200,
	}
}

// SetSchedule 覆盖默认巡检周期
func (t *StockAlertTask) SetSchedule(spec string) {
	if spec != "" {
		t.spec = spec
	}
}

// Start 启动巡检任务
func (t *StockAlertTask) Start() error {
	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if _, err := t.Run(ctx); err != nil {
			t.logger.Error("低库存巡检执行失败", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	t.cron.Start()
	t.logger.Info("低库存巡检任务已启动", zap.String("schedule", t.spec))
	return nil
}

// Stop 停止巡检任务，等待正在执行的轮次结束
func (t *StockAlertTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	t.logger.Info("低库存巡检任务已停止")
}

// Run 执行一次完整巡检，返回告警商品数
func (t *StockAlertTask) Run(ctx context.Context) (int, error) {
	products, err := t.productRepo.ListLowStock(ctx, t.limit)
	if err != nil {
		return 0, err
	}

	for _, p := range products {
		t.logger.Warn("商品库存低于阈值",
			zap.Int64("product_id", p.ID),
			zap.String("name", p.Name),
			zap.Int("stock", p.Stock),
			zap.Int("min_stock", p.MinStock))
	}

	if len(products) > 0 {
		t.logger.Info("低库存巡检完成", zap.Int("alert_count", len(products)))
	}
	return len(products), nil
}
