package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mall_dev_v1_202608/internal/errs"
	"mall_dev_v1_202608/internal/repository"
)

// StockService 库存控制
// 正确性完全依赖存储层的条件更新原语，进程内不加锁、不缓存库存值；
// 多个调用方并发操作同一商品无需任何外部协调
type StockService struct {
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

// NewStockService 创建库存服务
func NewStockService(productRepo repository.ProductRepository, logger *zap.Logger) *StockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockService{
		productRepo: productRepo,
		logger:      logger,
	}
}

// DeductStock 扣减库存并累加销量
// 条件更新命中 0 行时返回 ErrInsufficientStock，
// 商品不存在与库存不足无法区分；需要区分的调用方先走 GetProduct
func (s *StockService) DeductStock(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("扣减数量 %d 必须为正: %w", quantity, errs.ErrInvalidArgument)
	}

	rows, err := s.productRepo.DeductStock(ctx, productID, quantity)
	if err != nil {
		return errs.Storage("deduct stock", err)
	}
	if rows == 0 {
		return fmt.Errorf("商品 %d 扣减 %d: %w", productID, quantity, errs.ErrInsufficientStock)
	}

	s.logger.Debug("库存扣减成功",
		zap.Int64("product_id", productID),
		zap.Int("quantity", quantity))
	return nil
}

// RestoreStock 回补库存并回退销量
// 销量钳制不低于 0；库存无上限约束
func (s *StockService) RestoreStock(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("回补数量 %d 必须为正: %w", quantity, errs.ErrInvalidArgument)
	}

	rows, err := s.productRepo.RestoreStock(ctx, productID, quantity)
	if err != nil {
		return errs.Storage("restore stock", err)
	}
	if rows == 0 {
		return fmt.Errorf("商品 %d: %w", productID, errs.ErrNotFound)
	}

	s.logger.Debug("库存回补成功",
		zap.Int64("product_id", productID),
		zap.Int("quantity", quantity))
	return nil
}

// UpdateStock 直接覆写库存（盘点场景），非相对变更
func (s *StockService) UpdateStock(ctx context.Context, productID int64, value int) error {
	if value < 0 {
		return fmt.Errorf("库存值 %d 不能为负: %w", value, errs.ErrInvalidArgument)
	}

	rows, err := s.productRepo.SetStock(ctx, productID, value)
	if err != nil {
		return errs.Storage("set stock", err)
	}
	if rows == 0 {
		return fmt.Errorf("商品 %d: %w", productID, errs.ErrNotFound)
	}
	return nil
}
