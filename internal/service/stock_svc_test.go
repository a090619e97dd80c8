package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mall_dev_v1_202608/internal/errs"
	"mall_dev_v1_202608/internal/model"
	"mall_dev_v1_202608/internal/repository"
)

// setupStockTestDB sqlite 内存库限制单连接，保证并发测试走同一个库
func setupStockTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层 SQL DB 失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.Product{}); err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

func seedStockProduct(t *testing.T, db *gorm.DB, stock, soldCount int) *model.Product {
	p := &model.Product{
		Name:      "库存测试商品",
		Status:    model.ProductStatusActive,
		Stock:     stock,
		SoldCount: soldCount,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}
	return p
}

func TestStockService_DeductHappyPath(t *testing.T) {
	db := setupStockTestDB(t)
	svc := NewStockService(repository.NewProductRepository(db), nil)
	ctx := context.Background()

	p := seedStockProduct(t, db, 10, 0)

	if err := svc.DeductStock(ctx, p.ID, 3); err != nil {
		t.Fatalf("DeductStock() error = %v", err)
	}

	var got model.Product
	db.First(&got, p.ID)
	if got.Stock != 7 {
		t.Errorf("Stock = %d, want 7", got.Stock)
	}
	if got.SoldCount != 3 {
		t.Errorf("SoldCount = %d, want 3", got.SoldCount)
	}
}

func TestStockService_DeductInsufficient(t *testing.T) {
	db := setupStockTestDB(t)
	svc := NewStockService(repository.NewProductRepository(db), nil)
	ctx := context.Background()

	p := seedStockProduct(t, db, 5, 0)

	err := svc.DeductStock(ctx, p.ID, 6)
	if !errors.Is(err, errs.ErrInsufficientStock) {
		t.Fatalf("超量扣减应返回 ErrInsufficientStock, got %v", err)
	}

	// 失败不留痕
	var got model.Product
	db.First(&got, p.ID)
	if got.Stock != 5 || got.SoldCount != 0 {
		t.Errorf("失败后库存应不变: stock=%d sold=%d", got.Stock, got.SoldCount)
	}

	// 扣到刚好为 0 是允许的
	if err := svc.DeductStock(ctx, p.ID, 5); err != nil {
		t.Fatalf("扣减至 0 应成功: %v", err)
	}
	db.First(&got, p.ID)
	if got.Stock != 0 {
		t.Errorf("Stock = %d, want 0", got.Stock)
	}
}

func TestStockService_DeductMissingProduct(t *testing.T) {
	db := setupStockTestDB(t)
	svc := NewStockService(repository.NewProductRepository(db), nil)

	err := svc.DeductStock(context.Background(), 9999, 1)
	if !errors.Is(err, errs.ErrInsufficientStock) {
		t.Fatalf("商品不存在与库存不足同类处理, got %v", err)
	}
}

func TestStockService_InvalidQuantity(t *testing.T) {
	db := setupStockTestDB(t)
	svc := NewStockService(repository.NewProductRepository(db), nil)
	ctx := context.Background()

	p := seedStockProduct(t, db, 10, 0)

	for _, q := range []int{0, -1} {
		if err := svc.DeductStock(ctx, p.ID, q); !errors.Is(err, errs.ErrInvalidArgument) {
			t.Errorf("DeductStock(%d) = %v, want ErrInvalidArgument", q, err)
		}
		if err := svc.RestoreStock(ctx, p.ID, q); !errors.Is(err, errs.ErrInvalidArgument) {
			t.Errorf("RestoreStock(%d) = %v, want ErrInvalidArgument", q, err)
		}
	}
	if err := svc.UpdateStock(ctx, p.ID, -1); !errors.Is(err, errs.ErrInvalidArgument) {
		t.Errorf("UpdateStock(-1) = %v, want ErrInvalidArgument", err)
	}
}

func TestStockService_RestoreClampsSoldCount(t *testing.T) {
	db := setupStockTestDB(t)
	svc := NewStockService(repository.NewProductRepository(db), nil)
	ctx := context.Background()

	// 销量 2，回补 5：库存照加，销量钳制到 0
	p := seedStockProduct(t, db, 10, 2)

	if err := svc.RestoreStock(ctx, p.ID, 5); err != nil {
		t.Fatalf("RestoreStock() error = %v", err)
	}

	var got model.Product
	db.First(&got, p.ID)
	if got.Stock != 15 {
		t.Errorf("Stock = %d, want 15", got.Stock)
	}
	if got.SoldCount != 0 {
		t.Errorf("SoldCount = %d, want 0（不为负）", got.SoldCount)
	}

	// 正常回退
	db.Model(&model.Product{}).Where("id = ?", p.ID).Update("sold_count", 10)
	if err := svc.RestoreStock(ctx, p.ID, 4); err != nil {
		t.Fatalf("RestoreStock() error = %v", err)
	}
	db.First(&got, p.ID)
	if got.SoldCount != 6 {
		t.Errorf("SoldCount = %d, want 6", got.SoldCount)
	}
}

func TestStockService_RestoreMissingProduct(t *testing.T) {
	db := setupStockTestDB(t)
	svc := NewStockService(repository.NewProductRepository(db), nil)

	if err := svc.RestoreStock(context.Background(), 9999, 1); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("回补不存在的商品应返回 ErrNotFound, got %v", err)
	}
}

func TestStockService_UpdateStockOverwrite(t *testing.T) {
	db := setupStockTestDB(t)
	svc := NewStockService(repository.NewProductRepository(db), nil)
	ctx := context.Background()

	p := seedStockProduct(t, db, 10, 3)

	if err := svc.UpdateStock(ctx, p.ID, 100); err != nil {
		t.Fatalf("UpdateStock() error = %v", err)
	}

	var got model.Product
	db.First(&got, p.ID)
	if got.Stock != 100 {
		t.Errorf("Stock = %d, want 100", got.Stock)
	}
	if got.SoldCount != 3 {
		t.Errorf("盘点覆写不应动销量: SoldCount = %d, want 3", got.SoldCount)
	}

	// 覆写为 0 允许
	if err := svc.UpdateStock(ctx, p.ID, 0); err != nil {
		t.Fatalf("UpdateStock(0) error = %v", err)
	}

	if err := svc.UpdateStock(ctx, 9999, 10); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("覆写不存在的商品应返回 ErrNotFound, got %v", err)
	}
}

func TestStockService_ConcurrentDeductNeverOversells(t *testing.T) {
	db := setupStockTestDB(t)
	svc := NewStockService(repository.NewProductRepository(db), nil)
	ctx := context.Background()

	// 库存 10，20 个协程各扣 1：恰好 10 个成功
	p := seedStockProduct(t, db, 10, 0)

	var success, insufficient int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.DeductStock(ctx, p.ID, 1)
			switch {
			case err == nil:
				atomic.AddInt64(&success, 1)
			case errors.Is(err, errs.ErrInsufficientStock):
				atomic.AddInt64(&insufficient, 1)
			default:
				t.Errorf("意外错误: %v", err)
			}
		}()
	}
	wg.Wait()

	if success != 10 {
		t.Errorf("成功数 = %d, want 10", success)
	}
	if insufficient != 10 {
		t.Errorf("库存不足数 = %d, want 10", insufficient)
	}

	var got model.Product
	db.First(&got, p.ID)
	if got.Stock != 0 {
		t.Errorf("最终库存 = %d, want 0", got.Stock)
	}
	if got.SoldCount != 10 {
		t.Errorf("最终销量 = %d, want 10", got.SoldCount)
	}
}

func TestStockService_ConcurrentCompetingDeducts(t *testing.T) {
	db := setupStockTestDB(t)
	svc := NewStockService(repository.NewProductRepository(db), nil)
	ctx := context.Background()

	// 库存 100，并发扣 30 和 80：恰好一个成功
	p := seedStockProduct(t, db, 100, 0)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, q := range []int{30, 80} {
		wg.Add(1)
		go func(q int) {
			defer wg.Done()
			results <- svc.DeductStock(ctx, p.ID, q)
		}(q)
	}
	wg.Wait()
	close(results)

	var okCount, failCount int
	for err := range results {
		if err == nil {
			okCount++
		} else if errors.Is(err, errs.ErrInsufficientStock) {
			failCount++
		} else {
			t.Fatalf("意外错误: %v", err)
		}
	}
	if okCount != 1 || failCount != 1 {
		t.Errorf("成功/失败 = %d/%d, want 1/1", okCount, failCount)
	}

	var got model.Product
	db.First(&got, p.ID)
	if got.Stock != 20 && got.Stock != 70 {
		t.Errorf("最终库存 = %d, want 20 或 70", got.Stock)
	}
}
