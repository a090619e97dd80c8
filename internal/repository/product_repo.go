package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"mall_dev_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// ProductRepository 商品仓储接口
// 商品 + 图片 + 属性是一个聚合，多步写入必须包在 Transaction 内
type ProductRepository interface {
	// 基础 CRUD
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	// GetByIDUnscoped 包含软删除行的显式读路径
	GetByIDUnscoped(ctx context.Context, id int64) (*model.Product, error)
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	BatchUpdateFields(ctx context.Context, ids []int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error)

	// 子表整体替换（先删后插，全量替换语义）
	ReplaceImages(ctx context.Context, productID int64, images []model.ProductImage) error
	ReplaceAttributes(ctx context.Context, productID int64, attrs []model.ProductAttribute) error

	// 计数器
	IncrViewCount(ctx context.Context, id int64) error

	// 库存原子操作，返回受影响行数
	DeductStock(ctx context.Context, id int64, quantity int) (int64, error)
	RestoreStock(ctx context.Context, id int64, quantity int) (int64, error)
	SetStock(ctx context.Context, id int64, value int) (int64, error)

	// 统计
	ListLowStock(ctx context.Context, limit int) ([]model.Product, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// 事务
	WithTx(tx *gorm.DB) ProductRepository
	Transaction(ctx context.Context, fn func(txRepo ProductRepository) error) error
}

// ==================== 过滤条件 ====================

// ProductFilter 商品列表过滤条件
type ProductFilter struct {
	CategoryID  int64
	BrandID     int64
	MerchantID  int64
	Status      string
	IsHot       *bool
	IsNew       *bool
	IsRecommend *bool
	Keyword     string           // 名称/描述模糊匹配
	PriceMin    *decimal.Decimal // 闭区间
	PriceMax    *decimal.Decimal
	Sort        string // price_asc / price_desc / sales_desc / new_desc / 默认 sort+id 倒序
	Page        int
	PageSize    int
}

// 排序键常量
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortSalesDesc = "sales_desc"
	SortNewDesc   = "new_desc"
)

// ==================== 仓储实现 ====================

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Omit("Images", "Attributes", "Category", "Brand", "Merchant").
		Create(product).Error
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort ASC") }).
		Preload("Attributes", func(db *gorm.DB) *gorm.DB { return db.Order("sort ASC") }).
		First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) GetByIDUnscoped(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).Unscoped().
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort ASC") }).
		Preload("Attributes", func(db *gorm.DB) *gorm.DB { return db.Order("sort ASC") }).
		First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *productRepo) BatchUpdateFields(ctx context.Context, ids []int64, fields map[string]interface{}) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id IN ?", ids).
		Updates(fields).Error
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Product{}, id).Error
}

func (r *productRepo) List(ctx context.Context, filter ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Product{})

	if filter.CategoryID > 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.BrandID > 0 {
		query = query.Where("brand_id = ?", filter.BrandID)
	}
	if filter.MerchantID > 0 {
		query = query.Where("merchant_id = ?", filter.MerchantID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.IsHot != nil {
		query = query.Where("is_hot = ?", *filter.IsHot)
	}
	if filter.IsNew != nil {
		query = query.Where("is_new = ?", *filter.IsNew)
	}
	if filter.IsRecommend != nil {
		query = query.Where("is_recommend = ?", *filter.IsRecommend)
	}
	if filter.Keyword != "" {
		pattern := "%" + filter.Keyword + "%"
		query = query.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}
	if filter.PriceMin != nil {
		query = query.Where("price >= ?", *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		query = query.Where("price <= ?", *filter.PriceMax)
	}

	// 总数基于同一过滤条件，与分页无关
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filter.Sort {
	case SortPriceAsc:
		query = query.Order("price ASC")
	case SortPriceDesc:
		query = query.Order("price DESC")
	case SortSalesDesc:
		query = query.Order("sold_count DESC")
	case SortNewDesc:
		query = query.Order("created_at DESC")
	default:
		query = query.Order("sort DESC").Order("id DESC")
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	offset := (filter.Page - 1) * filter.PageSize
	err := query.
		Limit(filter.PageSize).
		Offset(offset).
		Find(&products).Error

	return products, total, err
}

func (r *productRepo) ReplaceImages(ctx context.Context, productID int64, images []model.ProductImage) error {
	// 子表物理删除，避免唯一索引残留
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&model.ProductImage{}).Error; err != nil {
		return err
	}
	if len(images) == 0 {
		return nil
	}
	for i := range images {
		images[i].ProductID = productID
	}
	return r.db.WithContext(ctx).Create(&images).Error
}

func (r *productRepo) ReplaceAttributes(ctx context.Context, productID int64, attrs []model.ProductAttribute) error {
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&model.ProductAttribute{}).Error; err != nil {
		return err
	}
	if len(attrs) == 0 {
		return nil
	}
	for i := range attrs {
		attrs[i].ProductID = productID
	}
	return r.db.WithContext(ctx).Create(&attrs).Error
}

func (r *productRepo) IncrViewCount(ctx context.Context, id int64) error {
	// UpdateColumn 不触碰 updated_at
	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

// DeductStock 条件扣减：库存充足才更新，检查与扣减在同一条语句内原子完成。
// 禁止先读后写，两个并发扣减都读到足够库存会导致超卖。
// 返回 0 行表示商品不存在或库存不足，调用方不可区分。
func (r *productRepo) DeductStock(ctx context.Context, id int64, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND stock >= ?", id, quantity).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock - ?", quantity),
			"sold_count": gorm.Expr("sold_count + ?", quantity),
		})
	return res.RowsAffected, res.Error
}

// RestoreStock 回补库存，sold_count 钳制不低于 0。
// CASE WHEN 写法在 postgres 与 sqlite 下行为一致。
func (r *productRepo) RestoreStock(ctx context.Context, id int64, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", quantity),
			"sold_count": gorm.Expr("CASE WHEN sold_count > ? THEN sold_count - ? ELSE 0 END", quantity, quantity),
		})
	return res.RowsAffected, res.Error
}

func (r *productRepo) SetStock(ctx context.Context, id int64, value int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Update("stock", value)
	return res.RowsAffected, res.Error
}

func (r *productRepo) ListLowStock(ctx context.Context, limit int) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("status = ? AND stock <= min_stock", model.ProductStatusActive).
		Order("stock ASC").
		Limit(limit).
		Find(&products).Error
	return products, err
}

func (r *productRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type result struct {
		Status string
		Count  int64
	}
	var results []result

	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	stats := make(map[string]int64)
	for _, row := range results {
		stats[row.Status] = row.Count
	}
	return stats, nil
}

func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{db: tx}
}

func (r *productRepo) Transaction(ctx context.Context, fn func(txRepo ProductRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
