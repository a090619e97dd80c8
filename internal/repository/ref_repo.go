package repository

import (
	"context"

	"gorm.io/gorm"

	"mall_dev_v1_202608/internal/model"
)

// 引用实体仓储：商品创建/更新前的存在性校验依赖这里

// CategoryRepository 分类仓储
type CategoryRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Category, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, category *model.Category) error
}

// BrandRepository 品牌仓储
type BrandRepository interface {
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, brand *model.Brand) error
}

// MerchantRepository 商家仓储
type MerchantRepository interface {
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, merchant *model.Merchant) error
}

// ==================== 实现 ====================

type categoryRepo struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepo{db: db}
}

func (r *categoryRepo) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *categoryRepo) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

type brandRepo struct {
	db *gorm.DB
}

func NewBrandRepository(db *gorm.DB) BrandRepository {
	return &brandRepo{db: db}
}

func (r *brandRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Brand{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *brandRepo) Create(ctx context.Context, brand *model.Brand) error {
	return r.db.WithContext(ctx).Create(brand).Error
}

type merchantRepo struct {
	db *gorm.DB
}

func NewMerchantRepository(db *gorm.DB) MerchantRepository {
	return &merchantRepo{db: db}
}

func (r *merchantRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Merchant{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *merchantRepo) Create(ctx context.Context, merchant *model.Merchant) error {
	return r.db.WithContext(ctx).Create(merchant).Error
}
