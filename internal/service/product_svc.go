package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"mall_dev_v1_202608/internal/api/dto"
	"mall_dev_v1_202608/internal/errs"
	"mall_dev_v1_202608/internal/model"
	"mall_dev_v1_202608/internal/repository"
)

// ProductService 商品聚合的完整生命周期
// 商品 + 图片 + 属性作为单一事务边界，任何子步骤失败整体回滚，
// 不允许半成品聚合对外可见
type ProductService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	brandRepo    repository.BrandRepository
	merchantRepo repository.MerchantRepository
	logger       *zap.Logger
}

// NewProductService 创建商品服务
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	brandRepo repository.BrandRepository,
	merchantRepo repository.MerchantRepository,
	logger *zap.Logger,
) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		brandRepo:    brandRepo,
		merchantRepo: merchantRepo,
		logger:       logger,
	}
}

// ==================== 创建 ====================

// CreateProduct 创建商品聚合，初始状态为草稿
func (s *ProductService) CreateProduct(ctx context.Context, req *dto.CreateProductReq) (*model.Product, error) {
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("价格不能为负: %w", errs.ErrInvalidArgument)
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("库存不能为负: %w", errs.ErrInvalidArgument)
	}

	if err := s.checkRefs(ctx, req.CategoryID, req.BrandID, req.MerchantID); err != nil {
		return nil, err
	}

	product := &model.Product{
		CategoryID:    req.CategoryID,
		BrandID:       req.BrandID,
		MerchantID:    req.MerchantID,
		Name:          req.Name,
		SubTitle:      req.SubTitle,
		Description:   req.Description,
		ProductSN:     req.ProductSN,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		CostPrice:     req.CostPrice,
		Stock:         req.Stock,
		MinStock:      req.MinStock,
		MaxStock:      req.MaxStock,
		Weight:        req.Weight,
		Volume:        req.Volume,
		Unit:          req.Unit,
		Status:        model.ProductStatusDraft,
		IsHot:         req.IsHot,
		IsNew:         req.IsNew,
		IsRecommend:   req.IsRecommend,
		Keywords:      req.Keywords,
		SeoMeta:       marshalSeo(req.Seo),
		Sort:          req.Sort,
	}

	err := s.productRepo.Transaction(ctx, func(txRepo repository.ProductRepository) error {
		if err := txRepo.Create(ctx, product); err != nil {
			return fmt.Errorf("插入商品行: %w", err)
		}
		if err := txRepo.ReplaceImages(ctx, product.ID, buildImages(req.Images)); err != nil {
			return fmt.Errorf("插入商品图片: %w", err)
		}
		if err := txRepo.ReplaceAttributes(ctx, product.ID, buildAttrs(req.Attributes)); err != nil {
			return fmt.Errorf("插入商品属性: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, errs.Storage("create product", err)
	}

	return s.GetProductRaw(ctx, product.ID)
}

// ==================== 更新 ====================

// UpdateProduct 更新商品聚合
// 图片/属性传 nil 保持不变，非 nil 整体替换（先删后插，非合并）
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, req *dto.UpdateProductReq) (*model.Product, error) {
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("价格不能为负: %w", errs.ErrInvalidArgument)
	}

	if _, err := s.GetProductRaw(ctx, id); err != nil {
		return nil, err
	}
	if err := s.checkRefs(ctx, req.CategoryID, req.BrandID, 0); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"category_id":    req.CategoryID,
		"brand_id":       req.BrandID,
		"name":           req.Name,
		"sub_title":      req.SubTitle,
		"description":    req.Description,
		"product_sn":     req.ProductSN,
		"price":          req.Price,
		"original_price": req.OriginalPrice,
		"cost_price":     req.CostPrice,
		"min_stock":      req.MinStock,
		"max_stock":      req.MaxStock,
		"weight":         req.Weight,
		"volume":         req.Volume,
		"unit":           req.Unit,
		"is_hot":         req.IsHot,
		"is_new":         req.IsNew,
		"is_recommend":   req.IsRecommend,
		"sort":           req.Sort,
	}
	if req.Keywords != nil {
		fields["keywords"] = model.StringList(req.Keywords)
	}
	if req.Seo != nil {
		fields["seo_meta"] = marshalSeo(req.Seo)
	}

	err := s.productRepo.Transaction(ctx, func(txRepo repository.ProductRepository) error {
		if err := txRepo.UpdateFields(ctx, id, fields); err != nil {
			return fmt.Errorf("更新商品行: %w", err)
		}
		if req.Images != nil {
			if err := txRepo.ReplaceImages(ctx, id, buildImages(req.Images)); err != nil {
				return fmt.Errorf("替换商品图片: %w", err)
			}
		}
		if req.Attributes != nil {
			if err := txRepo.ReplaceAttributes(ctx, id, buildAttrs(req.Attributes)); err != nil {
				return fmt.Errorf("替换商品属性: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, errs.Storage("update product", err)
	}

	return s.GetProductRaw(ctx, id)
}

// ==================== 删除 ====================

// DeleteProduct 软删除，行保留但从常规查询中消失
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	if _, err := s.GetProductRaw(ctx, id); err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return errs.Storage("delete product", err)
	}
	return nil
}

// ==================== 查询 ====================

// GetProductRaw 读取聚合，不带副作用
func (s *ProductService) GetProductRaw(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("商品 %d: %w", id, errs.ErrNotFound)
		}
		return nil, errs.Storage("get product", err)
	}
	return product, nil
}

// GetProduct 读取聚合并累加浏览计数
// 计数是尽力而为：失败只记日志，绝不影响读取本身
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	product, err := s.GetProductRaw(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.IncrViewCount(ctx, id); err != nil {
		s.logger.Warn("浏览计数累加失败", zap.Int64("product_id", id), zap.Error(err))
	}
	return product, nil
}

// ListProducts 商品列表，返回当前页与总数
func (s *ProductService) ListProducts(ctx context.Context, req *dto.ProductListReq) ([]model.Product, int64, error) {
	if req.Status != "" && !model.ValidProductStatus(req.Status) {
		return nil, 0, fmt.Errorf("状态 %q: %w", req.Status, errs.ErrInvalidArgument)
	}

	filter := repository.ProductFilter{
		CategoryID:  req.CategoryID,
		BrandID:     req.BrandID,
		MerchantID:  req.MerchantID,
		Status:      req.Status,
		IsHot:       req.IsHot,
		IsNew:       req.IsNew,
		IsRecommend: req.IsRecommend,
		Keyword:     req.Keyword,
		Sort:        req.Sort,
		Page:        req.Page,
		PageSize:    req.PageSize,
	}

	var err error
	if filter.PriceMin, err = parsePrice(req.PriceMin); err != nil {
		return nil, 0, err
	}
	if filter.PriceMax, err = parsePrice(req.PriceMax); err != nil {
		return nil, 0, err
	}

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, errs.Storage("list products", err)
	}
	return products, total, nil
}

// ==================== 状态流转 ====================

// UpdateStatus 单个商品状态变更
func (s *ProductService) UpdateStatus(ctx context.Context, id int64, status string) error {
	if !model.ValidProductStatus(status) {
		return fmt.Errorf("状态 %q: %w", status, errs.ErrInvalidArgument)
	}
	if _, err := s.GetProductRaw(ctx, id); err != nil {
		return err
	}
	if err := s.productRepo.UpdateFields(ctx, id, map[string]interface{}{"status": status}); err != nil {
		return errs.Storage("update status", err)
	}
	return nil
}

// BatchUpdateStatus 批量状态变更
func (s *ProductService) BatchUpdateStatus(ctx context.Context, ids []int64, status string) error {
	if !model.ValidProductStatus(status) {
		return fmt.Errorf("状态 %q: %w", status, errs.ErrInvalidArgument)
	}
	if len(ids) == 0 {
		return fmt.Errorf("商品 ID 列表为空: %w", errs.ErrInvalidArgument)
	}
	if err := s.productRepo.BatchUpdateFields(ctx, ids, map[string]interface{}{"status": status}); err != nil {
		return errs.Storage("batch update status", err)
	}
	return nil
}

// ==================== 内部辅助 ====================

// checkRefs 引用实体存在性校验；brandID/merchantID 为 0 时跳过对应校验
func (s *ProductService) checkRefs(ctx context.Context, categoryID, brandID, merchantID int64) error {
	ok, err := s.categoryRepo.Exists(ctx, categoryID)
	if err != nil {
		return errs.Storage("check category", err)
	}
	if !ok {
		return fmt.Errorf("分类 %d: %w", categoryID, errs.ErrNotFound)
	}

	if brandID > 0 {
		ok, err = s.brandRepo.Exists(ctx, brandID)
		if err != nil {
			return errs.Storage("check brand", err)
		}
		if !ok {
			return fmt.Errorf("品牌 %d: %w", brandID, errs.ErrNotFound)
		}
	}

	if merchantID > 0 {
		ok, err = s.merchantRepo.Exists(ctx, merchantID)
		if err != nil {
			return errs.Storage("check merchant", err)
		}
		if !ok {
			return fmt.Errorf("商家 %d: %w", merchantID, errs.ErrNotFound)
		}
	}
	return nil
}

// buildImages 第 0 张标记为主图
func buildImages(reqs []dto.ProductImageReq) []model.ProductImage {
	images := make([]model.ProductImage, 0, len(reqs))
	for i, req := range reqs {
		images = append(images, model.ProductImage{
			Url:     req.Url,
			AltText: req.AltText,
			Sort:    i,
			IsMain:  i == 0,
		})
	}
	return images
}

func buildAttrs(reqs []dto.ProductAttrReq) []model.ProductAttribute {
	attrs := make([]model.ProductAttribute, 0, len(reqs))
	for i, req := range reqs {
		attrs = append(attrs, model.ProductAttribute{
			Name:  req.Name,
			Value: req.Value,
			Sort:  i,
		})
	}
	return attrs
}

func marshalSeo(seo *dto.SeoMetaReq) datatypes.JSON {
	if seo == nil {
		return nil
	}
	raw, err := json.Marshal(seo)
	if err != nil {
		return nil
	}
	return raw
}

func parsePrice(s *string) (*decimal.Decimal, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("价格 %q 无法解析: %w", *s, errs.ErrInvalidArgument)
	}
	return &d, nil
}
