package dto

import (
	"github.com/shopspring/decimal"

	"mall_dev_v1_202608/internal/model"
)

// ==================== 请求 ====================

// ProductImageReq 商品图片入参，列表第 0 张为主图
type ProductImageReq struct {
	Url     string `json:"url" binding:"required"`
	AltText string `json:"alt_text"`
}

// ProductAttrReq 商品属性入参，按入参顺序排序
type ProductAttrReq struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value"`
}

// SeoMetaReq SEO 元数据
type SeoMetaReq struct {
	Title       string `json:"title"`
	Keywords    string `json:"keywords"`
	Description string `json:"description"`
}

// CreateProductReq 创建商品
type CreateProductReq struct {
	Name        string `json:"name" binding:"required"`
	SubTitle    string `json:"sub_title"`
	Description string `json:"description"`
	ProductSN   string `json:"product_sn"`

	CategoryID int64 `json:"category_id" binding:"required"`
	BrandID    int64 `json:"brand_id"`
	MerchantID int64 `json:"merchant_id" binding:"required"`

	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	CostPrice     decimal.Decimal `json:"cost_price"`

	Stock    int `json:"stock" binding:"gte=0"`
	MinStock int `json:"min_stock"`
	MaxStock int `json:"max_stock"`

	Weight float64 `json:"weight"`
	Volume float64 `json:"volume"`
	Unit   string  `json:"unit"`

	IsHot       bool `json:"is_hot"`
	IsNew       bool `json:"is_new"`
	IsRecommend bool `json:"is_recommend"`

	Keywords []string    `json:"keywords"`
	Seo      *SeoMetaReq `json:"seo"`
	Sort     int         `json:"sort"`

	Images     []ProductImageReq `json:"images"`
	Attributes []ProductAttrReq  `json:"attributes"`
}

// UpdateProductReq 更新商品
// Images/Attributes 为 nil 表示保持不变，非 nil 则整体替换
type UpdateProductReq struct {
	Name        string `json:"name" binding:"required"`
	SubTitle    string `json:"sub_title"`
	Description string `json:"description"`
	ProductSN   string `json:"product_sn"`

	CategoryID int64 `json:"category_id" binding:"required"`
	BrandID    int64 `json:"brand_id"`

	Price         decimal.Decimal `json:"price"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	CostPrice     decimal.Decimal `json:"cost_price"`

	MinStock int `json:"min_stock"`
	MaxStock int `json:"max_stock"`

	Weight float64 `json:"weight"`
	Volume float64 `json:"volume"`
	Unit   string  `json:"unit"`

	IsHot       bool `json:"is_hot"`
	IsNew       bool `json:"is_new"`
	IsRecommend bool `json:"is_recommend"`

	Keywords []string    `json:"keywords"`
	Seo      *SeoMetaReq `json:"seo"`
	Sort     int         `json:"sort"`

	Images     []ProductImageReq `json:"images"`
	Attributes []ProductAttrReq  `json:"attributes"`
}

// ProductListReq 商品列表查询
type ProductListReq struct {
	CategoryID  int64   `form:"category_id"`
	BrandID     int64   `form:"brand_id"`
	MerchantID  int64   `form:"merchant_id"`
	Status      string  `form:"status"`
	IsHot       *bool   `form:"is_hot"`
	IsNew       *bool   `form:"is_new"`
	IsRecommend *bool   `form:"is_recommend"`
	Keyword     string  `form:"keyword"`
	PriceMin    *string `form:"price_min"`
	PriceMax    *string `form:"price_max"`
	Sort        string  `form:"sort"`
	Page        int     `form:"page,default=1"`
	PageSize    int     `form:"page_size,default=20"`
}

// UpdateStatusReq 单个状态变更
type UpdateStatusReq struct {
	Status string `json:"status" binding:"required"`
}

// BatchUpdateStatusReq 批量状态变更
type BatchUpdateStatusReq struct {
	IDs    []int64 `json:"ids" binding:"required,min=1"`
	Status string  `json:"status" binding:"required"`
}

// StockReq 库存变更
type StockReq struct {
	Quantity int `json:"quantity" binding:"required"`
}

// ==================== 响应 ====================

// ProductListResp 商品列表响应
type ProductListResp struct {
	Code     int             `json:"code"`
	Message  string          `json:"message"`
	Data     []model.Product `json:"data"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}
