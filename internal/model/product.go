package model

import (
	"database/sql/driver"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// StringList 字符串列表字段
// postgres 存 text[]，其他方言退化为 text（pq 数组字面量）
type StringList pq.StringArray

func (StringList) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

func (l *StringList) Scan(v interface{}) error    { return (*pq.StringArray)(l).Scan(v) }
func (l StringList) Value() (driver.Value, error) { return pq.StringArray(l).Value() }

// 商品状态常量
const (
	ProductStatusDraft    = "draft"    // 草稿
	ProductStatusActive   = "active"   // 上架
	ProductStatusInactive = "inactive" // 下架
)

// ValidProductStatus 状态白名单校验
func ValidProductStatus(s string) bool {
	switch s {
	case ProductStatusDraft, ProductStatusActive, ProductStatusInactive:
		return true
	}
	return false
}

type Product struct {
	BaseModel

	// --- 归属关系 ---
	CategoryID int64     `gorm:"index;not null" json:"category_id"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	BrandID    int64     `gorm:"index;default:0" json:"brand_id"` // 可选
	Brand      *Brand    `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
	MerchantID int64     `gorm:"index;not null" json:"merchant_id"`
	Merchant   *Merchant `gorm:"foreignKey:MerchantID" json:"merchant,omitempty"`

	// --- 基本信息 ---
	Name        string `gorm:"size:255;not null;index" json:"name"`
	SubTitle    string `gorm:"size:255" json:"sub_title"`
	Description string `gorm:"type:text" json:"description"`
	ProductSN   string `gorm:"size:64;index" json:"product_sn"`

	// --- 价格 (精确小数，货币计算禁止浮点) ---
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	OriginalPrice decimal.Decimal `gorm:"type:decimal(10,2)" json:"original_price"`
	CostPrice     decimal.Decimal `gorm:"type:decimal(10,2)" json:"cost_price"`

	// --- 库存 ---
	// Stock 恒 >= 0，扣减必须走条件更新，见 repository.DeductStock
	Stock     int `gorm:"not null;default:0" json:"stock"`
	MinStock  int `gorm:"default:0" json:"min_stock"` // 低库存告警线
	MaxStock  int `gorm:"default:0" json:"max_stock"`
	SoldCount int `gorm:"default:0;index" json:"sold_count"`

	// --- 规格 ---
	Weight float64 `gorm:"default:0" json:"weight"` // 克
	Volume float64 `gorm:"default:0" json:"volume"` // 立方厘米
	Unit   string  `gorm:"size:32" json:"unit"`

	// --- 状态与运营标记 ---
	Status      string `gorm:"size:20;default:'draft';index:idx_status_sort" json:"status"`
	IsHot       bool   `gorm:"default:false" json:"is_hot"`
	IsNew       bool   `gorm:"default:false" json:"is_new"`
	IsRecommend bool   `gorm:"default:false" json:"is_recommend"`

	// --- SEO ---
	Keywords StringList     `json:"keywords"`
	SeoMeta  datatypes.JSON `json:"seo_meta"` // {title, keywords, description}

	// --- 排序与计数 ---
	Sort      int   `gorm:"default:0;index:idx_status_sort" json:"sort"`
	ViewCount int64 `gorm:"default:0" json:"view_count"` // 尽力而为计数，允许丢失

	// --- 关联关系 ---
	Images     []ProductImage     `gorm:"foreignKey:ProductID" json:"images"`
	Attributes []ProductAttribute `gorm:"foreignKey:ProductID" json:"attributes"`
}

func (Product) TableName() string {
	return "products"
}

type ProductImage struct {
	ChildModel

	ProductID int64    `gorm:"index;not null" json:"product_id"`
	Product   *Product `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	Url     string `gorm:"size:512;not null" json:"url"`
	AltText string `gorm:"size:255" json:"alt_text"`
	Sort    int    `gorm:"default:0" json:"sort"`
	// 有图时必须恰好一张主图（入参第 0 张）
	IsMain bool `gorm:"default:false" json:"is_main"`
}

func (ProductImage) TableName() string {
	return "product_images"
}

type ProductAttribute struct {
	ChildModel

	ProductID int64    `gorm:"index;not null;uniqueIndex:uk_product_attr" json:"product_id"`
	Product   *Product `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`

	Name  string `gorm:"size:64;not null;uniqueIndex:uk_product_attr" json:"name"`
	Value string `gorm:"size:255" json:"value"`
	Sort  int    `gorm:"default:0" json:"sort"`
}

func (ProductAttribute) TableName() string {
	return "product_attributes"
}
