package model

// Category 商品分类，支持两级结构
type Category struct {
	BaseModel
	ParentID int64  `gorm:"index;default:0" json:"parent_id"`
	Name     string `gorm:"size:64;not null;index" json:"name"`
	Level    int    `gorm:"default:1" json:"level"`
	Sort     int    `gorm:"default:0" json:"sort"`
	Status   int    `gorm:"default:1" json:"status"` // 0-停用 1-启用
}

func (Category) TableName() string {
	return "categories"
}

// Brand 品牌
type Brand struct {
	BaseModel
	Name    string `gorm:"size:64;not null;uniqueIndex" json:"name"`
	LogoUrl string `gorm:"size:512" json:"logo_url"`
	Status  int    `gorm:"default:1" json:"status"`
}

func (Brand) TableName() string {
	return "brands"
}

// Merchant 商家（商品归属方）
type Merchant struct {
	BaseModel
	Name    string `gorm:"size:128;not null" json:"name"`
	Contact string `gorm:"size:64" json:"contact"`
	Status  int    `gorm:"default:1" json:"status"`
}

func (Merchant) TableName() string {
	return "merchants"
}
