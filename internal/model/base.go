package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 带软删除的公共字段
// DeletedAt 非空即视为已删除，默认查询自动排除；
// 需要包含已删数据的读路径必须显式走 Unscoped
type BaseModel struct {
	ID        int64          `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ChildModel 聚合子表公共字段
// 子表整体替换时物理删除重插，不走软删除，避免唯一索引残留
type ChildModel struct {
	ID        int64     `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
