package model

// 用户状态常量
const (
	UserStatusDisabled = 0 // 停用
	UserStatusActive   = 1 // 正常
)

// SysUser 后台用户
type SysUser struct {
	BaseModel
	Username string `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Password string `gorm:"size:128;not null" json:"-"` // bcrypt 哈希
	Nickname string `gorm:"size:64" json:"nickname"`
	Role     string `gorm:"size:32;not null;default:'user'" json:"role"`
	Status   int    `gorm:"default:1" json:"status"`
}

func (SysUser) TableName() string {
	return "sys_users"
}
