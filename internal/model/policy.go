package model

// 策略行类型
const (
	PolicyTypeGrant      = "p" // 授权三元组: V0=角色 V1=资源 V2=动作
	PolicyTypeAssignment = "g" // 角色分配: V0=主体(或角色) V1=角色
)

// PolicyRule 权限引擎的持久化行
// 引擎启动时 LoadPolicy 全量加载，SavePolicy 全量回写，
// 内存态与库内状态在显式同步之前允许不一致
type PolicyRule struct {
	ID    int64  `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	PType string `gorm:"size:8;not null;index" json:"ptype"`
	V0    string `gorm:"size:128;not null;index" json:"v0"`
	V1    string `gorm:"size:128;not null" json:"v1"`
	V2    string `gorm:"size:64" json:"v2"`
}

func (PolicyRule) TableName() string {
	return "policy_rules"
}
