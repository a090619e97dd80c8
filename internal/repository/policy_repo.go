package repository

import (
	"context"

	"gorm.io/gorm"

	"mall_dev_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// PolicyRepository 策略存储，供权限引擎全量加载/回写
type PolicyRepository interface {
	LoadAll(ctx context.Context) ([]model.PolicyRule, error)
	// SaveAll 事务内全量替换：先清空再写入当前内存快照
	SaveAll(ctx context.Context, rules []model.PolicyRule) error
}

// ==================== 仓储实现 ====================

type policyRepo struct {
	db *gorm.DB
}

// NewPolicyRepository 创建策略仓储
func NewPolicyRepository(db *gorm.DB) PolicyRepository {
	return &policyRepo{db: db}
}

func (r *policyRepo) LoadAll(ctx context.Context) ([]model.PolicyRule, error) {
	var rules []model.PolicyRule
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&rules).Error
	return rules, err
}

func (r *policyRepo) SaveAll(ctx context.Context, rules []model.PolicyRule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.PolicyRule{}).Error; err != nil {
			return err
		}
		if len(rules) == 0 {
			return nil
		}
		// 重插时丢弃旧主键
		for i := range rules {
			rules[i].ID = 0
		}
		return tx.Create(&rules).Error
	})
}
