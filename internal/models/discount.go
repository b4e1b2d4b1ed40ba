package models

import (
	"time"

	"gorm.io/gorm"
)

// Discount 优惠码表
type Discount struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                          // 主键
	Code          string         `gorm:"uniqueIndex;not null" json:"code"`                              // 优惠码（唯一）
	Description   string         `gorm:"default:''" json:"description"`                                 // 描述
	DiscountType  string         `gorm:"type:varchar(20);not null" json:"discount_type"`                // 类型（percentage/fixed）
	Value         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"value"`            // 折扣值（百分比或固定金额）
	MaxDiscount   *Money         `gorm:"type:decimal(20,2)" json:"max_discount,omitempty"`              // 百分比折扣上限（为空不设上限）
	MinOrderValue Money          `gorm:"type:decimal(20,2);not null;default:0" json:"min_order_value"`  // 最低订单金额
	StartDate     time.Time      `gorm:"index;not null" json:"start_date"`                              // 生效时间
	EndDate       time.Time      `gorm:"index;not null" json:"end_date"`                                // 失效时间
	UsageLimit    int            `gorm:"not null;default:0" json:"usage_limit"`                         // 使用次数上限（0 表示不限）
	UsedCount     int            `gorm:"not null;default:0" json:"used_count"`                          // 已使用次数
	IsActive      bool           `gorm:"default:true;index" json:"is_active"`                           // 是否启用
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                                                    // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间

	// 关联
	ApplicableUsers []DiscountUser `gorm:"foreignKey:DiscountID" json:"applicable_users,omitempty"` // 指定可用用户（为空表示全员可用）
}

// TableName 指定表名
func (Discount) TableName() string {
	return "discounts"
}

// DiscountUser 优惠码用户白名单表
type DiscountUser struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                          // 主键
	DiscountID uint      `gorm:"index:idx_discount_user,unique;not null" json:"discount_id"`    // 优惠码ID
	UserID     uint      `gorm:"index:idx_discount_user,unique;not null" json:"user_id"`        // 用户ID
	CreatedAt  time.Time `json:"created_at"`                                                    // 创建时间
}

// TableName 指定表名
func (DiscountUser) TableName() string {
	return "discount_users"
}
