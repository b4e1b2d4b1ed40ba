package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID          uint           `gorm:"primarykey" json:"id"`                   // 主键
	Name        string         `gorm:"not null" json:"name"`                   // 商品名称
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`       // 唯一标识（URL 用）
	Description string         `gorm:"type:text" json:"description"`           // 商品描述
	Category    string         `gorm:"index" json:"category"`                  // 分类
	ImageURL    string         `gorm:"default:''" json:"image_url"`            // 主图
	IsActive    bool           `gorm:"default:true;index" json:"is_active"`    // 是否上架
	SortOrder   int            `gorm:"default:0;index" json:"sort_order"`      // 排序权重
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`                // 创建时间
	UpdatedAt   time.Time      `json:"updated_at"`                             // 更新时间
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`                         // 软删除时间

	// 关联
	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"` // 规格列表
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
