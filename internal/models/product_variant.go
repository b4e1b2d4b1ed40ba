package models

import (
	"time"

	"gorm.io/gorm"
)

// ProductVariant 商品规格表（库存以规格为粒度管理）
type ProductVariant struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                      // 主键
	ProductID         uint           `gorm:"index;not null" json:"product_id"`                          // 商品ID
	SKUCode           string         `gorm:"uniqueIndex;not null" json:"sku_code"`                      // SKU 编码
	Color             string         `gorm:"default:''" json:"color"`                                   // 颜色
	Size              string         `gorm:"default:''" json:"size"`                                    // 尺码
	Price             Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`       // 标价
	DiscountedPrice   *Money         `gorm:"type:decimal(20,2)" json:"discounted_price,omitempty"`     // 折后价（为空表示无折扣）
	Stock             int            `gorm:"not null;default:0" json:"stock"`                           // 实物库存总量
	ReservedStock     int            `gorm:"not null;default:0" json:"reserved_stock"`                  // 已预占库存（待支付订单）
	LowStockThreshold int            `gorm:"not null;default:5" json:"low_stock_threshold"`             // 低库存告警阈值
	WeightGrams       int            `gorm:"not null;default:500" json:"weight_grams"`                  // 单件重量（克），物流计费用
	IsActive          bool           `gorm:"default:true;index" json:"is_active"`                       // 是否可售
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt         time.Time      `json:"updated_at"`                                                // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间
}

// TableName 指定表名
func (ProductVariant) TableName() string {
	return "product_variants"
}

// EffectivePrice 返回实际售价（折后价存在且低于标价时生效）
func (v *ProductVariant) EffectivePrice() Money {
	if v.DiscountedPrice != nil && v.DiscountedPrice.LessThan(v.Price.Decimal) {
		return *v.DiscountedPrice
	}
	return v.Price
}

// AvailableStock 返回可售库存（总量减去预占量）
func (v *ProductVariant) AvailableStock() int {
	available := v.Stock - v.ReservedStock
	if available < 0 {
		return 0
	}
	return available
}

// IsLowStock 可售库存是否低于告警阈值
func (v *ProductVariant) IsLowStock() bool {
	return v.AvailableStock() <= v.LowStockThreshold
}
