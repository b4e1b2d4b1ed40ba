package models

import "time"

// StockMovement 库存流水表（只追加，不修改）
type StockMovement struct {
	ID           uint      `gorm:"primarykey" json:"id"`                          // 主键
	VariantID    uint      `gorm:"index;not null" json:"variant_id"`              // 规格ID
	MovementType string    `gorm:"type:varchar(20);not null" json:"movement_type"` // 流水类型（in/out/reserved/released）
	Reason       string    `gorm:"type:varchar(30);not null" json:"reason"`       // 业务原因（sale/cancellation/reservation/restock）
	Quantity     int       `gorm:"not null" json:"quantity"`                      // 数量（带符号）
	ReferenceID  string    `gorm:"index" json:"reference_id"`                     // 关联单据号（通常为订单编号）
	CreatedBy    string    `gorm:"default:''" json:"created_by"`                  // 操作来源
	CreatedAt    time.Time `gorm:"index" json:"created_at"`                       // 创建时间
}

// TableName 指定表名
func (StockMovement) TableName() string {
	return "stock_movements"
}
