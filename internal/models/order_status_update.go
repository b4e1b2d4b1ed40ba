package models

import "time"

// OrderStatusUpdate 订单状态变更历史表（只追加，订单状态唯一写入口）
type OrderStatusUpdate struct {
	ID        uint      `gorm:"primarykey" json:"id"`                        // 主键
	OrderID   uint      `gorm:"index;not null" json:"order_id"`              // 订单ID
	OldStatus string    `gorm:"type:varchar(20);not null" json:"old_status"` // 变更前状态
	NewStatus string    `gorm:"type:varchar(20);not null" json:"new_status"` // 变更后状态
	Notes     string    `gorm:"type:text" json:"notes"`                      // 备注
	UpdatedBy string    `gorm:"default:''" json:"updated_by"`                // 操作来源
	CreatedAt time.Time `gorm:"index" json:"created_at"`                     // 创建时间
}

// TableName 指定表名
func (OrderStatusUpdate) TableName() string {
	return "order_status_updates"
}
