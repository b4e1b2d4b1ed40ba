package models

import (
	"time"

	"gorm.io/gorm"
)

// ShipmentRecord 物流记录表（与订单一对一）
type ShipmentRecord struct {
	ID              uint           `gorm:"primarykey" json:"id"`                                // 主键
	OrderID         uint           `gorm:"uniqueIndex;not null" json:"order_id"`                // 订单ID
	TrackingNumber  string         `gorm:"index" json:"tracking_number"`                        // 跟踪号
	AWBNumber       string         `gorm:"index" json:"awb_number"`                             // 运单号
	CourierName     string         `gorm:"default:''" json:"courier_name"`                      // 承运商名称
	ShippingStatus  string         `gorm:"type:varchar(30);index" json:"shipping_status"`       // 物流状态
	LabelURL        string         `gorm:"default:''" json:"label_url"`                         // 面单地址
	IsCOD           bool           `gorm:"not null;default:false" json:"is_cod"`                // 是否货到付款
	ShipmentCreated bool           `gorm:"not null;default:false" json:"shipment_created"`      // 网关运单是否已创建（幂等标记）
	LastSyncedAt    *time.Time     `json:"last_synced_at,omitempty"`                            // 最近一次轨迹同步时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                             // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                      // 软删除时间
}

// TableName 指定表名
func (ShipmentRecord) TableName() string {
	return "shipment_records"
}
