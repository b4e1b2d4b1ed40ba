package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                          // 主键
	OrderNo        string         `gorm:"uniqueIndex;not null" json:"order_no"`                          // 订单编号
	UserID         uint           `gorm:"index;not null" json:"user_id"`                                 // 用户ID
	Status         string         `gorm:"index;not null" json:"status"`                                  // 订单状态
	PaymentStatus  string         `gorm:"index;not null" json:"payment_status"`                          // 支付状态
	PaymentMethod  string         `gorm:"type:varchar(20);not null" json:"payment_method"`               // 支付方式（cod/online）
	Currency       string         `gorm:"not null" json:"currency"`                                      // 币种
	Subtotal       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`         // 商品小计
	DiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`  // 优惠金额
	ShippingCost   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_cost"`    // 运费
	TaxAmount      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`       // 税费
	TotalAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`     // 应付总额
	DiscountID     *uint          `gorm:"index" json:"discount_id,omitempty"`                            // 优惠码ID
	DiscountCode   string         `gorm:"default:''" json:"discount_code,omitempty"`                     // 优惠码快照
	AddressID      uint           `gorm:"index;not null" json:"address_id"`                              // 收货地址ID
	PaymentOrderID string         `gorm:"index" json:"payment_order_id,omitempty"`                       // 网关支付单号
	PaymentID      string         `gorm:"index" json:"payment_id,omitempty"`                             // 网关支付流水号
	TrackingID     string         `gorm:"index" json:"tracking_id,omitempty"`                            // 物流跟踪号
	CourierPartner string         `gorm:"default:''" json:"courier_partner,omitempty"`                   // 承运商
	Notes          string         `gorm:"type:text" json:"notes,omitempty"`                              // 订单备注
	ClientIP       string         `gorm:"type:varchar(64)" json:"client_ip,omitempty"`                   // 下单客户端IP
	ExpiresAt      *time.Time     `gorm:"index" json:"expires_at,omitempty"`                             // 在线支付超时时间
	ConfirmedAt    *time.Time     `json:"confirmed_at,omitempty"`                                        // 确认时间
	ShippedAt      *time.Time     `json:"shipped_at,omitempty"`                                          // 发货时间
	DeliveredAt    *time.Time     `json:"delivered_at,omitempty"`                                        // 签收时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间

	// 关联
	Items         []OrderItem         `gorm:"foreignKey:OrderID" json:"items,omitempty"`          // 订单项
	StatusUpdates []OrderStatusUpdate `gorm:"foreignKey:OrderID" json:"status_updates,omitempty"` // 状态变更历史
	Shipment      *ShipmentRecord     `gorm:"foreignKey:OrderID" json:"shipment,omitempty"`       // 物流记录
	Address       *Address            `gorm:"foreignKey:AddressID" json:"address,omitempty"`      // 收货地址
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// IsCOD 是否货到付款订单
func (o *Order) IsCOD() bool {
	return o.PaymentMethod == "cod"
}

// CanBeCancelled 当前状态是否允许取消
func (o *Order) CanBeCancelled() bool {
	return o.Status == "pending" || o.Status == "confirmed"
}
