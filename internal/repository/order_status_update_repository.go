package repository

import (
	"errors"

	"github.com/sketezo-next/internal/models"

	"gorm.io/gorm"
)

// OrderStatusUpdateRepository 订单状态历史数据访问接口（只追加）
type OrderStatusUpdateRepository interface {
	Create(update *models.OrderStatusUpdate) error
	ListByOrder(orderID uint) ([]models.OrderStatusUpdate, error)
	WithTx(tx *gorm.DB) OrderStatusUpdateRepository
}

// GormOrderStatusUpdateRepository GORM 实现
type GormOrderStatusUpdateRepository struct {
	db *gorm.DB
}

// NewOrderStatusUpdateRepository 创建订单状态历史仓库
func NewOrderStatusUpdateRepository(db *gorm.DB) *GormOrderStatusUpdateRepository {
	return &GormOrderStatusUpdateRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderStatusUpdateRepository) WithTx(tx *gorm.DB) OrderStatusUpdateRepository {
	if tx == nil {
		return r
	}
	return &GormOrderStatusUpdateRepository{db: tx}
}

// Create 追加一条状态变更记录
func (r *GormOrderStatusUpdateRepository) Create(update *models.OrderStatusUpdate) error {
	if update == nil {
		return errors.New("status update is nil")
	}
	return r.db.Create(update).Error
}

// ListByOrder 按订单查询状态变更历史
func (r *GormOrderStatusUpdateRepository) ListByOrder(orderID uint) ([]models.OrderStatusUpdate, error) {
	if orderID == 0 {
		return nil, errors.New("invalid order id")
	}
	var items []models.OrderStatusUpdate
	if err := r.db.Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
