package repository

import (
	"errors"

	"github.com/sketezo-next/internal/models"

	"gorm.io/gorm"
)

// ShipmentRecordRepository 物流记录数据访问接口
type ShipmentRecordRepository interface {
	Create(record *models.ShipmentRecord) error
	GetByID(id uint) (*models.ShipmentRecord, error)
	GetByOrderID(orderID uint) (*models.ShipmentRecord, error)
	GetByAWB(awbNumber string) (*models.ShipmentRecord, error)
	Update(record *models.ShipmentRecord) error
	UpdateFields(id uint, updates map[string]interface{}) error
	MarkShipmentCreated(id uint, updates map[string]interface{}) (int64, error)
	ListActive(limit int) ([]models.ShipmentRecord, error)
	WithTx(tx *gorm.DB) ShipmentRecordRepository
}

// GormShipmentRecordRepository GORM 实现
type GormShipmentRecordRepository struct {
	db *gorm.DB
}

// NewShipmentRecordRepository 创建物流记录仓库
func NewShipmentRecordRepository(db *gorm.DB) *GormShipmentRecordRepository {
	return &GormShipmentRecordRepository{db: db}
}

// WithTx 绑定事务
func (r *GormShipmentRecordRepository) WithTx(tx *gorm.DB) ShipmentRecordRepository {
	if tx == nil {
		return r
	}
	return &GormShipmentRecordRepository{db: tx}
}

// Create 创建物流记录
func (r *GormShipmentRecordRepository) Create(record *models.ShipmentRecord) error {
	if record == nil {
		return errors.New("shipment record is nil")
	}
	return r.db.Create(record).Error
}

// GetByID 根据 ID 获取物流记录
func (r *GormShipmentRecordRepository) GetByID(id uint) (*models.ShipmentRecord, error) {
	if id == 0 {
		return nil, errors.New("invalid shipment record id")
	}
	var record models.ShipmentRecord
	if err := r.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByOrderID 根据订单获取物流记录
func (r *GormShipmentRecordRepository) GetByOrderID(orderID uint) (*models.ShipmentRecord, error) {
	if orderID == 0 {
		return nil, errors.New("invalid order id")
	}
	var record models.ShipmentRecord
	if err := r.db.Where("order_id = ?", orderID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByAWB 根据运单号获取物流记录
func (r *GormShipmentRecordRepository) GetByAWB(awbNumber string) (*models.ShipmentRecord, error) {
	if awbNumber == "" {
		return nil, errors.New("invalid awb number")
	}
	var record models.ShipmentRecord
	if err := r.db.Where("awb_number = ?", awbNumber).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Update 更新物流记录
func (r *GormShipmentRecordRepository) Update(record *models.ShipmentRecord) error {
	if record == nil {
		return errors.New("shipment record is nil")
	}
	return r.db.Save(record).Error
}

// UpdateFields 更新物流记录字段
func (r *GormShipmentRecordRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if id == 0 {
		return errors.New("invalid shipment record id")
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.ShipmentRecord{}).Where("id = ?", id).Updates(updates).Error
}

// MarkShipmentCreated 标记网关运单已创建（幂等守卫，重复标记影响行数为 0）
func (r *GormShipmentRecordRepository) MarkShipmentCreated(id uint, updates map[string]interface{}) (int64, error) {
	if id == 0 {
		return 0, errors.New("invalid shipment record id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["shipment_created"] = true
	result := r.db.Model(&models.ShipmentRecord{}).
		Where("id = ? AND shipment_created = ?", id, false).
		Updates(updates)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListActive 获取仍在途的物流记录（轨迹同步用）
func (r *GormShipmentRecordRepository) ListActive(limit int) ([]models.ShipmentRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	var records []models.ShipmentRecord
	if err := r.db.
		Where("shipment_created = ? AND shipping_status NOT IN ?", true,
			[]string{"delivered", "rto_delivered", "cancelled", "failed"}).
		Order("id asc").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
