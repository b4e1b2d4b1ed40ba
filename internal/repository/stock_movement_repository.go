package repository

import (
	"errors"

	"github.com/sketezo-next/internal/models"

	"gorm.io/gorm"
)

// StockMovementListFilter 库存流水筛选
type StockMovementListFilter struct {
	VariantID    uint
	MovementType string
	Reason       string
	ReferenceID  string
	Page         int
	PageSize     int
}

// StockMovementRepository 库存流水数据访问接口（只追加）
type StockMovementRepository interface {
	Create(movement *models.StockMovement) error
	ListByVariant(variantID uint, page, pageSize int) ([]models.StockMovement, int64, error)
	ListByReference(referenceID string) ([]models.StockMovement, error)
	List(filter StockMovementListFilter) ([]models.StockMovement, int64, error)
	WithTx(tx *gorm.DB) StockMovementRepository
}

// GormStockMovementRepository GORM 实现
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewStockMovementRepository 创建库存流水仓库
func NewStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// WithTx 绑定事务
func (r *GormStockMovementRepository) WithTx(tx *gorm.DB) StockMovementRepository {
	if tx == nil {
		return r
	}
	return &GormStockMovementRepository{db: tx}
}

// Create 追加一条库存流水
func (r *GormStockMovementRepository) Create(movement *models.StockMovement) error {
	if movement == nil {
		return errors.New("movement is nil")
	}
	return r.db.Create(movement).Error
}

// ListByVariant 按规格查询库存流水
func (r *GormStockMovementRepository) ListByVariant(variantID uint, page, pageSize int) ([]models.StockMovement, int64, error) {
	return r.List(StockMovementListFilter{VariantID: variantID, Page: page, PageSize: pageSize})
}

// ListByReference 按单据号查询库存流水
func (r *GormStockMovementRepository) ListByReference(referenceID string) ([]models.StockMovement, error) {
	if referenceID == "" {
		return []models.StockMovement{}, nil
	}
	var items []models.StockMovement
	if err := r.db.Where("reference_id = ?", referenceID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// List 按条件查询库存流水
func (r *GormStockMovementRepository) List(filter StockMovementListFilter) ([]models.StockMovement, int64, error) {
	query := r.db.Model(&models.StockMovement{})

	if filter.VariantID > 0 {
		query = query.Where("variant_id = ?", filter.VariantID)
	}
	if filter.MovementType != "" {
		query = query.Where("movement_type = ?", filter.MovementType)
	}
	if filter.Reason != "" {
		query = query.Where("reason = ?", filter.Reason)
	}
	if filter.ReferenceID != "" {
		query = query.Where("reference_id = ?", filter.ReferenceID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var items []models.StockMovement
	if err := query.Order("id desc").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
