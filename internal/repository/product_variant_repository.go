package repository

import (
	"errors"
	"strings"

	"github.com/sketezo-next/internal/models"

	"gorm.io/gorm"
)

// ProductVariantRepository 商品规格数据访问接口
type ProductVariantRepository interface {
	ListByProduct(productID uint, onlyActive bool) ([]models.ProductVariant, error)
	GetByID(id uint) (*models.ProductVariant, error)
	GetBySKUCode(skuCode string) (*models.ProductVariant, error)
	ListByIDs(ids []uint) ([]models.ProductVariant, error)
	Create(item *models.ProductVariant) error
	CreateBatch(items []models.ProductVariant) error
	Update(item *models.ProductVariant) error
	Reserve(variantID uint, quantity int) (int64, error)
	Release(variantID uint, quantity int) (int64, error)
	CommitSale(variantID uint, quantity int) (int64, error)
	Restock(variantID uint, quantity int) (int64, error)
	WithTx(tx *gorm.DB) ProductVariantRepository
}

// GormProductVariantRepository GORM 实现
type GormProductVariantRepository struct {
	db *gorm.DB
}

// NewProductVariantRepository 创建规格仓库
func NewProductVariantRepository(db *gorm.DB) *GormProductVariantRepository {
	return &GormProductVariantRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductVariantRepository) WithTx(tx *gorm.DB) ProductVariantRepository {
	if tx == nil {
		return r
	}
	return &GormProductVariantRepository{db: tx}
}

// ListByProduct 根据商品获取规格列表
func (r *GormProductVariantRepository) ListByProduct(productID uint, onlyActive bool) ([]models.ProductVariant, error) {
	if productID == 0 {
		return nil, errors.New("invalid product id")
	}
	query := r.db.Model(&models.ProductVariant{}).Where("product_id = ?", productID)
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	var items []models.ProductVariant
	if err := query.Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByID 根据 ID 获取规格
func (r *GormProductVariantRepository) GetByID(id uint) (*models.ProductVariant, error) {
	if id == 0 {
		return nil, errors.New("invalid variant id")
	}
	var item models.ProductVariant
	if err := r.db.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// GetBySKUCode 根据 SKU 编码获取规格
func (r *GormProductVariantRepository) GetBySKUCode(skuCode string) (*models.ProductVariant, error) {
	code := strings.TrimSpace(skuCode)
	if code == "" {
		return nil, errors.New("invalid sku code")
	}
	var item models.ProductVariant
	if err := r.db.Where("sku_code = ?", code).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListByIDs 批量获取规格
func (r *GormProductVariantRepository) ListByIDs(ids []uint) ([]models.ProductVariant, error) {
	if len(ids) == 0 {
		return []models.ProductVariant{}, nil
	}
	var items []models.ProductVariant
	if err := r.db.Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Create 创建规格
func (r *GormProductVariantRepository) Create(item *models.ProductVariant) error {
	if item == nil {
		return errors.New("variant is nil")
	}
	return r.db.Create(item).Error
}

// CreateBatch 批量创建规格
func (r *GormProductVariantRepository) CreateBatch(items []models.ProductVariant) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.Create(&items).Error
}

// Update 更新规格
func (r *GormProductVariantRepository) Update(item *models.ProductVariant) error {
	if item == nil {
		return errors.New("variant is nil")
	}
	return r.db.Save(item).Error
}

// Reserve 预占库存（可售量不足时条件不命中，返回影响行数 0）
func (r *GormProductVariantRepository) Reserve(variantID uint, quantity int) (int64, error) {
	if variantID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock reserve params")
	}
	result := r.db.Model(&models.ProductVariant{}).
		Where("id = ? AND stock - reserved_stock >= ?", variantID, quantity).
		UpdateColumn("reserved_stock", gorm.Expr("reserved_stock + ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Release 释放预占库存（预占量不足时扣到 0 为止）
func (r *GormProductVariantRepository) Release(variantID uint, quantity int) (int64, error) {
	if variantID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock release params")
	}
	result := r.db.Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		UpdateColumn("reserved_stock", gorm.Expr("CASE WHEN reserved_stock >= ? THEN reserved_stock - ? ELSE 0 END", quantity, quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CommitSale 确认销售（预占转出库，总量与预占量同时扣减）
func (r *GormProductVariantRepository) CommitSale(variantID uint, quantity int) (int64, error) {
	if variantID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock commit params")
	}
	result := r.db.Model(&models.ProductVariant{}).
		Where("id = ? AND stock >= ? AND reserved_stock >= ?", variantID, quantity, quantity).
		Updates(map[string]interface{}{
			"stock":          gorm.Expr("stock - ?", quantity),
			"reserved_stock": gorm.Expr("reserved_stock - ?", quantity),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Restock 入库补货
func (r *GormProductVariantRepository) Restock(variantID uint, quantity int) (int64, error) {
	if variantID == 0 || quantity <= 0 {
		return 0, errors.New("invalid restock params")
	}
	result := r.db.Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
