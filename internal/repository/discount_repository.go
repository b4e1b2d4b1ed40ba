package repository

import (
	"errors"

	"github.com/sketezo-next/internal/models"

	"gorm.io/gorm"
)

// DiscountListFilter 优惠码列表筛选
type DiscountListFilter struct {
	Code     string
	IsActive *bool
	Page     int
	PageSize int
}

// DiscountRepository 优惠码数据访问接口
type DiscountRepository interface {
	GetByID(id uint) (*models.Discount, error)
	GetByCode(code string) (*models.Discount, error)
	Create(discount *models.Discount) error
	Update(discount *models.Discount) error
	Delete(id uint) error
	List(filter DiscountListFilter) ([]models.Discount, int64, error)
	HasUserRestriction(discountID uint) (bool, error)
	IsUserAllowed(discountID, userID uint) (bool, error)
	IncrementUsedCount(id uint, delta int) (int64, error)
	DecrementUsedCount(id uint, delta int) error
	WithTx(tx *gorm.DB) DiscountRepository
}

// GormDiscountRepository GORM 实现
type GormDiscountRepository struct {
	db *gorm.DB
}

// NewDiscountRepository 创建优惠码仓库
func NewDiscountRepository(db *gorm.DB) *GormDiscountRepository {
	return &GormDiscountRepository{db: db}
}

// WithTx 绑定事务
func (r *GormDiscountRepository) WithTx(tx *gorm.DB) DiscountRepository {
	if tx == nil {
		return r
	}
	return &GormDiscountRepository{db: tx}
}

// GetByID 根据ID获取优惠码
func (r *GormDiscountRepository) GetByID(id uint) (*models.Discount, error) {
	var discount models.Discount
	if err := r.db.First(&discount, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &discount, nil
}

// GetByCode 根据优惠码获取记录
func (r *GormDiscountRepository) GetByCode(code string) (*models.Discount, error) {
	var discount models.Discount
	if err := r.db.Where("code = ?", code).First(&discount).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &discount, nil
}

// Create 创建优惠码
func (r *GormDiscountRepository) Create(discount *models.Discount) error {
	return r.db.Create(discount).Error
}

// Update 更新优惠码
func (r *GormDiscountRepository) Update(discount *models.Discount) error {
	return r.db.Save(discount).Error
}

// Delete 删除优惠码
func (r *GormDiscountRepository) Delete(id uint) error {
	return r.db.Delete(&models.Discount{}, id).Error
}

// List 获取优惠码列表
func (r *GormDiscountRepository) List(filter DiscountListFilter) ([]models.Discount, int64, error) {
	var discounts []models.Discount
	query := r.db.Model(&models.Discount{})

	if filter.Code != "" {
		query = query.Where("code = ?", filter.Code)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	if err := query.Order("id desc").Find(&discounts).Error; err != nil {
		return nil, 0, err
	}
	return discounts, total, nil
}

// HasUserRestriction 优惠码是否配置了用户白名单
func (r *GormDiscountRepository) HasUserRestriction(discountID uint) (bool, error) {
	if discountID == 0 {
		return false, errors.New("invalid discount id")
	}
	var count int64
	if err := r.db.Model(&models.DiscountUser{}).
		Where("discount_id = ?", discountID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsUserAllowed 用户是否在优惠码白名单内
func (r *GormDiscountRepository) IsUserAllowed(discountID, userID uint) (bool, error) {
	if discountID == 0 || userID == 0 {
		return false, errors.New("invalid discount user params")
	}
	var count int64
	if err := r.db.Model(&models.DiscountUser{}).
		Where("discount_id = ? AND user_id = ?", discountID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// IncrementUsedCount 增加使用次数（带使用上限守卫，0 表示不限次数）
func (r *GormDiscountRepository) IncrementUsedCount(id uint, delta int) (int64, error) {
	if delta <= 0 {
		delta = 1
	}
	result := r.db.Model(&models.Discount{}).
		Where("id = ? AND (usage_limit = 0 OR used_count + ? <= usage_limit)", id, delta).
		UpdateColumn("used_count", gorm.Expr("used_count + ?", delta))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DecrementUsedCount 减少使用次数（不会减到负数）
func (r *GormDiscountRepository) DecrementUsedCount(id uint, delta int) error {
	if delta == 0 {
		delta = 1
	}
	if delta < 0 {
		delta = -delta
	}
	return r.db.Model(&models.Discount{}).
		Where("id = ?", id).
		UpdateColumn("used_count", gorm.Expr("CASE WHEN used_count >= ? THEN used_count - ? ELSE 0 END", delta, delta)).Error
}
