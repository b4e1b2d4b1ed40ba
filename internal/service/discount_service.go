package service

import (
	"strings"
	"time"

	"github.com/sketezo-next/internal/constants"
	"github.com/sketezo-next/internal/models"
	"github.com/sketezo-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DiscountService 优惠码服务
type DiscountService struct {
	discountRepo repository.DiscountRepository
}

// NewDiscountService 创建优惠码服务
func NewDiscountService(discountRepo repository.DiscountRepository) *DiscountService {
	return &DiscountService{discountRepo: discountRepo}
}

// Apply 校验优惠码并计算折扣金额。
// 校验顺序：启用状态 → 有效期 → 使用次数 → 最低订单金额 → 用户白名单。
func (s *DiscountService) Apply(subtotal models.Money, code string, userID uint) (models.Money, *models.Discount, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return models.Money{}, nil, ErrDiscountInvalid
	}

	discount, err := s.discountRepo.GetByCode(trimmed)
	if err != nil {
		return models.Money{}, nil, err
	}
	if discount == nil {
		return models.Money{}, nil, ErrDiscountNotFound
	}

	if err := s.validate(discount, subtotal, userID, time.Now()); err != nil {
		return models.Money{}, discount, err
	}

	amount := s.calculateDiscount(discount, subtotal)
	return amount, discount, nil
}

func (s *DiscountService) validate(discount *models.Discount, subtotal models.Money, userID uint, now time.Time) error {
	if !discount.IsActive {
		return ErrDiscountInactive
	}
	if now.Before(discount.StartDate) {
		return ErrDiscountNotStarted
	}
	if now.After(discount.EndDate) {
		return ErrDiscountExpired
	}
	if discount.UsageLimit > 0 && discount.UsedCount >= discount.UsageLimit {
		return ErrDiscountUsageLimit
	}
	if subtotal.Decimal.Cmp(discount.MinOrderValue.Decimal) < 0 {
		return ErrDiscountMinOrder
	}

	restricted, err := s.discountRepo.HasUserRestriction(discount.ID)
	if err != nil {
		return err
	}
	if restricted {
		allowed, err := s.discountRepo.IsUserAllowed(discount.ID, userID)
		if err != nil {
			return err
		}
		if !allowed {
			return ErrDiscountNotEligible
		}
	}
	return nil
}

// calculateDiscount 计算折扣金额：百分比受 MaxDiscount 限制，最终不超过订单小计
func (s *DiscountService) calculateDiscount(discount *models.Discount, subtotal models.Money) models.Money {
	var amount decimal.Decimal
	switch strings.ToLower(strings.TrimSpace(discount.DiscountType)) {
	case constants.DiscountTypePercentage:
		percent := discount.Value.Decimal.Div(decimal.NewFromInt(100))
		amount = subtotal.Decimal.Mul(percent)
		if discount.MaxDiscount != nil && discount.MaxDiscount.Decimal.GreaterThan(decimal.Zero) &&
			amount.GreaterThan(discount.MaxDiscount.Decimal) {
			amount = discount.MaxDiscount.Decimal
		}
	case constants.DiscountTypeFixed:
		amount = discount.Value.Decimal
	default:
		return models.Money{}
	}

	if amount.GreaterThan(subtotal.Decimal) {
		amount = subtotal.Decimal
	}
	if amount.LessThan(decimal.Zero) {
		amount = decimal.Zero
	}
	return models.NewMoneyFromDecimal(amount)
}

// ConsumeUsage 在下单事务内占用一次使用额度（带上限守卫）
func (s *DiscountService) ConsumeUsage(tx *gorm.DB, discountID uint) error {
	rows, err := s.discountRepo.WithTx(tx).IncrementUsedCount(discountID, 1)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrDiscountUsageLimit
	}
	return nil
}

// RefundUsage 订单取消时回退一次使用额度（不减到负数）
func (s *DiscountService) RefundUsage(tx *gorm.DB, discountID uint) error {
	return s.discountRepo.WithTx(tx).DecrementUsedCount(discountID, 1)
}
