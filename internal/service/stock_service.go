package service

import (
	"fmt"

	"github.com/sketezo-next/internal/constants"
	"github.com/sketezo-next/internal/models"
	"github.com/sketezo-next/internal/repository"

	"gorm.io/gorm"
)

// StockLedgerService 库存台账服务。
// 所有库存变更必须经由本服务完成：计数器更新与流水追加在同一事务内生效。
type StockLedgerService struct {
	variantRepo  repository.ProductVariantRepository
	movementRepo repository.StockMovementRepository
}

// NewStockLedgerService 创建库存台账服务
func NewStockLedgerService(variantRepo repository.ProductVariantRepository, movementRepo repository.StockMovementRepository) *StockLedgerService {
	return &StockLedgerService{
		variantRepo:  variantRepo,
		movementRepo: movementRepo,
	}
}

// Reserve 预占库存。可售量不足时返回 ErrOutOfStock / ErrInsufficientStock。
func (s *StockLedgerService) Reserve(tx *gorm.DB, variantID uint, quantity int, referenceID, actor string) error {
	if variantID == 0 || quantity <= 0 {
		return ErrInvalidOrderItem
	}
	variantRepo := s.variantRepo.WithTx(tx)

	rows, err := variantRepo.Reserve(variantID, quantity)
	if err != nil {
		return err
	}
	if rows == 0 {
		variant, err := variantRepo.GetByID(variantID)
		if err != nil {
			return err
		}
		if variant == nil {
			return ErrVariantNotFound
		}
		if variant.AvailableStock() == 0 {
			return ErrOutOfStock
		}
		return fmt.Errorf("%w: only %d available", ErrInsufficientStock, variant.AvailableStock())
	}

	return s.movementRepo.WithTx(tx).Create(&models.StockMovement{
		VariantID:    variantID,
		MovementType: constants.MovementTypeReserved,
		Reason:       constants.MovementReasonReservation,
		Quantity:     -quantity,
		ReferenceID:  referenceID,
		CreatedBy:    actor,
	})
}

// Release 释放预占库存（预占量不足时扣到 0 为止，不报错）
func (s *StockLedgerService) Release(tx *gorm.DB, variantID uint, quantity int, referenceID, actor string) error {
	if variantID == 0 || quantity <= 0 {
		return ErrInvalidOrderItem
	}
	if _, err := s.variantRepo.WithTx(tx).Release(variantID, quantity); err != nil {
		return err
	}
	return s.movementRepo.WithTx(tx).Create(&models.StockMovement{
		VariantID:    variantID,
		MovementType: constants.MovementTypeReleased,
		Reason:       constants.MovementReasonCancel,
		Quantity:     quantity,
		ReferenceID:  referenceID,
		CreatedBy:    actor,
	})
}

// CommitSale 确认销售：预占转出库，总量与预占量同时扣减
func (s *StockLedgerService) CommitSale(tx *gorm.DB, variantID uint, quantity int, referenceID, actor string) error {
	if variantID == 0 || quantity <= 0 {
		return ErrInvalidOrderItem
	}
	rows, err := s.variantRepo.WithTx(tx).CommitSale(variantID, quantity)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrStockCommitFailed
	}
	return s.movementRepo.WithTx(tx).Create(&models.StockMovement{
		VariantID:    variantID,
		MovementType: constants.MovementTypeOut,
		Reason:       constants.MovementReasonSale,
		Quantity:     -quantity,
		ReferenceID:  referenceID,
		CreatedBy:    actor,
	})
}

// Restock 入库补货
func (s *StockLedgerService) Restock(tx *gorm.DB, variantID uint, quantity int, referenceID, actor string) error {
	if variantID == 0 || quantity <= 0 {
		return ErrInvalidOrderItem
	}
	rows, err := s.variantRepo.WithTx(tx).Restock(variantID, quantity)
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrVariantNotFound
	}
	return s.movementRepo.WithTx(tx).Create(&models.StockMovement{
		VariantID:    variantID,
		MovementType: constants.MovementTypeIn,
		Reason:       constants.MovementReasonRestock,
		Quantity:     quantity,
		ReferenceID:  referenceID,
		CreatedBy:    actor,
	})
}

// Movements 查询规格库存流水
func (s *StockLedgerService) Movements(variantID uint, page, pageSize int) ([]models.StockMovement, int64, error) {
	if variantID == 0 {
		return nil, 0, ErrVariantNotFound
	}
	return s.movementRepo.ListByVariant(variantID, page, pageSize)
}
