package service

import (
	"strings"

	"github.com/sketezo-next/internal/models"
	"github.com/sketezo-next/internal/repository"
)

// ProductService 商品目录服务
type ProductService struct {
	productRepo repository.ProductRepository
	variantRepo repository.ProductVariantRepository
}

// NewProductService 创建商品服务
func NewProductService(productRepo repository.ProductRepository, variantRepo repository.ProductVariantRepository) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		variantRepo: variantRepo,
	}
}

// ListProducts 商品列表（仅上架商品）
func (s *ProductService) ListProducts(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	filter.OnlyActive = true
	filter.WithVariants = true
	return s.productRepo.List(filter)
}

// GetProductBySlug 商品详情
func (s *ProductService) GetProductBySlug(slug string) (*models.Product, error) {
	product, err := s.productRepo.GetBySlug(strings.TrimSpace(slug), true)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// GetVariant 规格详情（含可售库存）
func (s *ProductService) GetVariant(variantID uint) (*models.ProductVariant, error) {
	variant, err := s.variantRepo.GetByID(variantID)
	if err != nil {
		return nil, err
	}
	if variant == nil || !variant.IsActive {
		return nil, ErrVariantNotFound
	}
	return variant, nil
}
