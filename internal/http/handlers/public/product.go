package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/sketezo-next/internal/http/response"
	"github.com/sketezo-next/internal/repository"
	"github.com/sketezo-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListProducts 商品列表（仅上架商品，含规格与可售库存）
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	products, total, err := h.ProductService.ListProducts(repository.ProductListFilter{
		Page:     page,
		PageSize: pageSize,
		Category: strings.TrimSpace(c.Query("category")),
		Search:   strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, products, pagination)
}

// GetProduct 商品详情
func (h *Handler) GetProduct(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		respondError(c, response.CodeBadRequest, "invalid product slug", nil)
		return
	}

	product, err := h.ProductService.GetProductBySlug(slug)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "product fetch failed", err)
		return
	}

	response.Success(c, product)
}

// GetVariant 规格详情（含可售库存）
func (h *Handler) GetVariant(c *gin.Context) {
	variantID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || variantID == 0 {
		respondError(c, response.CodeBadRequest, "invalid variant id", nil)
		return
	}

	variant, err := h.ProductService.GetVariant(uint(variantID))
	if err != nil {
		if errors.Is(err, service.ErrVariantNotFound) {
			respondError(c, response.CodeNotFound, "variant not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "variant fetch failed", err)
		return
	}

	response.Success(c, gin.H{
		"variant":         variant,
		"available_stock": variant.AvailableStock(),
		"is_low_stock":    variant.IsLowStock(),
	})
}
