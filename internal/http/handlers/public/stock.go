package public

import (
	"errors"
	"fmt"

	"github.com/sketezo-next/internal/http/response"
	"github.com/sketezo-next/internal/service"

	"github.com/gin-gonic/gin"
)

// StockCheckRequest 库存校验请求
type StockCheckRequest struct {
	Items []OrderItemRequest `json:"items" binding:"required"`
}

// StockCheckResult 单个规格的库存校验结果
type StockCheckResult struct {
	VariantID uint   `json:"variant_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
	InStock   bool   `json:"in_stock"`
	Message   string `json:"message,omitempty"`
}

// CheckStock 下单前库存校验（只读，不占库存）
func (h *Handler) CheckStock(c *gin.Context) {
	if _, ok := getUserID(c); !ok {
		return
	}

	var req StockCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Items) == 0 {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	results := make([]StockCheckResult, 0, len(req.Items))
	allInStock := true
	for _, item := range req.Items {
		result := StockCheckResult{VariantID: item.VariantID, Requested: item.Quantity}

		variant, err := h.ProductService.GetVariant(item.VariantID)
		if err != nil {
			if errors.Is(err, service.ErrVariantNotFound) {
				result.Message = "variant not found"
				allInStock = false
				results = append(results, result)
				continue
			}
			respondError(c, response.CodeInternal, "stock check failed", err)
			return
		}

		result.Available = variant.AvailableStock()
		result.InStock = item.Quantity > 0 && item.Quantity <= result.Available
		if !result.InStock {
			allInStock = false
			result.Message = fmt.Sprintf("only %d available", result.Available)
		}
		results = append(results, result)
	}

	response.Success(c, gin.H{
		"in_stock": allInStock,
		"items":    results,
	})
}
