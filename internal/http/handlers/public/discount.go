package public

import (
	"strings"

	"github.com/sketezo-next/internal/http/response"
	"github.com/sketezo-next/internal/models"

	"github.com/gin-gonic/gin"
)

// ApplyDiscountRequest 优惠码试算请求
type ApplyDiscountRequest struct {
	Code     string       `json:"code" binding:"required"`
	Subtotal models.Money `json:"subtotal" binding:"required"`
}

// ApplyDiscount 校验优惠码并返回可抵扣金额（不消耗使用次数）
func (h *Handler) ApplyDiscount(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req ApplyDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	amount, discount, err := h.DiscountService.Apply(req.Subtotal, strings.TrimSpace(req.Code), uid)
	if err != nil {
		respondWithMappedError(c, err, discountErrorRules, response.CodeInternal, "discount apply failed")
		return
	}

	response.Success(c, gin.H{
		"code":            discount.Code,
		"discount_type":   discount.DiscountType,
		"discount_amount": amount,
	})
}
