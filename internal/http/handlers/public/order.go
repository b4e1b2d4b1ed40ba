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

// OrderItemRequest 订单项请求
type OrderItemRequest struct {
	VariantID uint `json:"variant_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	Items         []OrderItemRequest `json:"items" binding:"required"`
	AddressID     uint               `json:"address_id" binding:"required"`
	PaymentMethod string             `json:"payment_method" binding:"required"`
	DiscountCode  string             `json:"discount_code"`
	Notes         string             `json:"notes"`
}

// QuoteOrderRequest 订单金额试算请求
type QuoteOrderRequest struct {
	Items        []OrderItemRequest `json:"items" binding:"required"`
	DiscountCode string             `json:"discount_code"`
}

func toServiceItems(items []OrderItemRequest) []service.CreateOrderItem {
	result := make([]service.CreateOrderItem, 0, len(items))
	for _, item := range items {
		result = append(result, service.CreateOrderItem{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}
	return result
}

// QuoteOrder 订单金额试算（不落库、不占库存）
func (h *Handler) QuoteOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req QuoteOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	quote, err := h.OrderService.Quote(uid, toServiceItems(req.Items), req.DiscountCode)
	if err != nil {
		respondOrderQuoteError(c, err)
		return
	}

	response.Success(c, quote)
}

// CreateOrder 创建订单
func (h *Handler) CreateOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	order, err := h.OrderService.CreateOrder(service.CreateOrderInput{
		UserID:        uid,
		AddressID:     req.AddressID,
		PaymentMethod: req.PaymentMethod,
		DiscountCode:  req.DiscountCode,
		Notes:         req.Notes,
		ClientIP:      c.ClientIP(),
		Items:         toServiceItems(req.Items),
	})
	if err != nil {
		respondOrderCreateError(c, err)
		return
	}

	response.Success(c, order)
}

// ListOrders 获取订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orders, total, err := h.OrderService.ListOrders(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   strings.TrimSpace(c.Query("status")),
		OrderNo:  strings.TrimSpace(c.Query("order_no")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, orders, pagination)
}

// GetOrder 获取订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	order, err := h.OrderService.GetOrderForUser(uid, uint(orderID))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}

	response.Success(c, order)
}

// GetOrderByOrderNo 按订单号获取订单详情
func (h *Handler) GetOrderByOrderNo(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderNo := strings.TrimSpace(c.Param("order_no"))
	if orderNo == "" {
		respondError(c, response.CodeBadRequest, "invalid order no", nil)
		return
	}

	order, err := h.OrderService.GetOrderByNoForUser(uid, orderNo)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}

	response.Success(c, order)
}

// CancelOrder 取消订单
func (h *Handler) CancelOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	_ = c.ShouldBindJSON(&req)

	order, err := h.OrderService.CancelOrder(uid, uint(orderID), req.Notes)
	if err != nil {
		respondOrderCancelError(c, err)
		return
	}

	response.Success(c, order)
}

// GetOrderStatusHistory 获取订单状态轨迹
func (h *Handler) GetOrderStatusHistory(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	history, err := h.OrderService.StatusHistory(uid, uint(orderID))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}

	response.Success(c, history)
}
