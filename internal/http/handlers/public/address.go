package public

import (
	"errors"
	"strconv"

	"github.com/sketezo-next/internal/http/response"
	"github.com/sketezo-next/internal/service"

	"github.com/gin-gonic/gin"
)

// AddressRequest 地址请求
type AddressRequest struct {
	FullName     string `json:"full_name" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
	AddressLine1 string `json:"address_line1" binding:"required"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city" binding:"required"`
	State        string `json:"state" binding:"required"`
	Pincode      string `json:"pincode" binding:"required"`
	Country      string `json:"country"`
	IsDefault    bool   `json:"is_default"`
}

func (r AddressRequest) toInput() service.AddressInput {
	return service.AddressInput{
		FullName:     r.FullName,
		Phone:        r.Phone,
		AddressLine1: r.AddressLine1,
		AddressLine2: r.AddressLine2,
		City:         r.City,
		State:        r.State,
		Pincode:      r.Pincode,
		Country:      r.Country,
		IsDefault:    r.IsDefault,
	}
}

// ListAddresses 获取收货地址列表
func (h *Handler) ListAddresses(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	addresses, err := h.AddressService.List(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "address fetch failed", err)
		return
	}

	response.Success(c, addresses)
}

// CreateAddress 新增收货地址
func (h *Handler) CreateAddress(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	address, err := h.AddressService.Create(uid, req.toInput())
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			respondError(c, response.CodeBadRequest, "invalid address", nil)
			return
		}
		respondError(c, response.CodeInternal, "address create failed", err)
		return
	}

	response.Success(c, address)
}

// UpdateAddress 更新收货地址
func (h *Handler) UpdateAddress(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	addressID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || addressID == 0 {
		respondError(c, response.CodeBadRequest, "invalid address id", nil)
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	address, err := h.AddressService.Update(uid, uint(addressID), req.toInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAddressNotFound):
			respondError(c, response.CodeNotFound, "address not found", nil)
		case errors.Is(err, service.ErrValidation):
			respondError(c, response.CodeBadRequest, "invalid address", nil)
		default:
			respondError(c, response.CodeInternal, "address update failed", err)
		}
		return
	}

	response.Success(c, address)
}

// DeleteAddress 删除收货地址
func (h *Handler) DeleteAddress(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	addressID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || addressID == 0 {
		respondError(c, response.CodeBadRequest, "invalid address id", nil)
		return
	}

	if err := h.AddressService.Delete(uid, uint(addressID)); err != nil {
		if errors.Is(err, service.ErrAddressNotFound) {
			respondError(c, response.CodeNotFound, "address not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "address delete failed", err)
		return
	}

	response.Success(c, nil)
}
