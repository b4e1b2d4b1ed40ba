package public

import (
	"strconv"

	"github.com/sketezo-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetShipmentTracking 获取订单物流信息
func (h *Handler) GetShipmentTracking(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	record, err := h.ShipmentService.TrackForUser(uid, uint(orderID))
	if err != nil {
		respondShipmentError(c, err)
		return
	}

	response.Success(c, record)
}

// GetShipmentLabel 获取面单下载地址
func (h *Handler) GetShipmentLabel(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || orderID == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return
	}

	labelURL, err := h.ShipmentService.LabelForUser(c.Request.Context(), uid, uint(orderID))
	if err != nil {
		respondShipmentError(c, err)
		return
	}

	response.Success(c, gin.H{"label_url": labelURL})
}
