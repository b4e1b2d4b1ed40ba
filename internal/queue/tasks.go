package queue

import (
	"encoding/json"

	"github.com/sketezo-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskShipmentCreate 运单创建任务
	TaskShipmentCreate = constants.TaskShipmentCreate
	// TaskShipmentTrackSync 物流轨迹同步任务
	TaskShipmentTrackSync = constants.TaskShipmentTrackSync
	// TaskOrderTimeoutCancel 超时取消任务
	TaskOrderTimeoutCancel = constants.TaskOrderTimeoutCancel
)

// ShipmentCreatePayload 运单创建任务载荷
type ShipmentCreatePayload struct {
	OrderID uint `json:"order_id"`
}

// ShipmentTrackSyncPayload 物流轨迹同步任务载荷
type ShipmentTrackSyncPayload struct {
	ShipmentID uint `json:"shipment_id"`
}

// OrderTimeoutCancelPayload 超时取消任务载荷
type OrderTimeoutCancelPayload struct {
	OrderID uint `json:"order_id"`
}

// NewShipmentCreateTask 创建运单创建任务
func NewShipmentCreateTask(payload ShipmentCreatePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskShipmentCreate, body), nil
}

// NewShipmentTrackSyncTask 创建物流轨迹同步任务
func NewShipmentTrackSyncTask(payload ShipmentTrackSyncPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskShipmentTrackSync, body), nil
}

// NewOrderTimeoutCancelTask 创建超时取消任务
func NewOrderTimeoutCancelTask(payload OrderTimeoutCancelPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderTimeoutCancel, body), nil
}
