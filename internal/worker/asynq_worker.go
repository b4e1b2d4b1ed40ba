package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sketezo-next/internal/logger"
	"github.com/sketezo-next/internal/provider"
	"github.com/sketezo-next/internal/queue"
	"github.com/sketezo-next/internal/service"

	"github.com/hibiken/asynq"
)

const trackSyncInterval = 15 * time.Minute

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskShipmentCreate, c.handleShipmentCreate)
	mux.HandleFunc(queue.TaskShipmentTrackSync, c.handleShipmentTrackSync)
	mux.HandleFunc(queue.TaskOrderTimeoutCancel, c.handleOrderTimeoutCancel)
}

func (c *Consumer) handleShipmentCreate(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_shipment_create_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ShipmentCreatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_shipment_create_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_shipment_create_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.ShipmentService == nil {
		logger.Warnw("worker_shipment_create_skip_service_nil", "order_id", payload.OrderID)
		return nil
	}
	if err := c.ShipmentService.CreateForOrder(ctx, payload.OrderID); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_shipment_create_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrShipmentAlreadyExists):
			logger.Debugw("worker_shipment_create_skip_exists", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrShipmentNotReady):
			logger.Debugw("worker_shipment_create_skip_not_ready", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_shipment_create_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}

	// 出库成功后安排首次轨迹同步
	record, err := c.ShipmentRecordRepo.GetByOrderID(payload.OrderID)
	if err != nil || record == nil {
		logger.Warnw("worker_shipment_create_fetch_record_failed", "order_id", payload.OrderID, "error", err)
		return nil
	}
	if c.QueueClient != nil {
		if err := c.QueueClient.EnqueueShipmentTrackSync(queue.ShipmentTrackSyncPayload{ShipmentID: record.ID}, trackSyncInterval); err != nil {
			logger.Warnw("worker_shipment_track_sync_enqueue_failed", "shipment_id", record.ID, "error", err)
		}
	}
	return nil
}

func (c *Consumer) handleShipmentTrackSync(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_shipment_track_sync_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ShipmentTrackSyncPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_shipment_track_sync_unmarshal_failed", "error", err)
		return err
	}
	if payload.ShipmentID == 0 {
		logger.Debugw("worker_shipment_track_sync_skip_invalid_payload", "shipment_id", payload.ShipmentID)
		return nil
	}
	if c.ShipmentService == nil {
		logger.Warnw("worker_shipment_track_sync_skip_service_nil", "shipment_id", payload.ShipmentID)
		return nil
	}
	record, err := c.ShipmentService.SyncTracking(ctx, payload.ShipmentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrShipmentNotFound):
			logger.Debugw("worker_shipment_track_sync_skip_not_found", "shipment_id", payload.ShipmentID)
			return nil
		case errors.Is(err, service.ErrShipmentNotReady):
			logger.Debugw("worker_shipment_track_sync_skip_not_ready", "shipment_id", payload.ShipmentID)
			return nil
		default:
			logger.Warnw("worker_shipment_track_sync_failed", "shipment_id", payload.ShipmentID, "error", err)
			return err
		}
	}

	// 未到终态则继续轮询
	if record != nil && !service.IsTerminalShippingStatus(record.ShippingStatus) && c.QueueClient != nil {
		if err := c.QueueClient.EnqueueShipmentTrackSync(queue.ShipmentTrackSyncPayload{ShipmentID: record.ID}, trackSyncInterval); err != nil {
			logger.Warnw("worker_shipment_track_sync_reenqueue_failed", "shipment_id", record.ID, "error", err)
		}
	}
	return nil
}

func (c *Consumer) handleOrderTimeoutCancel(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_timeout_cancel_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderTimeoutCancelPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_timeout_cancel_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_timeout_cancel_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.OrderService == nil {
		logger.Warnw("worker_order_timeout_cancel_skip_order_service_nil", "order_id", payload.OrderID)
		return nil
	}
	if err := c.OrderService.CancelExpiredOrder(payload.OrderID); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_order_timeout_cancel_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrOrderCannotCancel):
			logger.Debugw("worker_order_timeout_cancel_skip_cannot_cancel", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_order_timeout_cancel_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}
	return nil
}
