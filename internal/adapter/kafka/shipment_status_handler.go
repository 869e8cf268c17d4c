package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	domain "github.com/son261103/api-sell-clothes-v1--sub000/internal/entity"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/usecase"
)

// ShipmentStatusHandler advances orders as the fulfillment service
// reports shipment progress.
type ShipmentStatusHandler struct {
	Status *usecase.OrderStatusService
	Log    *slog.Logger
}

func NewShipmentStatusHandler(status *usecase.OrderStatusService, log *slog.Logger) *ShipmentStatusHandler {
	return &ShipmentStatusHandler{Status: status, Log: log}
}

func (h *ShipmentStatusHandler) Handle(ctx context.Context, ev usecase.ShipmentStatusMsg) error {
	var target domain.OrderStatus
	switch ev.Status {
	case "SHIPPED":
		target = domain.OrderShipping
	case "DELIVERED":
		target = domain.OrderCompleted
	default:
		h.Log.Warn("ignoring unknown shipment status", "status", ev.Status, "order_id", ev.OrderID)
		return nil
	}

	err := h.Status.Transition(ctx, ev.OrderID, target)
	var invalid *domain.InvalidTransitionError
	if errors.As(err, &invalid) {
		// Re-delivered or out-of-order event; the order already moved.
		h.Log.Warn("shipment event skipped", "order_id", ev.OrderID, "from", invalid.From, "to", invalid.To)
		return nil
	}
	if err != nil {
		return fmt.Errorf("shipment transition %s -> %s: %w", ev.OrderID, target, err)
	}
	return nil
}
