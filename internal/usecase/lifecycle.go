package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	domain "github.com/son261103/api-sell-clothes-v1--sub000/internal/entity"
)

// OrderStatusService drives orders through the status machine. Status
// writes use compare-and-swap so two concurrent transition requests can
// never both win the same edge.
type OrderStatusService struct {
	orders OrderRepo
	stock  InventoryLedger
	outbox OutboxRepo
	cache  OrderCache
	tx     TxManager
	log    *slog.Logger
}

func NewOrderStatusService(orders OrderRepo, stock InventoryLedger, outbox OutboxRepo, cache OrderCache, tx TxManager, log *slog.Logger) *OrderStatusService {
	return &OrderStatusService{orders: orders, stock: stock, outbox: outbox, cache: cache, tx: tx, log: log}
}

// Transition moves the order to the requested status if the edge is
// legal. Cancellation restores every item's stock in the same
// transaction as the status write; every other transition is a pure
// status write plus the updated-at bump made by the repo.
func (s *OrderStatusService) Transition(ctx context.Context, orderID string, to domain.OrderStatus) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.Status.CanTransitionTo(to) {
		return &domain.InvalidTransitionError{From: order.Status, To: to}
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		ok, err := s.orders.UpdateStatusIf(ctx, orderID, order.Status, to)
		if err != nil {
			return err
		}
		if !ok {
			// Lost the race: someone moved the order first.
			return &domain.InvalidTransitionError{From: order.Status, To: to}
		}
		if to != domain.OrderCancelled {
			return nil
		}
		for _, it := range order.Items {
			if err := s.stock.Restore(ctx, it.VariantID, it.Quantity); err != nil {
				return fmt.Errorf("restore stock for variant %d: %w", it.VariantID, err)
			}
		}
		payload, err := json.Marshal(OrderCancelledMsg{OrderID: orderID, UserID: order.UserID})
		if err != nil {
			return err
		}
		return s.outbox.Insert(ctx, ChannelOrderCancelled, payload)
	})
	if err != nil {
		return err
	}

	if s.cache != nil {
		_ = s.cache.SetStatus(ctx, orderID, string(to))
	}
	s.log.Info("order status changed", "order_id", orderID, "from", order.Status, "to", to)
	return nil
}

// Cancel is the customer-facing transition into CANCELLED.
func (s *OrderStatusService) Cancel(ctx context.Context, orderID string) error {
	return s.Transition(ctx, orderID, domain.OrderCancelled)
}
