package domain

import (
	"errors"
	"fmt"
	"time"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipping   OrderStatus = "SHIPPING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderCompleted  OrderStatus = "COMPLETED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// orderTransitions is the full edge table of the order lifecycle.
// COMPLETED and CANCELLED are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderShipping, OrderConfirmed, OrderCancelled},
	OrderProcessing: {OrderShipping, OrderCancelled},
	OrderShipping:   {OrderCompleted, OrderCancelled},
	OrderConfirmed:  {OrderProcessing, OrderShipping, OrderCancelled},
	OrderCompleted:  {},
	OrderCancelled:  {},
}

// CanTransitionTo reports whether the edge s -> next is legal.
// A request for the status the order already holds is always rejected,
// so callers cannot mistake a no-op for a real transition.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return false
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition out of s is legal.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// InvalidTransitionError names both ends of a rejected status edge.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition %s -> %s", e.From, e.To)
}

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrEmptySelection  = errors.New("no cart items selected for checkout")
	ErrAddressNotOwned = errors.New("shipping address does not belong to the user")
)

// InsufficientStockError names the variant that could not cover the
// requested quantity. The whole checkout fails when this is raised.
type InsufficientStockError struct {
	VariantID int64
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for variant %d (requested %d)", e.VariantID, e.Requested)
}

type Order struct {
	ID               string
	UserID           int64
	AddressID        int64
	Status           OrderStatus
	TotalAmount      int64
	ShippingFee      int64
	ShippingMethodID int64
	Items            []OrderItem
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OrderItem copies quantity and unit price at order time; catalog price
// changes never retroactively alter a persisted order.
type OrderItem struct {
	ID        int64
	OrderID   string
	VariantID int64
	Quantity  int
	UnitPrice int64
}

func (o *Order) Validate() error {
	if o.UserID == 0 {
		return errors.New("order requires a user")
	}
	if len(o.Items) == 0 {
		return ErrEmptySelection
	}
	var subtotal int64
	for _, it := range o.Items {
		if it.Quantity <= 0 {
			return fmt.Errorf("order item for variant %d has non-positive quantity", it.VariantID)
		}
		if it.UnitPrice < 0 {
			return fmt.Errorf("order item for variant %d has negative unit price", it.VariantID)
		}
		subtotal += int64(it.Quantity) * it.UnitPrice
	}
	if o.TotalAmount < 0 || o.TotalAmount != subtotal+o.ShippingFee {
		return fmt.Errorf("order total %d does not match items %d + shipping %d", o.TotalAmount, subtotal, o.ShippingFee)
	}
	return nil
}
