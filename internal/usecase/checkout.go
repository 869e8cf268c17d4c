package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	domain "github.com/son261103/api-sell-clothes-v1--sub000/internal/entity"
)

const checkoutIdemScope = "checkout"

type CheckoutInput struct {
	UserID           int64
	AddressID        int64
	VariantIDs       []int64 // empty => use the cart's selected flags
	ShippingMethodID int64   // zero => flat DefaultShippingFee
	WeightKg         float64
	IdempotencyKey   string
}

type CheckoutOutput struct {
	Order *domain.Order
}

// Checkout converts selected cart items into a persisted order with its
// items, decrementing stock. It either commits everything or leaves no
// partial state behind.
type Checkout struct {
	orders    OrderRepo
	carts     CartProvider
	addresses AddressProvider
	catalog   CatalogProvider
	stock     InventoryLedger
	shipping  *ShippingQuote
	outbox    OutboxRepo
	idem      IdempotencyStore
	tx        TxManager
	log       *slog.Logger
}

func NewCheckout(
	orders OrderRepo,
	carts CartProvider,
	addresses AddressProvider,
	catalog CatalogProvider,
	stock InventoryLedger,
	shipping *ShippingQuote,
	outbox OutboxRepo,
	idem IdempotencyStore,
	tx TxManager,
	log *slog.Logger,
) *Checkout {
	return &Checkout{
		orders:    orders,
		carts:     carts,
		addresses: addresses,
		catalog:   catalog,
		stock:     stock,
		shipping:  shipping,
		outbox:    outbox,
		idem:      idem,
		tx:        tx,
		log:       log,
	}
}

func (uc *Checkout) Execute(ctx context.Context, in CheckoutInput) (CheckoutOutput, error) {
	// Fast path: a retried request with the same idempotency key gets
	// the order it already created.
	if in.IdempotencyKey != "" {
		if id, ok, _ := uc.idem.Recall(ctx, scopeKey(in.UserID), in.IdempotencyKey); ok {
			order, err := uc.orders.GetByID(ctx, id)
			if err != nil {
				return CheckoutOutput{}, err
			}
			return CheckoutOutput{Order: order}, nil
		}
	}

	items, err := uc.selectItems(ctx, in)
	if err != nil {
		return CheckoutOutput{}, err
	}

	addr, err := uc.addresses.GetAddress(ctx, in.AddressID)
	if err != nil {
		return CheckoutOutput{}, err
	}
	if addr.UserID != in.UserID {
		return CheckoutOutput{}, domain.ErrAddressNotOwned
	}

	orderItems, subtotal, catalogWeight, err := uc.priceItems(ctx, items)
	if err != nil {
		return CheckoutOutput{}, err
	}

	// The client's weight hint wins when given; otherwise the catalog's
	// per-variant weights price the shipment.
	weight := in.WeightKg
	if weight == 0 {
		weight = catalogWeight
	}

	fee := DefaultShippingFee
	if in.ShippingMethodID != 0 {
		fee, err = uc.shipping.Calculate(ctx, subtotal, in.ShippingMethodID, weight)
		if err != nil {
			return CheckoutOutput{}, err
		}
	}

	now := time.Now()
	order := &domain.Order{
		ID:               uuid.NewString(),
		UserID:           in.UserID,
		AddressID:        in.AddressID,
		Status:           domain.OrderPending,
		TotalAmount:      subtotal + fee,
		ShippingFee:      fee,
		ShippingMethodID: in.ShippingMethodID,
		Items:            orderItems,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := order.Validate(); err != nil {
		return CheckoutOutput{}, err
	}

	// Order row, item rows, every stock decrement and the outbox event
	// commit together or not at all. A failed decrement mid-list rolls
	// back the decrements already applied for this checkout.
	err = uc.tx.InTx(ctx, func(ctx context.Context) error {
		if err := uc.orders.Create(ctx, order); err != nil {
			return err
		}
		for _, it := range order.Items {
			if err := uc.stock.Decrement(ctx, it.VariantID, it.Quantity); err != nil {
				return err
			}
		}
		taken := make([]int64, 0, len(order.Items))
		for _, it := range order.Items {
			taken = append(taken, it.VariantID)
		}
		if err := uc.carts.ClearSelected(ctx, in.UserID, taken); err != nil {
			return err
		}
		payload, err := json.Marshal(OrderCreatedMsg{
			OrderID:     order.ID,
			UserID:      order.UserID,
			TotalAmount: order.TotalAmount,
			ShippingFee: order.ShippingFee,
		})
		if err != nil {
			return err
		}
		return uc.outbox.Insert(ctx, ChannelOrderCreated, payload)
	})
	if err != nil {
		return CheckoutOutput{}, err
	}

	if in.IdempotencyKey != "" {
		_ = uc.idem.Remember(ctx, scopeKey(in.UserID), in.IdempotencyKey, order.ID)
	}

	uc.log.Info("checkout completed",
		"order_id", order.ID, "user_id", order.UserID,
		"total", order.TotalAmount, "items", len(order.Items))
	return CheckoutOutput{Order: order}, nil
}

// selectItems resolves the cart and narrows it to the checkout's
// selection: an explicit variant-id list when given, the cart's
// selected flags otherwise.
func (uc *Checkout) selectItems(ctx context.Context, in CheckoutInput) ([]domain.CartItem, error) {
	items, err := uc.carts.Items(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	var picked []domain.CartItem
	if len(in.VariantIDs) > 0 {
		wanted := make(map[int64]bool, len(in.VariantIDs))
		for _, id := range in.VariantIDs {
			wanted[id] = true
		}
		for _, it := range items {
			if wanted[it.VariantID] {
				picked = append(picked, it)
			}
		}
	} else {
		for _, it := range items {
			if it.Selected {
				picked = append(picked, it)
			}
		}
	}
	if len(picked) == 0 {
		return nil, domain.ErrEmptySelection
	}
	return picked, nil
}

func (uc *Checkout) priceItems(ctx context.Context, items []domain.CartItem) ([]domain.OrderItem, int64, float64, error) {
	out := make([]domain.OrderItem, 0, len(items))
	var subtotal int64
	var weight float64
	for _, it := range items {
		v, err := uc.catalog.GetVariant(ctx, it.VariantID)
		if err != nil {
			return nil, 0, 0, err
		}
		if !v.Active {
			return nil, 0, 0, fmt.Errorf("variant %d: %w", it.VariantID, domain.ErrVariantUnavailable)
		}
		price := v.UnitPrice()
		out = append(out, domain.OrderItem{
			VariantID: it.VariantID,
			Quantity:  it.Quantity,
			UnitPrice: price,
		})
		subtotal += int64(it.Quantity) * price
		weight += v.WeightKg * float64(it.Quantity)
	}
	return out, subtotal, weight, nil
}

func scopeKey(userID int64) string {
	return checkoutIdemScope + ":" + strconv.FormatInt(userID, 10)
}
