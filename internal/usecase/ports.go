package usecase

import (
	"context"
	"time"

	domain "github.com/son261103/api-sell-clothes-v1--sub000/internal/entity"
)

// Persistence and collaborator ports. Adapters return fully-materialized
// value objects; no lazy loading behind these interfaces.

type OrderRepo interface {
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// UpdateStatusIf is a compare-and-swap on status; false means the
	// order was not in fromStatus anymore (or does not exist).
	UpdateStatusIf(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error)
	// AddDiscount subtracts a frozen coupon discount from total_amount.
	AddDiscount(ctx context.Context, id string, amount int64) error
}

type InventoryLedger interface {
	// Decrement is guarded: it fails with InsufficientStockError rather
	// than ever driving stock below zero.
	Decrement(ctx context.Context, variantID int64, qty int) error
	Restore(ctx context.Context, variantID int64, qty int) error
}

type CatalogProvider interface {
	GetVariant(ctx context.Context, id int64) (*domain.Variant, error)
}

type CartProvider interface {
	Items(ctx context.Context, userID int64) ([]domain.CartItem, error)
	ClearSelected(ctx context.Context, userID int64, variantIDs []int64) error
}

type AddressProvider interface {
	GetAddress(ctx context.Context, id int64) (*domain.Address, error)
}

type CouponRepo interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	// IncrementUsage is guarded by usage_limit; false means exhausted.
	IncrementUsage(ctx context.Context, id int64) (bool, error)
	InsertOrderCoupon(ctx context.Context, oc *domain.OrderCoupon) error
}

type ShippingMethodRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.ShippingMethod, error)
	First(ctx context.Context) (*domain.ShippingMethod, error)
}

type PaymentRepo interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error)
	MarkCompleted(ctx context.Context, id, transactionCode string) error
	MarkFailed(ctx context.Context, id string) error
	AppendHistory(ctx context.Context, h *domain.PaymentHistory) error
}

type PaymentMethodRepo interface {
	GetByID(ctx context.Context, id int64) (*domain.PaymentMethod, error)
}

type OutboxRepo interface {
	Insert(ctx context.Context, channel string, payload []byte) error
	FetchPending(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkSent(ctx context.Context, id int64) error
}

type OutboxRecord struct {
	ID        int64
	Channel   string
	Payload   []byte
	CreatedAt time.Time
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	// Unlock releases a TryLock claim whose protected work did not
	// complete, so a retry can claim the key again.
	Unlock(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}

type OrderCache interface {
	SetStatus(ctx context.Context, orderID string, status string) error
	GetStatus(ctx context.Context, orderID string) (string, error)
}

// TxManager runs fn inside a single database transaction. Repo calls made
// with the ctx passed to fn join that transaction; an error from fn rolls
// everything back.
type TxManager interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PaymentGateway signs redirect URLs and verifies asynchronous callbacks
// for the external payment processor.
type PaymentGateway interface {
	PayURL(req PayURLRequest) (string, error)
	VerifyCallback(params map[string]string) (GatewayCallback, error)
}

type PayURLRequest struct {
	TxnRef    string
	Amount    int64
	OrderInfo string
	ClientIP  string
	BankCode  string
}

type GatewayCallback struct {
	TxnRef        string
	TransactionNo string
	ResponseCode  string
	Amount        int64
}
