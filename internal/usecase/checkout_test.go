package usecase

import (
	"context"
	"errors"
	"testing"

	domain "github.com/son261103/api-sell-clothes-v1--sub000/internal/entity"
)

type checkoutEnv struct {
	orders  *fakeOrderRepo
	cart    *fakeCart
	ledger  *fakeLedger
	outbox  *fakeOutbox
	idem    *fakeIdem
	tx      *fakeTx
	service *Checkout
}

func newCheckoutEnv(cart []domain.CartItem, variants map[int64]*domain.Variant, stock map[int64]int) *checkoutEnv {
	env := &checkoutEnv{
		orders: newFakeOrderRepo(),
		cart:   &fakeCart{items: cart},
		ledger: newFakeLedger(stock),
		outbox: &fakeOutbox{},
		idem:   newFakeIdem(),
	}
	env.tx = &fakeTx{orders: env.orders, ledger: env.ledger}
	addresses := &fakeAddresses{addresses: map[int64]*domain.Address{
		10: {ID: 10, UserID: 7},
		11: {ID: 11, UserID: 8},
	}}
	shipping := NewShippingQuote(&fakeShippingMethods{methods: []*domain.ShippingMethod{
		{ID: 1, Name: "standard", BaseFee: 20_000, ExtraFeePerKg: 5_000},
	}}, discardLogger())
	env.service = NewCheckout(env.orders, env.cart, addresses, &fakeCatalog{variants: variants},
		env.ledger, shipping, env.outbox, env.idem, env.tx, discardLogger())
	return env
}

func TestCheckoutTotalsInvariant(t *testing.T) {
	env := newCheckoutEnv(
		[]domain.CartItem{
			{VariantID: 1, Quantity: 2, Selected: true},
			{VariantID: 2, Quantity: 1, Selected: true},
		},
		map[int64]*domain.Variant{
			1: {ID: 1, Price: 120_000, SalePrice: 100_000, StockQuantity: 10, Active: true},
			2: {ID: 2, Price: 80_000, StockQuantity: 5, Active: true},
		},
		map[int64]int{1: 10, 2: 5},
	)

	out, err := env.service.Execute(context.Background(), CheckoutInput{
		UserID: 7, AddressID: 10, ShippingMethodID: 1,
	})
	if err != nil {
		t.Fatal(err)
	}

	order := out.Order
	var itemsTotal int64
	for _, it := range order.Items {
		itemsTotal += int64(it.Quantity) * it.UnitPrice
	}
	if itemsTotal+order.ShippingFee != order.TotalAmount {
		t.Errorf("items %d + shipping %d != total %d", itemsTotal, order.ShippingFee, order.TotalAmount)
	}
	// sale price wins over list price
	if order.Items[0].UnitPrice != 100_000 {
		t.Errorf("got unit price %d, want sale price 100000", order.Items[0].UnitPrice)
	}
	if order.Status != domain.OrderPending {
		t.Errorf("new order must be PENDING, got %s", order.Status)
	}

	// stock decremented
	if env.ledger.get(1) != 8 || env.ledger.get(2) != 4 {
		t.Errorf("stock not decremented: v1=%d v2=%d", env.ledger.get(1), env.ledger.get(2))
	}
	// cart cleared and event queued
	if len(env.cart.cleared) != 2 {
		t.Errorf("expected 2 cart items cleared, got %d", len(env.cart.cleared))
	}
	if chans := env.outbox.channels(); len(chans) != 1 || chans[0] != ChannelOrderCreated {
		t.Errorf("expected order.created outbox event, got %v", chans)
	}
}

func TestCheckoutDefaultFeeWithoutMethod(t *testing.T) {
	env := newCheckoutEnv(
		[]domain.CartItem{{VariantID: 1, Quantity: 1, Selected: true}},
		map[int64]*domain.Variant{1: {ID: 1, Price: 50_000, StockQuantity: 3, Active: true}},
		map[int64]int{1: 3},
	)

	out, err := env.service.Execute(context.Background(), CheckoutInput{UserID: 7, AddressID: 10})
	if err != nil {
		t.Fatal(err)
	}
	if out.Order.ShippingFee != DefaultShippingFee {
		t.Errorf("got fee %d, want default %d", out.Order.ShippingFee, DefaultShippingFee)
	}
}

func TestCheckoutExplicitVariantSelection(t *testing.T) {
	env := newCheckoutEnv(
		[]domain.CartItem{
			{VariantID: 1, Quantity: 1, Selected: false},
			{VariantID: 2, Quantity: 2, Selected: true},
		},
		map[int64]*domain.Variant{
			1: {ID: 1, Price: 50_000, StockQuantity: 3, Active: true},
			2: {ID: 2, Price: 70_000, StockQuantity: 3, Active: true},
		},
		map[int64]int{1: 3, 2: 3},
	)

	// explicit list overrides selected flags
	out, err := env.service.Execute(context.Background(), CheckoutInput{
		UserID: 7, AddressID: 10, VariantIDs: []int64{1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Order.Items) != 1 || out.Order.Items[0].VariantID != 1 {
		t.Errorf("expected only variant 1 in order, got %+v", out.Order.Items)
	}
}

func TestCheckoutDerivesWeightFromCatalog(t *testing.T) {
	env := newCheckoutEnv(
		[]domain.CartItem{
			{VariantID: 1, Quantity: 2, Selected: true}, // 2 x 0.5kg
			{VariantID: 2, Quantity: 1, Selected: true}, // 1 x 1.0kg
		},
		map[int64]*domain.Variant{
			1: {ID: 1, Price: 60_000, StockQuantity: 5, WeightKg: 0.5, Active: true},
			2: {ID: 2, Price: 90_000, StockQuantity: 5, WeightKg: 1.0, Active: true},
		},
		map[int64]int{1: 5, 2: 5},
	)

	// no client weight hint: 2kg from the catalog prices the shipment
	out, err := env.service.Execute(context.Background(), CheckoutInput{
		UserID: 7, AddressID: 10, ShippingMethodID: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	// base 20,000 + 5,000/kg x 2kg
	if out.Order.ShippingFee != 30_000 {
		t.Errorf("got fee %d, want 30000 from catalog weights", out.Order.ShippingFee)
	}
}

func TestCheckoutRejectsInactiveVariant(t *testing.T) {
	env := newCheckoutEnv(
		[]domain.CartItem{{VariantID: 1, Quantity: 1, Selected: true}},
		map[int64]*domain.Variant{1: {ID: 1, Price: 50_000, StockQuantity: 3}},
		map[int64]int{1: 3},
	)

	_, err := env.service.Execute(context.Background(), CheckoutInput{UserID: 7, AddressID: 10})
	if !errors.Is(err, domain.ErrVariantUnavailable) {
		t.Errorf("got %v, want ErrVariantUnavailable", err)
	}
	if len(env.orders.snapshot()) != 0 {
		t.Error("no order may be created for an inactive variant")
	}
}

func TestCheckoutEmptySelection(t *testing.T) {
	env := newCheckoutEnv(
		[]domain.CartItem{{VariantID: 1, Quantity: 1, Selected: false}},
		map[int64]*domain.Variant{1: {ID: 1, Price: 50_000, StockQuantity: 3, Active: true}},
		map[int64]int{1: 3},
	)

	_, err := env.service.Execute(context.Background(), CheckoutInput{UserID: 7, AddressID: 10})
	if !errors.Is(err, domain.ErrEmptySelection) {
		t.Errorf("got %v, want ErrEmptySelection", err)
	}
}

func TestCheckoutAddressOwnership(t *testing.T) {
	env := newCheckoutEnv(
		[]domain.CartItem{{VariantID: 1, Quantity: 1, Selected: true}},
		map[int64]*domain.Variant{1: {ID: 1, Price: 50_000, StockQuantity: 3, Active: true}},
		map[int64]int{1: 3},
	)

	// address 11 belongs to user 8
	_, err := env.service.Execute(context.Background(), CheckoutInput{UserID: 7, AddressID: 11})
	if !errors.Is(err, domain.ErrAddressNotOwned) {
		t.Errorf("got %v, want ErrAddressNotOwned", err)
	}
}

func TestCheckoutInsufficientStockRollsBackEverything(t *testing.T) {
	env := newCheckoutEnv(
		[]domain.CartItem{
			{VariantID: 1, Quantity: 2, Selected: true},
			{VariantID: 2, Quantity: 5, Selected: true}, // only 1 in stock
		},
		map[int64]*domain.Variant{
			1: {ID: 1, Price: 100_000, StockQuantity: 10, Active: true},
			2: {ID: 2, Price: 80_000, StockQuantity: 1, Active: true},
		},
		map[int64]int{1: 10, 2: 1},
	)

	_, err := env.service.Execute(context.Background(), CheckoutInput{
		UserID: 7, AddressID: 10, ShippingMethodID: 1,
	})
	var stock *domain.InsufficientStockError
	if !errors.As(err, &stock) {
		t.Fatalf("got %v, want InsufficientStockError", err)
	}
	if stock.VariantID != 2 {
		t.Errorf("error names variant %d, want 2", stock.VariantID)
	}

	// the decrement already applied to variant 1 must be rolled back
	if env.ledger.get(1) != 10 {
		t.Errorf("variant 1 stock %d after rollback, want 10", env.ledger.get(1))
	}
	if len(env.orders.snapshot()) != 0 {
		t.Error("no order may survive a failed checkout")
	}
	if env.tx.rollbacks != 1 {
		t.Errorf("expected 1 rollback, got %d", env.tx.rollbacks)
	}
}

func TestCheckoutIdempotencyKeyReturnsSameOrder(t *testing.T) {
	env := newCheckoutEnv(
		[]domain.CartItem{{VariantID: 1, Quantity: 1, Selected: true}},
		map[int64]*domain.Variant{1: {ID: 1, Price: 50_000, StockQuantity: 5, Active: true}},
		map[int64]int{1: 5},
	)

	in := CheckoutInput{UserID: 7, AddressID: 10, ShippingMethodID: 1, IdempotencyKey: "req-1"}
	first, err := env.service.Execute(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	second, err := env.service.Execute(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}
	if first.Order.ID != second.Order.ID {
		t.Errorf("retry created a second order: %s vs %s", first.Order.ID, second.Order.ID)
	}
	if len(env.orders.snapshot()) != 1 {
		t.Errorf("expected 1 persisted order, got %d", len(env.orders.snapshot()))
	}
	if env.ledger.get(1) != 4 {
		t.Errorf("stock decremented more than once: %d", env.ledger.get(1))
	}
}
