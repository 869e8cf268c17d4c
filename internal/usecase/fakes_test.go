package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	domain "github.com/son261103/api-sell-clothes-v1--sub000/internal/entity"
)

// In-memory fakes over the ports. fakeTx snapshots the mutable fakes on
// entry and restores them when fn fails, mirroring a DB rollback.

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]*domain.Order{}}
}

func (r *fakeOrderRepo) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return &cp, nil
}

func (r *fakeOrderRepo) UpdateStatusIf(_ context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (r *fakeOrderRepo) AddDiscount(_ context.Context, id string, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.TotalAmount -= amount
	return nil
}

func (r *fakeOrderRepo) snapshot() map[string]*domain.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := make(map[string]*domain.Order, len(r.orders))
	for k, v := range r.orders {
		cp := *v
		cp.Items = append([]domain.OrderItem(nil), v.Items...)
		snap[k] = &cp
	}
	return snap
}

func (r *fakeOrderRepo) restore(snap map[string]*domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = snap
}

type fakeLedger struct {
	mu    sync.Mutex
	stock map[int64]int
}

func newFakeLedger(stock map[int64]int) *fakeLedger {
	cp := make(map[int64]int, len(stock))
	for k, v := range stock {
		cp[k] = v
	}
	return &fakeLedger{stock: cp}
}

func (l *fakeLedger) Decrement(_ context.Context, variantID int64, qty int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stock[variantID] < qty {
		return &domain.InsufficientStockError{VariantID: variantID, Requested: qty}
	}
	l.stock[variantID] -= qty
	return nil
}

func (l *fakeLedger) Restore(_ context.Context, variantID int64, qty int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stock[variantID] += qty
	return nil
}

func (l *fakeLedger) get(variantID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stock[variantID]
}

func (l *fakeLedger) snapshot() map[int64]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := make(map[int64]int, len(l.stock))
	for k, v := range l.stock {
		cp[k] = v
	}
	return cp
}

func (l *fakeLedger) restore(snap map[int64]int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stock = snap
}

type fakeCatalog struct {
	variants map[int64]*domain.Variant
}

func (c *fakeCatalog) GetVariant(_ context.Context, id int64) (*domain.Variant, error) {
	v, ok := c.variants[id]
	if !ok {
		return nil, domain.ErrVariantNotFound
	}
	cp := *v
	return &cp, nil
}

type fakeCart struct {
	items   []domain.CartItem
	cleared []int64
}

func (c *fakeCart) Items(_ context.Context, _ int64) ([]domain.CartItem, error) {
	return append([]domain.CartItem(nil), c.items...), nil
}

func (c *fakeCart) ClearSelected(_ context.Context, _ int64, variantIDs []int64) error {
	c.cleared = append(c.cleared, variantIDs...)
	return nil
}

type fakeAddresses struct {
	addresses map[int64]*domain.Address
}

func (a *fakeAddresses) GetAddress(_ context.Context, id int64) (*domain.Address, error) {
	addr, ok := a.addresses[id]
	if !ok {
		return nil, domain.ErrAddressNotFound
	}
	return addr, nil
}

type fakeCoupons struct {
	mu           sync.Mutex
	byCode       map[string]*domain.Coupon
	orderCoupons []domain.OrderCoupon
	insertErr    error // consumed by the next InsertOrderCoupon
}

func (c *fakeCoupons) GetByCode(_ context.Context, code string) (*domain.Coupon, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	coupon, ok := c.byCode[code]
	if !ok {
		return nil, domain.ErrCouponNotFound
	}
	cp := *coupon
	return &cp, nil
}

func (c *fakeCoupons) IncrementUsage(_ context.Context, id int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, coupon := range c.byCode {
		if coupon.ID == id {
			if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
				return false, nil
			}
			coupon.UsedCount++
			return true, nil
		}
	}
	return false, nil
}

func (c *fakeCoupons) InsertOrderCoupon(_ context.Context, oc *domain.OrderCoupon) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.insertErr != nil {
		err := c.insertErr
		c.insertErr = nil
		return err
	}
	c.orderCoupons = append(c.orderCoupons, *oc)
	return nil
}

type couponsSnap struct {
	byCode       map[string]*domain.Coupon
	orderCoupons []domain.OrderCoupon
}

func (c *fakeCoupons) snapshot() couponsSnap {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := couponsSnap{
		byCode:       make(map[string]*domain.Coupon, len(c.byCode)),
		orderCoupons: append([]domain.OrderCoupon(nil), c.orderCoupons...),
	}
	for k, v := range c.byCode {
		cp := *v
		snap.byCode[k] = &cp
	}
	return snap
}

func (c *fakeCoupons) restore(snap couponsSnap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byCode = snap.byCode
	c.orderCoupons = snap.orderCoupons
}

type fakeShippingMethods struct {
	methods []*domain.ShippingMethod
}

func (s *fakeShippingMethods) GetByID(_ context.Context, id int64) (*domain.ShippingMethod, error) {
	for _, m := range s.methods {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, domain.ErrShippingMethodNotFound
}

func (s *fakeShippingMethods) First(_ context.Context) (*domain.ShippingMethod, error) {
	if len(s.methods) == 0 {
		return nil, domain.ErrShippingMethodNotFound
	}
	return s.methods[0], nil
}

type fakePayments struct {
	mu        sync.Mutex
	byOrder   map[string]*domain.Payment
	histories []domain.PaymentHistory
}

func newFakePayments() *fakePayments {
	return &fakePayments{byOrder: map[string]*domain.Payment{}}
}

func (p *fakePayments) Create(_ context.Context, payment *domain.Payment) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := *payment
	p.byOrder[payment.OrderID] = &cp
	return nil
}

func (p *fakePayments) GetByOrderID(_ context.Context, orderID string) (*domain.Payment, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	payment, ok := p.byOrder[orderID]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	cp := *payment
	return &cp, nil
}

func (p *fakePayments) MarkCompleted(_ context.Context, id, transactionCode string) error {
	return p.setStatus(id, domain.PaymentCompleted, transactionCode)
}

func (p *fakePayments) MarkFailed(_ context.Context, id string) error {
	return p.setStatus(id, domain.PaymentFailed, "")
}

func (p *fakePayments) setStatus(id string, status domain.PaymentStatus, txnCode string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, payment := range p.byOrder {
		if payment.ID == id {
			payment.Status = status
			if txnCode != "" {
				payment.TransactionCode = txnCode
			}
			return nil
		}
	}
	return domain.ErrPaymentNotFound
}

func (p *fakePayments) AppendHistory(_ context.Context, h *domain.PaymentHistory) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.histories = append(p.histories, *h)
	return nil
}

type paymentsSnap struct {
	byOrder   map[string]*domain.Payment
	histories []domain.PaymentHistory
}

func (p *fakePayments) snapshot() paymentsSnap {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap := paymentsSnap{
		byOrder:   make(map[string]*domain.Payment, len(p.byOrder)),
		histories: append([]domain.PaymentHistory(nil), p.histories...),
	}
	for k, v := range p.byOrder {
		cp := *v
		snap.byOrder[k] = &cp
	}
	return snap
}

func (p *fakePayments) restore(snap paymentsSnap) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byOrder = snap.byOrder
	p.histories = snap.histories
}

type fakeMethods struct {
	methods map[int64]*domain.PaymentMethod
}

func (m *fakeMethods) GetByID(_ context.Context, id int64) (*domain.PaymentMethod, error) {
	method, ok := m.methods[id]
	if !ok {
		return nil, errors.New("payment method not found")
	}
	return method, nil
}

type fakeOutbox struct {
	mu        sync.Mutex
	records   []OutboxRecord
	nextID    int64
	insertErr error // consumed by the next Insert
}

func (o *fakeOutbox) Insert(_ context.Context, channel string, payload []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.insertErr != nil {
		err := o.insertErr
		o.insertErr = nil
		return err
	}
	o.nextID++
	o.records = append(o.records, OutboxRecord{ID: o.nextID, Channel: channel, Payload: payload})
	return nil
}

func (o *fakeOutbox) FetchPending(_ context.Context, limit int) ([]OutboxRecord, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if limit > len(o.records) {
		limit = len(o.records)
	}
	return append([]OutboxRecord(nil), o.records[:limit]...), nil
}

func (o *fakeOutbox) MarkSent(_ context.Context, id int64) error { return nil }

func (o *fakeOutbox) channels() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.records))
	for _, r := range o.records {
		out = append(out, r.Channel)
	}
	return out
}

type fakeIdem struct {
	mu     sync.Mutex
	locks  map[string]bool
	values map[string]string
}

func newFakeIdem() *fakeIdem {
	return &fakeIdem{locks: map[string]bool{}, values: map[string]string{}}
}

func (s *fakeIdem) TryLock(_ context.Context, scope, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := scope + ":" + key
	if s.locks[k] {
		return false, nil
	}
	s.locks[k] = true
	return true, nil
}

func (s *fakeIdem) Unlock(_ context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locks, scope+":"+key)
	return nil
}

func (s *fakeIdem) Remember(_ context.Context, scope, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[scope+":"+key] = value
	return nil
}

func (s *fakeIdem) Recall(_ context.Context, scope, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[scope+":"+key]
	return v, ok, nil
}

type fakeCache struct {
	mu     sync.Mutex
	status map[string]string
}

func newFakeCache() *fakeCache { return &fakeCache{status: map[string]string{}} }

func (c *fakeCache) SetStatus(_ context.Context, orderID, status string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status[orderID] = status
	return nil
}

func (c *fakeCache) GetStatus(_ context.Context, orderID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status[orderID], nil
}

// fakeTx emulates transactional all-or-nothing over the fakes it is
// given: state is snapshotted before fn and restored on error. before,
// when set, runs between the snapshot and fn, standing in for a
// concurrent writer that commits first.
type fakeTx struct {
	orders    *fakeOrderRepo
	ledger    *fakeLedger
	payments  *fakePayments
	coupons   *fakeCoupons
	before    func()
	rollbacks int
}

func (t *fakeTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	var orderSnap map[string]*domain.Order
	var stockSnap map[int64]int
	var paySnap paymentsSnap
	var couponSnap couponsSnap
	if t.orders != nil {
		orderSnap = t.orders.snapshot()
	}
	if t.ledger != nil {
		stockSnap = t.ledger.snapshot()
	}
	if t.payments != nil {
		paySnap = t.payments.snapshot()
	}
	if t.coupons != nil {
		couponSnap = t.coupons.snapshot()
	}
	if t.before != nil {
		t.before()
		t.before = nil
	}
	if err := fn(ctx); err != nil {
		t.rollbacks++
		if t.orders != nil {
			t.orders.restore(orderSnap)
		}
		if t.ledger != nil {
			t.ledger.restore(stockSnap)
		}
		if t.payments != nil {
			t.payments.restore(paySnap)
		}
		if t.coupons != nil {
			t.coupons.restore(couponSnap)
		}
		return err
	}
	return nil
}

// fakeGateway scripts the payment gateway port.
type fakeGateway struct {
	payURL      string
	payErr      error
	callback    GatewayCallback
	callbackErr error
}

func (g *fakeGateway) PayURL(_ PayURLRequest) (string, error) {
	return g.payURL, g.payErr
}

func (g *fakeGateway) VerifyCallback(_ map[string]string) (GatewayCallback, error) {
	if g.callbackErr != nil {
		return GatewayCallback{}, g.callbackErr
	}
	return g.callback, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
