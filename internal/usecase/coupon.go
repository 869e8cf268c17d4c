package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/son261103/api-sell-clothes-v1--sub000/internal/entity"
)

// CouponValidation is the side-effect-free preview result. Reason is a
// human-readable explanation when Valid is false.
type CouponValidation struct {
	Valid          bool
	Reason         string
	DiscountAmount int64
}

// CouponService validates coupons (no side effects) and applies them to
// orders (freezes the discount, bumps the usage counter).
type CouponService struct {
	coupons CouponRepo
	orders  OrderRepo
	tx      TxManager
	now     func() time.Time
}

func NewCouponService(coupons CouponRepo, orders OrderRepo, tx TxManager) *CouponService {
	return &CouponService{coupons: coupons, orders: orders, tx: tx, now: time.Now}
}

// Validate runs the short-circuiting check pipeline against orderAmount.
// The first failing check wins. Calling this never mutates anything, so
// UI previews can call it repeatedly.
func (s *CouponService) Validate(ctx context.Context, code string, orderAmount int64) (CouponValidation, error) {
	coupon, err := s.coupons.GetByCode(ctx, strings.ToUpper(code))
	if errors.Is(err, domain.ErrCouponNotFound) {
		return CouponValidation{Reason: fmt.Sprintf("coupon %q does not exist", code)}, nil
	}
	if err != nil {
		return CouponValidation{}, err
	}

	if reason := s.check(coupon, orderAmount); reason != "" {
		return CouponValidation{Reason: reason}, nil
	}
	return CouponValidation{Valid: true, DiscountAmount: coupon.DiscountFor(orderAmount)}, nil
}

func (s *CouponService) check(c *domain.Coupon, orderAmount int64) string {
	if c.Status != domain.CouponEnabled {
		return fmt.Sprintf("coupon %s is disabled", c.Code)
	}
	now := s.now()
	if c.StartDate != nil && now.Before(*c.StartDate) {
		return fmt.Sprintf("coupon %s is not yet valid", c.Code)
	}
	if c.EndDate != nil && now.After(*c.EndDate) {
		return fmt.Sprintf("coupon %s has expired", c.Code)
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return fmt.Sprintf("coupon %s usage exhausted", c.Code)
	}
	if c.MinOrderAmount != nil && orderAmount < *c.MinOrderAmount {
		return fmt.Sprintf("order amount is below the minimum %d for coupon %s", *c.MinOrderAmount, c.Code)
	}
	return ""
}

// ApplyToOrder freezes the discount into an order_coupons row, deducts
// it from the order total and increments used_count, all in one
// transaction. Unlike Validate this has side effects every time it is
// called; callers must not use it for previews.
func (s *CouponService) ApplyToOrder(ctx context.Context, orderID, code string) (int64, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return 0, err
	}
	if order.Status != domain.OrderPending {
		return 0, fmt.Errorf("coupon can only be applied to a pending order, order %s is %s", orderID, order.Status)
	}

	code = strings.ToUpper(code)
	coupon, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		return 0, err
	}
	if reason := s.check(coupon, order.TotalAmount); reason != "" {
		return 0, errors.New(reason)
	}
	discount := coupon.DiscountFor(order.TotalAmount)

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		ok, err := s.coupons.IncrementUsage(ctx, coupon.ID)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.CouponExhaustedError{Code: code}
		}
		if err := s.coupons.InsertOrderCoupon(ctx, &domain.OrderCoupon{
			OrderID:        orderID,
			CouponID:       coupon.ID,
			DiscountAmount: discount,
			AppliedAt:      s.now(),
		}); err != nil {
			return err
		}
		return s.orders.AddDiscount(ctx, orderID, discount)
	})
	if err != nil {
		return 0, err
	}
	return discount, nil
}
