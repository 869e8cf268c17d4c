package domain

import (
	"errors"
	"time"
)

type CouponType string

const (
	CouponPercentage CouponType = "percentage"
	CouponFixed      CouponType = "fixed"
)

type CouponStatus string

const (
	CouponEnabled  CouponStatus = "enabled"
	CouponDisabled CouponStatus = "disabled"
)

var ErrCouponNotFound = errors.New("coupon not found")

// CouponExhaustedError is raised when applying a coupon whose usage limit
// has been reached between validation and application.
type CouponExhaustedError struct {
	Code string
}

func (e *CouponExhaustedError) Error() string {
	return "coupon " + e.Code + " usage exhausted"
}

// Coupon codes are stored and matched upper-cased. StartDate, EndDate,
// MaxDiscountAmount, MinOrderAmount and UsageLimit are all optional;
// a nil bound is unbounded on that side.
type Coupon struct {
	ID                int64
	Code              string
	Type              CouponType
	Value             int64
	MaxDiscountAmount *int64
	MinOrderAmount    *int64
	StartDate         *time.Time
	EndDate           *time.Time
	UsageLimit        *int
	UsedCount         int
	Status            CouponStatus
}

// DiscountFor computes the bounded discount this coupon grants on
// orderAmount, assuming the coupon already passed validation.
// Percentage discounts clamp to MaxDiscountAmount when set; fixed
// discounts can never exceed the order amount.
func (c *Coupon) DiscountFor(orderAmount int64) int64 {
	switch c.Type {
	case CouponPercentage:
		discount := orderAmount * c.Value / 100
		if c.MaxDiscountAmount != nil && discount > *c.MaxDiscountAmount {
			discount = *c.MaxDiscountAmount
		}
		return discount
	case CouponFixed:
		if c.Value > orderAmount {
			return orderAmount
		}
		return c.Value
	}
	return 0
}

// OrderCoupon freezes the discount actually granted at application time.
type OrderCoupon struct {
	OrderID        string
	CouponID       int64
	DiscountAmount int64
	AppliedAt      time.Time
}
