package repo

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/son261103/api-sell-clothes-v1--sub000/internal/entity"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/usecase"
)

type MySQLCouponRepo struct{ db *sql.DB }

func NewMySQLCouponRepo(db *sql.DB) *MySQLCouponRepo { return &MySQLCouponRepo{db: db} }

func (r *MySQLCouponRepo) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `
SELECT id,code,type,value,max_discount_amount,min_order_amount,start_date,end_date,usage_limit,used_count,status
FROM coupons WHERE code=UPPER(?)`, code)

	var c domain.Coupon
	var maxDiscount, minOrder sql.NullInt64
	var usageLimit sql.NullInt64
	var start, end sql.NullTime
	err := row.Scan(&c.ID, &c.Code, &c.Type, &c.Value, &maxDiscount, &minOrder,
		&start, &end, &usageLimit, &c.UsedCount, &c.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCouponNotFound
	}
	if err != nil {
		return nil, err
	}
	if maxDiscount.Valid {
		c.MaxDiscountAmount = &maxDiscount.Int64
	}
	if minOrder.Valid {
		c.MinOrderAmount = &minOrder.Int64
	}
	if usageLimit.Valid {
		limit := int(usageLimit.Int64)
		c.UsageLimit = &limit
	}
	if start.Valid {
		c.StartDate = &start.Time
	}
	if end.Valid {
		c.EndDate = &end.Time
	}
	return &c, nil
}

// IncrementUsage bumps used_count only while the usage limit still has
// headroom; concurrent applications serialize on the row.
func (r *MySQLCouponRepo) IncrementUsage(ctx context.Context, id int64) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
UPDATE coupons SET used_count = used_count + 1
WHERE id=? AND (usage_limit IS NULL OR used_count < usage_limit)`, id)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *MySQLCouponRepo) InsertOrderCoupon(ctx context.Context, oc *domain.OrderCoupon) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
INSERT INTO order_coupons (order_id,coupon_id,discount_amount,applied_at)
VALUES (?,?,?,?)`, oc.OrderID, oc.CouponID, oc.DiscountAmount, oc.AppliedAt)
	return err
}

var _ usecase.CouponRepo = (*MySQLCouponRepo)(nil)
