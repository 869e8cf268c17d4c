package repo

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/son261103/api-sell-clothes-v1--sub000/internal/entity"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/usecase"
)

type MySQLOrderRepo struct{ db *sql.DB }

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo { return &MySQLOrderRepo{db: db} }

func (r *MySQLOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	c := conn(ctx, r.db)
	_, err := c.ExecContext(ctx, `
INSERT INTO orders (id,user_id,address_id,status,total_amount,shipping_fee,shipping_method_id,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,NOW(),NOW())
`, o.ID, o.UserID, o.AddressID, o.Status, o.TotalAmount, o.ShippingFee, nullableID(o.ShippingMethodID))
	if err != nil {
		return err
	}
	for i := range o.Items {
		it := &o.Items[i]
		res, err := c.ExecContext(ctx, `
INSERT INTO order_items (order_id,variant_id,quantity,unit_price)
VALUES (?,?,?,?)
`, o.ID, it.VariantID, it.Quantity, it.UnitPrice)
		if err != nil {
			return err
		}
		it.OrderID = o.ID
		it.ID, _ = res.LastInsertId()
	}
	return nil
}

func (r *MySQLOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	c := conn(ctx, r.db)
	row := c.QueryRowContext(ctx, `
SELECT id,user_id,address_id,status,total_amount,shipping_fee,COALESCE(shipping_method_id,0),created_at,updated_at
FROM orders WHERE id=?`, id)

	var o domain.Order
	err := row.Scan(&o.ID, &o.UserID, &o.AddressID, &o.Status, &o.TotalAmount,
		&o.ShippingFee, &o.ShippingMethodID, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := c.QueryContext(ctx, `
SELECT id,order_id,variant_id,quantity,unit_price
FROM order_items WHERE order_id=? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.VariantID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *MySQLOrderRepo) UpdateStatusIf(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
UPDATE orders SET status=?, updated_at=NOW()
WHERE id=? AND status=?`, to, id, from)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	// rows == 0 means not found or status moved under us
	return rows > 0, nil
}

func (r *MySQLOrderRepo) AddDiscount(ctx context.Context, id string, amount int64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
UPDATE orders SET total_amount = total_amount - ?, updated_at=NOW()
WHERE id=? AND total_amount >= ?`, amount, id, amount)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

var _ usecase.OrderRepo = (*MySQLOrderRepo)(nil)
