package repo

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/son261103/api-sell-clothes-v1--sub000/internal/entity"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/usecase"
)

type MySQLShippingMethodRepo struct{ db *sql.DB }

func NewMySQLShippingMethodRepo(db *sql.DB) *MySQLShippingMethodRepo {
	return &MySQLShippingMethodRepo{db: db}
}

func (r *MySQLShippingMethodRepo) GetByID(ctx context.Context, id int64) (*domain.ShippingMethod, error) {
	return r.scan(conn(ctx, r.db).QueryRowContext(ctx, `
SELECT id,name,base_fee,extra_fee_per_kg,estimated_delivery
FROM shipping_methods WHERE id=?`, id))
}

func (r *MySQLShippingMethodRepo) First(ctx context.Context) (*domain.ShippingMethod, error) {
	return r.scan(conn(ctx, r.db).QueryRowContext(ctx, `
SELECT id,name,base_fee,extra_fee_per_kg,estimated_delivery
FROM shipping_methods ORDER BY id LIMIT 1`))
}

func (r *MySQLShippingMethodRepo) scan(row *sql.Row) (*domain.ShippingMethod, error) {
	var m domain.ShippingMethod
	err := row.Scan(&m.ID, &m.Name, &m.BaseFee, &m.ExtraFeePerKg, &m.EstimatedDelivery)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrShippingMethodNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

var _ usecase.ShippingMethodRepo = (*MySQLShippingMethodRepo)(nil)
