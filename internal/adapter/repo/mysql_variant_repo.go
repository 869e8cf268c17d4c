package repo

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/son261103/api-sell-clothes-v1--sub000/internal/entity"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/usecase"
)

// MySQLVariantRepo serves both the catalog lookup and the inventory
// ledger over the product_variants table.
type MySQLVariantRepo struct{ db *sql.DB }

func NewMySQLVariantRepo(db *sql.DB) *MySQLVariantRepo { return &MySQLVariantRepo{db: db} }

func (r *MySQLVariantRepo) GetVariant(ctx context.Context, id int64) (*domain.Variant, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `
SELECT id,sku,price,COALESCE(sale_price,0),stock_quantity,COALESCE(weight_kg,0),active
FROM product_variants WHERE id=?`, id)
	var v domain.Variant
	err := row.Scan(&v.ID, &v.SKU, &v.Price, &v.SalePrice, &v.StockQuantity, &v.WeightKg, &v.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrVariantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Decrement is a guarded write: the WHERE clause refuses to take stock
// below zero, so concurrent checkouts serialize on the row and at most
// one wins the last unit.
func (r *MySQLVariantRepo) Decrement(ctx context.Context, variantID int64, qty int) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
UPDATE product_variants SET stock_quantity = stock_quantity - ?
WHERE id=? AND stock_quantity >= ?`, qty, variantID, qty)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &domain.InsufficientStockError{VariantID: variantID, Requested: qty}
	}
	return nil
}

func (r *MySQLVariantRepo) Restore(ctx context.Context, variantID int64, qty int) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
UPDATE product_variants SET stock_quantity = stock_quantity + ?
WHERE id=?`, qty, variantID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrVariantNotFound
	}
	return nil
}

var (
	_ usecase.CatalogProvider = (*MySQLVariantRepo)(nil)
	_ usecase.InventoryLedger = (*MySQLVariantRepo)(nil)
)
