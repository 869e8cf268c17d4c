package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	domain "github.com/son261103/api-sell-clothes-v1--sub000/internal/entity"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/usecase"
)

// MySQLCartRepo is the checkout's read/clear view of the cart tables the
// storefront maintains.
type MySQLCartRepo struct{ db *sql.DB }

func NewMySQLCartRepo(db *sql.DB) *MySQLCartRepo { return &MySQLCartRepo{db: db} }

func (r *MySQLCartRepo) Items(ctx context.Context, userID int64) ([]domain.CartItem, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `
SELECT ci.variant_id, ci.quantity, ci.is_selected
FROM cart_items ci
JOIN carts c ON ci.cart_id = c.id
WHERE c.user_id=?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var it domain.CartItem
		if err := rows.Scan(&it.VariantID, &it.Quantity, &it.Selected); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ClearSelected removes the checked-out variants from the user's cart.
func (r *MySQLCartRepo) ClearSelected(ctx context.Context, userID int64, variantIDs []int64) error {
	if len(variantIDs) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(variantIDs)), ",")
	args := make([]any, 0, len(variantIDs)+1)
	args = append(args, userID)
	for _, id := range variantIDs {
		args = append(args, id)
	}
	_, err := conn(ctx, r.db).ExecContext(ctx, `
DELETE ci FROM cart_items ci
JOIN carts c ON ci.cart_id = c.id
WHERE c.user_id=? AND ci.variant_id IN (`+placeholders+`)`, args...)
	return err
}

var _ usecase.CartProvider = (*MySQLCartRepo)(nil)

// MySQLAddressRepo resolves shipping addresses for ownership checks.
type MySQLAddressRepo struct{ db *sql.DB }

func NewMySQLAddressRepo(db *sql.DB) *MySQLAddressRepo { return &MySQLAddressRepo{db: db} }

func (r *MySQLAddressRepo) GetAddress(ctx context.Context, id int64) (*domain.Address, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `
SELECT id,user_id,recipient,phone,address_line FROM addresses WHERE id=?`, id)
	var a domain.Address
	err := row.Scan(&a.ID, &a.UserID, &a.Recipient, &a.Phone, &a.AddressLine)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAddressNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

var _ usecase.AddressProvider = (*MySQLAddressRepo)(nil)
