package repo

import (
	"context"
	"database/sql"
	"errors"

	domain "github.com/son261103/api-sell-clothes-v1--sub000/internal/entity"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/usecase"
)

type MySQLPaymentRepo struct{ db *sql.DB }

func NewMySQLPaymentRepo(db *sql.DB) *MySQLPaymentRepo { return &MySQLPaymentRepo{db: db} }

func (r *MySQLPaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
INSERT INTO payments (id,order_id,method_id,amount,status,transaction_code,payment_url,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,NOW(),NOW())
`, p.ID, p.OrderID, p.MethodID, p.Amount, p.Status, p.TransactionCode, p.PaymentURL)
	return err
}

func (r *MySQLPaymentRepo) GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `
SELECT id,order_id,method_id,amount,status,COALESCE(transaction_code,''),COALESCE(payment_url,''),created_at,updated_at
FROM payments WHERE order_id=?`, orderID)
	var p domain.Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.MethodID, &p.Amount, &p.Status,
		&p.TransactionCode, &p.PaymentURL, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *MySQLPaymentRepo) MarkCompleted(ctx context.Context, id, transactionCode string) error {
	return r.setStatus(ctx, id, domain.PaymentCompleted, transactionCode)
}

func (r *MySQLPaymentRepo) MarkFailed(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, domain.PaymentFailed, "")
}

func (r *MySQLPaymentRepo) setStatus(ctx context.Context, id string, status domain.PaymentStatus, txnCode string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `
UPDATE payments SET status=?, transaction_code=COALESCE(NULLIF(?,''),transaction_code), updated_at=NOW()
WHERE id=?`, status, txnCode, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

// AppendHistory only ever inserts; the audit trail is immutable.
func (r *MySQLPaymentRepo) AppendHistory(ctx context.Context, h *domain.PaymentHistory) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
INSERT INTO payment_histories (payment_id,status,note,created_at)
VALUES (?,?,?,?)`, h.PaymentID, h.Status, h.Note, h.CreatedAt)
	return err
}

var _ usecase.PaymentRepo = (*MySQLPaymentRepo)(nil)

// MySQLPaymentMethodRepo resolves payment methods.
type MySQLPaymentMethodRepo struct{ db *sql.DB }

func NewMySQLPaymentMethodRepo(db *sql.DB) *MySQLPaymentMethodRepo {
	return &MySQLPaymentMethodRepo{db: db}
}

func (r *MySQLPaymentMethodRepo) GetByID(ctx context.Context, id int64) (*domain.PaymentMethod, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx, `
SELECT id,name,code,gateway FROM payment_methods WHERE id=?`, id)
	var m domain.PaymentMethod
	err := row.Scan(&m.ID, &m.Name, &m.Code, &m.Gateway)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.New("payment method not found")
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

var _ usecase.PaymentMethodRepo = (*MySQLPaymentMethodRepo)(nil)
