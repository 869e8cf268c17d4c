package repo

import (
	"context"
	"database/sql"

	"github.com/son261103/api-sell-clothes-v1--sub000/internal/usecase"
)

// MySQLOutboxRepo is the transactional event outbox: domain events are
// inserted inside the same transaction as the state change they
// describe, and a relay drains them to the broker afterwards.
type MySQLOutboxRepo struct{ db *sql.DB }

func NewMySQLOutboxRepo(db *sql.DB) *MySQLOutboxRepo { return &MySQLOutboxRepo{db: db} }

func (r *MySQLOutboxRepo) Insert(ctx context.Context, channel string, payload []byte) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
INSERT INTO outbox (channel,payload,created_at)
VALUES (?,?,NOW())
`, channel, payload)
	return err
}

func (r *MySQLOutboxRepo) FetchPending(ctx context.Context, limit int) ([]usecase.OutboxRecord, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `
SELECT id,channel,payload,created_at
FROM outbox WHERE sent_at IS NULL ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []usecase.OutboxRecord
	for rows.Next() {
		var rec usecase.OutboxRecord
		if err := rows.Scan(&rec.ID, &rec.Channel, &rec.Payload, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *MySQLOutboxRepo) MarkSent(ctx context.Context, id int64) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `UPDATE outbox SET sent_at=NOW() WHERE id=?`, id)
	return err
}

var _ usecase.OutboxRepo = (*MySQLOutboxRepo)(nil)
