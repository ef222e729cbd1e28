package storage

import (
	"context"
	"database/sql"
)

// Purchase is a row of the purchases table.
type Purchase struct {
	ID         int64
	AccountID  string
	Amount     string
	OccurredOn string
	MessageID  sql.NullString
	CreatedAt  string
}

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// createPurchase returns no row (sql.ErrNoRows) when message_id was already stored.
const createPurchase = `INSERT INTO purchases (account_id, amount, occurred_on, message_id)
VALUES (?, ?, ?, ?)
ON CONFLICT(message_id) DO NOTHING
RETURNING id, account_id, amount, occurred_on, message_id, created_at`

type CreatePurchaseParams struct {
	AccountID  string
	Amount     string
	OccurredOn string
	MessageID  sql.NullString
}

func (q *Queries) CreatePurchase(ctx context.Context, arg CreatePurchaseParams) (Purchase, error) {
	row := q.db.QueryRowContext(ctx, createPurchase, arg.AccountID, arg.Amount, arg.OccurredOn, arg.MessageID)
	var p Purchase
	err := row.Scan(&p.ID, &p.AccountID, &p.Amount, &p.OccurredOn, &p.MessageID, &p.CreatedAt)
	return p, err
}

const getPurchaseByMessageID = `SELECT id, account_id, amount, occurred_on, message_id, created_at
FROM purchases
WHERE message_id = ?`

func (q *Queries) GetPurchaseByMessageID(ctx context.Context, messageID string) (Purchase, error) {
	row := q.db.QueryRowContext(ctx, getPurchaseByMessageID, messageID)
	var p Purchase
	err := row.Scan(&p.ID, &p.AccountID, &p.Amount, &p.OccurredOn, &p.MessageID, &p.CreatedAt)
	return p, err
}

const listPurchases = `SELECT id, account_id, amount, occurred_on, message_id, created_at
FROM purchases
ORDER BY id`

func (q *Queries) ListPurchases(ctx context.Context) ([]Purchase, error) {
	rows, err := q.db.QueryContext(ctx, listPurchases)
	if err != nil {
		return nil, err
	}
	return scanPurchases(rows)
}

const listPurchasesByAccount = `SELECT id, account_id, amount, occurred_on, message_id, created_at
FROM purchases
WHERE account_id = ?
ORDER BY id`

func (q *Queries) ListPurchasesByAccount(ctx context.Context, accountID string) ([]Purchase, error) {
	rows, err := q.db.QueryContext(ctx, listPurchasesByAccount, accountID)
	if err != nil {
		return nil, err
	}
	return scanPurchases(rows)
}

const countPurchases = `SELECT COUNT(*) FROM purchases`

func (q *Queries) CountPurchases(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countPurchases).Scan(&n)
	return n, err
}

func scanPurchases(rows *sql.Rows) ([]Purchase, error) {
	defer rows.Close()
	var items []Purchase
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.ID, &p.AccountID, &p.Amount, &p.OccurredOn, &p.MessageID, &p.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
