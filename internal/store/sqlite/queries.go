package sqlite

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type TransactionRow struct {
	Seq         int64
	UserName    string
	ID          string
	Description string
	AmountCents int64
	Type        string
	ExpenseType string
	Category    string
	OccurredAt  int64
}

const listTransactions = `
SELECT seq, user_name, id, description, amount_cents, type, expense_type, category, occurred_at
FROM transactions
WHERE user_name = ?
ORDER BY seq DESC
`

func (q *Queries) ListTransactions(ctx context.Context, userName string) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions, userName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(
			&i.Seq,
			&i.UserName,
			&i.ID,
			&i.Description,
			&i.AmountCents,
			&i.Type,
			&i.ExpenseType,
			&i.Category,
			&i.OccurredAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const transactionExists = `
SELECT COUNT(1) FROM transactions WHERE user_name = ? AND id = ?
`

func (q *Queries) TransactionExists(ctx context.Context, userName, id string) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, transactionExists, userName, id).Scan(&n)
	return n > 0, err
}

const insertTransaction = `
INSERT INTO transactions (user_name, id, description, amount_cents, type, expense_type, category, occurred_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertTransactionParams struct {
	UserName    string
	ID          string
	Description string
	AmountCents int64
	Type        string
	ExpenseType string
	Category    string
	OccurredAt  int64
}

func (q *Queries) InsertTransaction(ctx context.Context, arg InsertTransactionParams) error {
	_, err := q.db.ExecContext(ctx, insertTransaction,
		arg.UserName,
		arg.ID,
		arg.Description,
		arg.AmountCents,
		arg.Type,
		arg.ExpenseType,
		arg.Category,
		arg.OccurredAt,
	)
	return err
}

const deleteTransaction = `
DELETE FROM transactions WHERE user_name = ? AND id = ?
`

func (q *Queries) DeleteTransaction(ctx context.Context, userName, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTransaction, userName, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteUserTransactions = `
DELETE FROM transactions WHERE user_name = ?
`

func (q *Queries) DeleteUserTransactions(ctx context.Context, userName string) error {
	_, err := q.db.ExecContext(ctx, deleteUserTransactions, userName)
	return err
}
