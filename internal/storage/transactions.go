package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"conti/internal/core"
)

const transactionColumns = `seq, id, owner_id, account_id, type, category_id, counterparty_account_id,
    direction, group_id, note, amount_cents, fee_cents, date, time, created_at, updated_at`

// TransactionFilter selects rows of one account. Empty fields do not filter.
// Dates are inclusive YYYY-MM-DD bounds.
type TransactionFilter struct {
	Owner      string
	AccountID  string
	CategoryID string
	DateStart  string
	DateEnd    string
	Limit      int
	Offset     int
}

func (f TransactionFilter) where() (string, []any) {
	clause := ` WHERE owner_id = ? AND account_id = ?`
	args := []any{f.Owner, f.AccountID}
	if f.CategoryID != "" {
		clause += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.DateStart != "" {
		clause += ` AND date >= ?`
		args = append(args, f.DateStart)
	}
	if f.DateEnd != "" {
		clause += ` AND date <= ?`
		args = append(args, f.DateEnd)
	}
	return clause, args
}

type transactionRow struct {
	seq                     int64
	id, owner, account, typ string
	category, counterparty  sql.NullString
	direction, group        sql.NullString
	note                    string
	amountCents, feeCents   int64
	date, tod               string
	created, updated        string
}

func (r transactionRow) toCore() (core.Transaction, error) {
	date, err := core.ParseDate(r.date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("row %s: %w", r.id, err)
	}
	tod, err := core.ParseTimeOfDay(r.tod)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("row %s: %w", r.id, err)
	}
	t := core.Transaction{
		ID:        r.id,
		OwnerID:   r.owner,
		Note:      r.note,
		Amount:    core.Money{Cents: r.amountCents},
		Date:      date,
		Time:      tod,
		AccountID: r.account,
		Seq:       r.seq,
	}
	switch core.TransactionType(r.typ) {
	case core.TypeIncome:
		t.Detail = core.IncomeDetail{CategoryID: r.category.String}
	case core.TypeExpense:
		t.Detail = core.ExpenseDetail{CategoryID: r.category.String}
	case core.TypeTransfer:
		t.Detail = core.TransferDetail{
			CounterpartyAccountID: r.counterparty.String,
			Fee:                   core.Money{Cents: r.feeCents},
			Direction:             core.Direction(r.direction.String),
			GroupID:               r.group.String,
		}
	default:
		return core.Transaction{}, fmt.Errorf("row %s: unknown type %q", r.id, r.typ)
	}
	if t.CreatedAt, err = parseTimestamp(r.created); err != nil {
		return core.Transaction{}, err
	}
	if t.UpdatedAt, err = parseTimestamp(r.updated); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var r transactionRow
	if err := row.Scan(&r.seq, &r.id, &r.owner, &r.account, &r.typ, &r.category, &r.counterparty,
		&r.direction, &r.group, &r.note, &r.amountCents, &r.feeCents, &r.date, &r.tod, &r.created, &r.updated); err != nil {
		return core.Transaction{}, err
	}
	return r.toCore()
}

// detailColumns flattens the variant into its nullable columns.
func detailColumns(t core.Transaction) (category, counterparty, direction, group sql.NullString, feeCents int64) {
	switch d := t.Detail.(type) {
	case core.IncomeDetail:
		category = nullString(d.CategoryID)
	case core.ExpenseDetail:
		category = nullString(d.CategoryID)
	case core.TransferDetail:
		counterparty = nullString(d.CounterpartyAccountID)
		direction = nullString(string(d.Direction))
		group = nullString(d.GroupID)
		feeCents = d.Fee.Cents
	}
	return
}

// CreateTransaction inserts one row and returns its insertion sequence.
func (q *Queries) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	category, counterparty, direction, group, fee := detailColumns(t)
	var seq int64
	err := q.queryRow(ctx, `
INSERT INTO transactions (id, owner_id, account_id, type, category_id, counterparty_account_id,
    direction, group_id, note, amount_cents, fee_cents, date, time, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING seq`,
		t.ID, t.OwnerID, t.AccountID, string(t.Type()), category, counterparty,
		direction, group, t.Note, t.Amount.Cents, fee, t.Date.String(), t.Time.String(),
		formatTimestamp(t.CreatedAt), formatTimestamp(t.UpdatedAt)).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	return seq, nil
}

// GetTransaction returns the row only if it belongs to owner.
func (q *Queries) GetTransaction(ctx context.Context, owner, id string) (core.Transaction, error) {
	row := q.queryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE owner_id = ? AND id = ?`, owner, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNoRows
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// UpdateTransaction rewrites every mutable column of one row. The insertion
// sequence and creation time are kept.
func (q *Queries) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	category, counterparty, direction, group, fee := detailColumns(t)
	res, err := q.exec(ctx, `
UPDATE transactions SET account_id = ?, type = ?, category_id = ?, counterparty_account_id = ?,
    direction = ?, group_id = ?, note = ?, amount_cents = ?, fee_cents = ?, date = ?, time = ?, updated_at = ?
WHERE owner_id = ? AND id = ?`,
		t.AccountID, string(t.Type()), category, counterparty,
		direction, group, t.Note, t.Amount.Cents, fee, t.Date.String(), t.Time.String(), formatTimestamp(t.UpdatedAt),
		t.OwnerID, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return affectedOne(res)
}

func (q *Queries) DeleteTransaction(ctx context.Context, owner, id string) error {
	res, err := q.exec(ctx, `DELETE FROM transactions WHERE owner_id = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return affectedOne(res)
}

// ListTransactions returns a window of rows, most recent first. Rows with the
// same date and time are ordered by insertion sequence, newest first.
func (q *Queries) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	where, args := f.where()
	query := `SELECT ` + transactionColumns + ` FROM transactions` + where +
		` ORDER BY date DESC, time DESC, seq DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// CountTransactions counts the rows matching f, ignoring its window.
func (q *Queries) CountTransactions(ctx context.Context, f TransactionFilter) (int, error) {
	where, args := f.where()
	var n int64
	if err := q.queryRow(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return int(n), nil
}

// CountTransactionsByGroup counts the rows left of a transfer.
func (q *Queries) CountTransactionsByGroup(ctx context.Context, owner, groupID string) (int, error) {
	var n int64
	if err := q.queryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE owner_id = ? AND group_id = ?`, owner, groupID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transfer rows: %w", err)
	}
	return int(n), nil
}
