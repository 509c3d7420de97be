package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"conti/internal/core"
)

const accountColumns = `id, owner_id, name, type, description, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (core.Account, error) {
	var (
		a                core.Account
		typ              string
		created, updated string
	)
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &typ, &a.Description, &created, &updated); err != nil {
		return core.Account{}, err
	}
	a.Type = core.AccountType(typ)
	var err error
	if a.CreatedAt, err = parseTimestamp(created); err != nil {
		return core.Account{}, err
	}
	if a.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return core.Account{}, err
	}
	return a, nil
}

func (q *Queries) CreateAccount(ctx context.Context, a core.Account) error {
	_, err := q.exec(ctx, `INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.OwnerID, a.Name, string(a.Type), a.Description,
		formatTimestamp(a.CreatedAt), formatTimestamp(a.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetAccount returns the account only if it belongs to owner.
func (q *Queries) GetAccount(ctx context.Context, owner, id string) (core.Account, error) {
	row := q.queryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE owner_id = ? AND id = ?`, owner, id)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, ErrNoRows
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (q *Queries) ListAccounts(ctx context.Context, owner string) ([]core.Account, error) {
	rows, err := q.query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE owner_id = ? ORDER BY name ASC, created_at ASC`, owner)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]core.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

func (q *Queries) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := q.exec(ctx, `UPDATE accounts SET name = ?, type = ?, description = ?, updated_at = ? WHERE owner_id = ? AND id = ?`,
		a.Name, string(a.Type), a.Description, formatTimestamp(a.UpdatedAt), a.OwnerID, a.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return affectedOne(res)
}

// DeleteAccount removes the account together with every row booked on it.
// Transfer rows on other accounts keep their amounts and lose the
// counterparty reference. Must run inside a transaction.
func (q *Queries) DeleteAccount(ctx context.Context, owner, id string, now time.Time) error {
	if _, err := q.exec(ctx, `UPDATE transactions SET counterparty_account_id = NULL, updated_at = ? WHERE owner_id = ? AND counterparty_account_id = ? AND account_id <> ?`,
		formatTimestamp(now), owner, id, id); err != nil {
		return fmt.Errorf("detach counterparty rows: %w", err)
	}
	if _, err := q.exec(ctx, `DELETE FROM transactions WHERE owner_id = ? AND account_id = ?`, owner, id); err != nil {
		return fmt.Errorf("delete account transactions: %w", err)
	}
	res, err := q.exec(ctx, `DELETE FROM accounts WHERE owner_id = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return affectedOne(res)
}

// AccountBalance sums the signed effect of every row on the account, in cents.
func (q *Queries) AccountBalance(ctx context.Context, owner, id string) (int64, error) {
	var cents int64
	err := q.queryRow(ctx, `
SELECT CAST(COALESCE(SUM(CASE
    WHEN type = 'income' THEN amount_cents
    WHEN type = 'expense' THEN -amount_cents
    WHEN direction = 'in' THEN amount_cents
    ELSE -(amount_cents + fee_cents)
END), 0) AS BIGINT)
FROM transactions
WHERE owner_id = ? AND account_id = ?`, owner, id).Scan(&cents)
	if err != nil {
		return 0, fmt.Errorf("account balance: %w", err)
	}
	return cents, nil
}
