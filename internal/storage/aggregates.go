package storage

import (
	"context"
	"fmt"

	"conti/internal/core"
)

// CategoryTotalsFilter selects the rows summarised per category.
type CategoryTotalsFilter struct {
	Owner     string
	AccountID string
	Type      core.CategoryType
	DateStart string
	DateEnd   string
}

// CategoryTotals returns one unsigned total per category referenced by the
// account's rows. Transfers have no category and never appear.
func (q *Queries) CategoryTotals(ctx context.Context, f CategoryTotalsFilter) ([]core.CategorySummary, error) {
	query := `
SELECT c.id, c.name, c.icon, c.type,
    CAST(COALESCE(SUM(t.amount_cents), 0) AS BIGINT), COUNT(t.seq)
FROM transactions t
JOIN categories c ON c.id = t.category_id AND c.owner_id = t.owner_id
WHERE t.owner_id = ? AND t.account_id = ?`
	args := []any{f.Owner, f.AccountID}
	if f.Type != "" {
		query += ` AND c.type = ?`
		args = append(args, string(f.Type))
	}
	if f.DateStart != "" {
		query += ` AND t.date >= ?`
		args = append(args, f.DateStart)
	}
	if f.DateEnd != "" {
		query += ` AND t.date <= ?`
		args = append(args, f.DateEnd)
	}
	query += ` GROUP BY c.id, c.name, c.icon, c.type`

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	out := make([]core.CategorySummary, 0)
	for rows.Next() {
		var (
			s     core.CategorySummary
			typ   string
			cents int64
			count int64
		)
		if err := rows.Scan(&s.CategoryID, &s.Name, &s.Icon, &typ, &cents, &count); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		s.Type = core.CategoryType(typ)
		s.Total = core.Money{Cents: cents}
		s.Count = int(count)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category totals: %w", err)
	}
	return out, nil
}
