package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"conti/internal/core"
)

const categoryColumns = `id, owner_id, name, type, icon, description, created_at, updated_at`

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var (
		c                core.Category
		typ              string
		created, updated string
	)
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &typ, &c.Icon, &c.Description, &created, &updated); err != nil {
		return core.Category{}, err
	}
	c.Type = core.CategoryType(typ)
	var err error
	if c.CreatedAt, err = parseTimestamp(created); err != nil {
		return core.Category{}, err
	}
	if c.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (q *Queries) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := q.exec(ctx, `INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Name, string(c.Type), c.Icon, c.Description,
		formatTimestamp(c.CreatedAt), formatTimestamp(c.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// GetCategory returns the category only if it belongs to owner.
func (q *Queries) GetCategory(ctx context.Context, owner, id string) (core.Category, error) {
	row := q.queryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE owner_id = ? AND id = ?`, owner, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ErrNoRows
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// ListCategories returns the owner's categories by name, optionally limited
// to one type.
func (q *Queries) ListCategories(ctx context.Context, owner string, typ core.CategoryType) ([]core.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE owner_id = ?`
	args := []any{owner}
	if typ != "" {
		query += ` AND type = ?`
		args = append(args, string(typ))
	}
	query += ` ORDER BY name ASC, created_at ASC`

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]core.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func (q *Queries) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := q.exec(ctx, `UPDATE categories SET name = ?, type = ?, icon = ?, description = ?, updated_at = ? WHERE owner_id = ? AND id = ?`,
		c.Name, string(c.Type), c.Icon, c.Description, formatTimestamp(c.UpdatedAt), c.OwnerID, c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return affectedOne(res)
}

func (q *Queries) DeleteCategory(ctx context.Context, owner, id string) error {
	res, err := q.exec(ctx, `DELETE FROM categories WHERE owner_id = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return affectedOne(res)
}

// CountCategoryReferences counts transaction rows pointing at the category.
func (q *Queries) CountCategoryReferences(ctx context.Context, owner, id string) (int64, error) {
	var n int64
	if err := q.queryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE owner_id = ? AND category_id = ?`, owner, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("count category references: %w", err)
	}
	return n, nil
}
