package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/glagol-app/glagol/internal/db"
	"github.com/glagol-app/glagol/internal/task"
)

func scanCategory(scanner interface{ Scan(...any) error }) (*task.Category, error) {
	var cat task.Category
	var handler sql.NullString
	var parentID sql.NullInt64
	if err := scanner.Scan(&cat.ID, &cat.Name, &handler, &parentID); err != nil {
		return nil, err
	}
	if handler.Valid {
		cat.Handler = task.HandlerType(handler.String)
	}
	if parentID.Valid {
		cat.ParentID = &parentID.Int64
	}
	return &cat, nil
}

func (s *SQLStore) CategoryByID(ctx context.Context, id int64) (*task.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, handler_type, parent_id
		FROM categories WHERE id=$1`, id)
	cat, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %d: %w", id, ErrNotFound)
	}
	return cat, err
}

// RootCategories lists the top-level nodes of the content tree.
func (s *SQLStore) RootCategories(ctx context.Context) ([]task.Category, error) {
	return s.listCategories(ctx, `SELECT id, name, handler_type, parent_id
		FROM categories WHERE parent_id IS NULL ORDER BY sort_order, id`)
}

// ChildCategories lists the direct children of a node.
func (s *SQLStore) ChildCategories(ctx context.Context, parentID int64) ([]task.Category, error) {
	return s.listCategories(ctx, `SELECT id, name, handler_type, parent_id
		FROM categories WHERE parent_id=$1 ORDER BY sort_order, id`, parentID)
}

func (s *SQLStore) listCategories(ctx context.Context, query string, args ...any) ([]task.Category, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []task.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cat)
	}
	return out, rows.Err()
}

// CreateCategory inserts a content tree node and returns its id.
func (s *SQLStore) CreateCategory(ctx context.Context, name string, handler task.HandlerType, parentID *int64, sortOrder int) (int64, error) {
	var h any
	if handler != "" {
		h = string(handler)
	}
	var pid any
	if parentID != nil {
		pid = *parentID
	}
	return s.insertReturningID(ctx,
		`INSERT INTO categories (name, handler_type, parent_id, sort_order) VALUES ($1,$2,$3,$4)`,
		name, h, pid, sortOrder)
}

// insertReturningID papers over the drivers' id reporting: pgx does not
// support LastInsertId, so postgres goes through RETURNING.
func (s *SQLStore) insertReturningID(ctx context.Context, query string, args ...any) (int64, error) {
	if s.driver == db.DriverPostgres {
		var id int64
		err := s.db.QueryRowContext(ctx, query+` RETURNING id`, args...).Scan(&id)
		return id, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
