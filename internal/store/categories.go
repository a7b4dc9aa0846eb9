package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/drazba/internal/model"
)

const categorySelect = `SELECT id, name, COALESCE(description, '') AS description, created_at FROM categories`

// CreateCategory creates a new category.
func CreateCategory(ctx context.Context, db *sqlx.DB, name, description string) (*model.Category, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO categories (name, description) VALUES (?, ?)`,
		name, description,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("creating category: %w", ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting category id: %w", err)
	}

	return GetCategory(ctx, db, id)
}

// GetCategory returns a category by ID.
func GetCategory(ctx context.Context, db *sqlx.DB, id int64) (*model.Category, error) {
	c := &model.Category{}
	err := db.GetContext(ctx, c, categorySelect+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	return c, nil
}

// ListCategories returns all categories ordered by name.
func ListCategories(ctx context.Context, db *sqlx.DB) ([]model.Category, error) {
	categories := []model.Category{}
	if err := db.SelectContext(ctx, &categories, categorySelect+` ORDER BY name`); err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}

// DeleteCategory removes a category. Its items stay listed without a category.
func DeleteCategory(ctx context.Context, db *sqlx.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
