package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null"

	"github.com/erazemk/drazba/internal/metrics"
	"github.com/erazemk/drazba/internal/model"
)

// itemSelect loads items together with their category and highest bid. The
// join is LEFT so items without a category are still returned.
const itemSelect = `
SELECT i.id AS id, i.name AS name, COALESCE(i.description, '') AS description,
       i.starting_price AS starting_price, COALESCE(i.image_mime, '') AS image_mime,
       i.status AS status, i.category_id AS category_id, i.seller_id AS seller_id,
       i.ends_at AS ends_at, i.created_at AS created_at, i.updated_at AS updated_at,
       (SELECT MAX(b.amount) FROM bids b WHERE b.item_id = i.id) AS current_bid,
       c.id AS cat_id, c.name AS cat_name, c.description AS cat_description,
       c.created_at AS cat_created_at
FROM items i
LEFT JOIN categories c ON c.id = i.category_id`

// itemRow is one row of itemSelect.
type itemRow struct {
	model.Item
	CatID          null.Int64  `db:"cat_id"`
	CatName        null.String `db:"cat_name"`
	CatDescription null.String `db:"cat_description"`
	CatCreatedAt   null.Time   `db:"cat_created_at"`
}

func (r *itemRow) toItem() model.Item {
	item := r.Item
	if r.CatID.Valid {
		item.Category = &model.Category{
			ID:          r.CatID.Int64,
			Name:        r.CatName.String,
			Description: r.CatDescription.String,
			CreatedAt:   r.CatCreatedAt.Time,
		}
	}
	return item
}

func selectItems(ctx context.Context, db *sqlx.DB, query string, args ...any) ([]model.Item, error) {
	var rows []itemRow
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	items := make([]model.Item, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].toItem())
	}
	return items, nil
}

// CreateItem creates a new listing in PENDING status.
func CreateItem(ctx context.Context, db *sqlx.DB, item model.Item) (*model.Item, error) {
	// ExpireItems compares end times as text, so store them in UTC.
	if item.EndsAt.Valid {
		item.EndsAt.Time = item.EndsAt.Time.UTC()
	}

	result, err := db.NamedExecContext(ctx,
		`INSERT INTO items (name, description, starting_price, category_id, seller_id, ends_at)
		 VALUES (:name, :description, :starting_price, :category_id, :seller_id, :ends_at)`,
		item,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item with its category by ID.
func GetItem(ctx context.Context, db *sqlx.DB, id int64) (*model.Item, error) {
	var row itemRow
	err := db.GetContext(ctx, &row, itemSelect+` WHERE i.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item := row.toItem()
	return &item, nil
}

// ListItemsByStatus returns every item in the given status.
func ListItemsByStatus(ctx context.Context, db *sqlx.DB, status model.ItemStatus) ([]model.Item, error) {
	metrics.ItemQueries.WithLabelValues("by_status").Inc()

	items, err := selectItems(ctx, db, itemSelect+` WHERE i.status = ? ORDER BY i.id`, status)
	if err != nil {
		return nil, fmt.Errorf("listing items by status: %w", err)
	}
	return items, nil
}

// ListItemsByFilters returns items matching every valid field of f, with
// categories loaded. The zero filter returns all items.
func ListItemsByFilters(ctx context.Context, db *sqlx.DB, f model.ItemFilter) ([]model.Item, error) {
	metrics.ItemQueries.WithLabelValues("by_filters").Inc()

	query, args, err := db.BindNamed(itemSelect+`
		WHERE (:status IS NULL OR i.status = :status)
		  AND (:category_id IS NULL OR i.category_id = :category_id)
		ORDER BY i.id`,
		map[string]any{
			"status":      f.Status,
			"category_id": f.CategoryID,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("binding item filters: %w", err)
	}

	items, err := selectItems(ctx, db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items by filters: %w", err)
	}
	return items, nil
}

// ListItemsBySeller returns every item listed by the given seller.
func ListItemsBySeller(ctx context.Context, db *sqlx.DB, sellerID int64) ([]model.Item, error) {
	metrics.ItemQueries.WithLabelValues("by_seller").Inc()

	items, err := selectItems(ctx, db, itemSelect+` WHERE i.seller_id = ? ORDER BY i.id`, sellerID)
	if err != nil {
		return nil, fmt.Errorf("listing items by seller: %w", err)
	}
	return items, nil
}

// UpdateItemStatus moves an item to next if its current status allows it.
// Returns ErrNotFound for a missing item and model.ErrInvalidTransition when
// the move is not allowed or the status changed concurrently.
func UpdateItemStatus(ctx context.Context, db *sqlx.DB, id int64, next model.ItemStatus) error {
	if !next.Valid() {
		return model.ErrInvalidStatus
	}

	var current model.ItemStatus
	err := db.GetContext(ctx, &current, `SELECT status FROM items WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("getting item status: %w", err)
	}

	if !current.CanTransition(next) {
		return fmt.Errorf("%s to %s: %w", current, next, model.ErrInvalidTransition)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		next, id, current,
	)
	if err != nil {
		return fmt.Errorf("updating item status: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating item status: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("status changed concurrently: %w", model.ErrInvalidTransition)
	}
	return nil
}

// SellItems marks approved listings whose auction ended at or before now
// and that received at least one bid as sold. Returns the number changed.
func SellItems(ctx context.Context, db *sqlx.DB, now time.Time) (int64, error) {
	n, err := closeEnded(ctx, db, now, model.ItemStatusSold, `EXISTS`)
	if err != nil {
		return 0, fmt.Errorf("selling items: %w", err)
	}
	metrics.ItemsSold.Add(float64(n))
	return n, nil
}

// ExpireItems marks approved listings whose auction ended at or before now
// without any bids as expired. Returns the number changed.
func ExpireItems(ctx context.Context, db *sqlx.DB, now time.Time) (int64, error) {
	n, err := closeEnded(ctx, db, now, model.ItemStatusExpired, `NOT EXISTS`)
	if err != nil {
		return 0, fmt.Errorf("expiring items: %w", err)
	}
	metrics.ItemsExpired.Add(float64(n))
	return n, nil
}

// closeEnded moves ended approved items to status. exists is EXISTS or
// NOT EXISTS and selects items with or without bids.
func closeEnded(ctx context.Context, db *sqlx.DB, now time.Time, status model.ItemStatus, exists string) (int64, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE status = ? AND ends_at IS NOT NULL AND ends_at <= ?
		   AND `+exists+` (SELECT 1 FROM bids b WHERE b.item_id = items.id)`,
		status, model.ItemStatusApproved, now.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// SetItemImage sets an item's image data.
func SetItemImage(ctx context.Context, db *sqlx.DB, id int64, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return nil
}

// GetItemImage returns an item's image data and MIME type.
func GetItemImage(ctx context.Context, db *sqlx.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}
