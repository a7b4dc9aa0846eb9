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

const bidSelect = `
SELECT b.id, b.item_id, b.bidder_id, u.username AS bidder, b.amount, b.created_at
FROM bids b
JOIN users u ON u.id = b.bidder_id`

// biddable is the part of an item PlaceBid checks.
type biddable struct {
	Status        model.ItemStatus `db:"status"`
	SellerID      int64            `db:"seller_id"`
	StartingPrice int64            `db:"starting_price"`
	EndsAt        null.Time        `db:"ends_at"`
}

// PlaceBid records a bid of amount on an item. The item must be APPROVED
// and still running at now, the bidder must not be its seller, and amount
// must reach model.MinimumBid of the current price (the highest bid, or the
// starting price before any bids). Returns ErrNotFound for a missing item.
func PlaceBid(ctx context.Context, db *sqlx.DB, itemID, bidderID, amount int64, now time.Time) (*model.Bid, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting bid: %w", err)
	}
	defer tx.Rollback()

	var it biddable
	err = tx.GetContext(ctx, &it,
		`SELECT status, seller_id, starting_price, ends_at FROM items WHERE id = ?`, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting item for bid: %w", err)
	}

	if it.Status != model.ItemStatusApproved {
		return nil, fmt.Errorf("item is %s: %w", it.Status, model.ErrBiddingClosed)
	}
	if it.EndsAt.Valid && !now.Before(it.EndsAt.Time) {
		return nil, fmt.Errorf("auction ended: %w", model.ErrBiddingClosed)
	}
	if it.SellerID == bidderID {
		return nil, model.ErrOwnItem
	}

	var current int64
	err = tx.GetContext(ctx, &current,
		`SELECT COALESCE(MAX(amount), ?) FROM bids WHERE item_id = ?`, it.StartingPrice, itemID)
	if err != nil {
		return nil, fmt.Errorf("getting current bid: %w", err)
	}
	if minimum := model.MinimumBid(current); amount < minimum {
		return nil, fmt.Errorf("minimum bid is %d: %w", minimum, model.ErrBidTooLow)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO bids (item_id, bidder_id, amount) VALUES (?, ?, ?)`,
		itemID, bidderID, amount,
	)
	if err != nil {
		return nil, fmt.Errorf("creating bid: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting bid id: %w", err)
	}

	bid := &model.Bid{}
	if err := tx.GetContext(ctx, bid, bidSelect+` WHERE b.id = ?`, id); err != nil {
		return nil, fmt.Errorf("getting bid: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing bid: %w", err)
	}

	metrics.BidsPlaced.Inc()
	return bid, nil
}

// ListBidsByItem returns an item's bids, highest first.
func ListBidsByItem(ctx context.Context, db *sqlx.DB, itemID int64) ([]model.Bid, error) {
	bids := []model.Bid{}
	err := db.SelectContext(ctx, &bids, bidSelect+` WHERE b.item_id = ? ORDER BY b.amount DESC, b.id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("listing bids: %w", err)
	}
	return bids, nil
}
