package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/volatiletech/null"

	"github.com/erazemk/drazba/internal/db"
	"github.com/erazemk/drazba/internal/model"
)

func TestPlaceBid(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	f := seedItems(t, database)
	now := time.Now()

	bidder, _ := CreateUser(ctx, database, "bidder", "hash", model.RoleBidder)

	// Starting price is 1000, so the first bid must reach 1050.
	_, err := PlaceBid(ctx, database, f.vase, bidder.ID, 1049, now)
	if !errors.Is(err, model.ErrBidTooLow) {
		t.Fatalf("expected ErrBidTooLow, got %v", err)
	}

	bid, err := PlaceBid(ctx, database, f.vase, bidder.ID, 1050, now)
	if err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}
	if bid.Amount != 1050 || bid.ItemID != f.vase || bid.BidderID != bidder.ID {
		t.Errorf("unexpected bid: %+v", bid)
	}
	if bid.Bidder != "bidder" {
		t.Errorf("expected bidder name, got %q", bid.Bidder)
	}

	// The next bid is measured from 1050: 1050 + ceil(52.5) = 1103.
	if _, err := PlaceBid(ctx, database, f.vase, f.otherSeller, 1102, now); !errors.Is(err, model.ErrBidTooLow) {
		t.Errorf("expected ErrBidTooLow below 1103, got %v", err)
	}
	if _, err := PlaceBid(ctx, database, f.vase, f.otherSeller, 1103, now); err != nil {
		t.Fatalf("PlaceBid by other seller: %v", err)
	}

	item, _ := GetItem(ctx, database, f.vase)
	if !item.CurrentBid.Valid || item.CurrentBid.Int64 != 1103 {
		t.Errorf("expected current bid 1103, got %+v", item.CurrentBid)
	}

	bids, err := ListBidsByItem(ctx, database, f.vase)
	if err != nil {
		t.Fatalf("ListBidsByItem: %v", err)
	}
	if len(bids) != 2 || bids[0].Amount != 1103 || bids[1].Amount != 1050 {
		t.Errorf("expected bids highest first, got %+v", bids)
	}
}

func TestPlaceBidRejections(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	f := seedItems(t, database)
	now := time.Now()

	bidder, _ := CreateUser(ctx, database, "bidder", "hash", model.RoleBidder)
	pending, _ := CreateItem(ctx, database, model.Item{Name: "Pending", SellerID: f.seller})
	timed, _ := CreateItem(ctx, database, model.Item{
		Name:     "Timed",
		SellerID: f.seller,
		EndsAt:   null.TimeFrom(now.Add(time.Hour)),
	})
	UpdateItemStatus(ctx, database, timed.ID, model.ItemStatusApproved)

	tests := []struct {
		name   string
		itemID int64
		bidder int64
		at     time.Time
		want   error
	}{
		{"missing item", 999, bidder.ID, now, ErrNotFound},
		{"pending item", pending.ID, bidder.ID, now, model.ErrBiddingClosed},
		{"sold item", f.lamp, bidder.ID, now, model.ErrBiddingClosed},
		{"after end", timed.ID, bidder.ID, now.Add(2 * time.Hour), model.ErrBiddingClosed},
		{"own item", f.vase, f.seller, now, model.ErrOwnItem},
	}
	for _, tt := range tests {
		_, err := PlaceBid(ctx, database, tt.itemID, tt.bidder, 1_000_000, tt.at)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}

	if _, err := PlaceBid(ctx, database, timed.ID, bidder.ID, 1_000_000, now); err != nil {
		t.Errorf("bid before end: %v", err)
	}
}

func TestListBidsByItemEmpty(t *testing.T) {
	database := db.NewTestDB(t)
	f := seedItems(t, database)

	bids, err := ListBidsByItem(context.Background(), database, f.novel)
	if err != nil {
		t.Fatalf("ListBidsByItem: %v", err)
	}
	if bids == nil || len(bids) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", bids)
	}
}

func TestSellItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	f := seedItems(t, database)
	now := time.Now()

	bidder, _ := CreateUser(ctx, database, "bidder", "hash", model.RoleBidder)
	auction := func(name string) int64 {
		t.Helper()
		item, err := CreateItem(ctx, database, model.Item{
			Name:          name,
			StartingPrice: 100,
			SellerID:      f.seller,
			EndsAt:        null.TimeFrom(now.Add(time.Minute)),
		})
		if err != nil {
			t.Fatalf("CreateItem: %v", err)
		}
		UpdateItemStatus(ctx, database, item.ID, model.ItemStatusApproved)
		return item.ID
	}
	withBid := auction("With bid")
	without := auction("Without bid")

	if _, err := PlaceBid(ctx, database, withBid, bidder.ID, 200, now); err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}

	later := now.Add(time.Hour)
	sold, err := SellItems(ctx, database, later)
	if err != nil {
		t.Fatalf("SellItems: %v", err)
	}
	if sold != 1 {
		t.Errorf("expected 1 sold, got %d", sold)
	}
	expired, _ := ExpireItems(ctx, database, later)
	if expired != 1 {
		t.Errorf("expected 1 expired, got %d", expired)
	}

	if got, _ := GetItem(ctx, database, withBid); got.Status != model.ItemStatusSold {
		t.Errorf("expected SOLD, got %s", got.Status)
	}
	if got, _ := GetItem(ctx, database, without); got.Status != model.ItemStatusExpired {
		t.Errorf("expected EXPIRED, got %s", got.Status)
	}
}
