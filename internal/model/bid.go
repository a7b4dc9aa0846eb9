package model

import (
	"errors"
	"time"
)

// MinIncrementPercent is how far a bid must exceed the current price.
const MinIncrementPercent = 5

var (
	ErrBidTooLow     = errors.New("bid below minimum")
	ErrOwnItem       = errors.New("sellers cannot bid on their own items")
	ErrBiddingClosed = errors.New("item is not open for bidding")
)

// Bid is an offer on an approved item.
type Bid struct {
	ID        int64     `json:"id" db:"id"`
	ItemID    int64     `json:"item_id" db:"item_id"`
	BidderID  int64     `json:"bidder_id" db:"bidder_id"`
	Bidder    string    `json:"bidder" db:"bidder"`
	Amount    int64     `json:"amount" db:"amount"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// MinimumBid returns the lowest acceptable bid when the current price is
// current: current plus MinIncrementPercent, rounded up, and never less
// than one cent more.
func MinimumBid(current int64) int64 {
	inc := (current*MinIncrementPercent + 99) / 100
	if inc < 1 {
		inc = 1
	}
	return current + inc
}
