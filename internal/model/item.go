package model

import (
	"errors"
	"time"

	"github.com/volatiletech/null"
)

// ItemStatus is the lifecycle state of an auction listing.
type ItemStatus string

// Item statuses.
const (
	ItemStatusPending  ItemStatus = "PENDING"
	ItemStatusApproved ItemStatus = "APPROVED"
	ItemStatusRejected ItemStatus = "REJECTED"
	ItemStatusSold     ItemStatus = "SOLD"
	ItemStatusExpired  ItemStatus = "EXPIRED"
)

var (
	ErrInvalidStatus     = errors.New("invalid item status")
	ErrInvalidTransition = errors.New("invalid item status transition")
)

// transitions lists the statuses each status may move to.
var transitions = map[ItemStatus][]ItemStatus{
	ItemStatusPending:  {ItemStatusApproved, ItemStatusRejected},
	ItemStatusApproved: {ItemStatusSold, ItemStatusExpired},
}

// ParseItemStatus validates s and returns it as an ItemStatus.
func ParseItemStatus(s string) (ItemStatus, error) {
	st := ItemStatus(s)
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// Valid reports whether s is a known status.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusPending, ItemStatusApproved, ItemStatusRejected, ItemStatusSold, ItemStatusExpired:
		return true
	}
	return false
}

// CanTransition reports whether an item may move from s to next.
func (s ItemStatus) CanTransition(next ItemStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Item is an auction listing. Category is only set by queries that join it.
// CurrentBid is the highest bid so far, if any.
type Item struct {
	ID            int64      `json:"id" db:"id"`
	Name          string     `json:"name" db:"name"`
	Description   string     `json:"description,omitempty" db:"description"`
	StartingPrice int64      `json:"starting_price" db:"starting_price"`
	ImageMime     string     `json:"image_mime,omitempty" db:"image_mime"`
	Status        ItemStatus `json:"status" db:"status"`
	CategoryID    null.Int64 `json:"category_id" db:"category_id"`
	SellerID      int64      `json:"seller_id" db:"seller_id"`
	EndsAt        null.Time  `json:"ends_at" db:"ends_at"`
	CurrentBid    null.Int64 `json:"current_bid" db:"current_bid"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`

	Category *Category `json:"category,omitempty" db:"-"`
}

// ItemFilter narrows an item listing. A field that is not Valid leaves its
// column unconstrained; valid fields must match exactly.
type ItemFilter struct {
	Status     null.String
	CategoryID null.Int64
}

// WithStatus returns a copy of f constrained to status s.
func (f ItemFilter) WithStatus(s ItemStatus) ItemFilter {
	f.Status = null.StringFrom(string(s))
	return f
}

// WithCategory returns a copy of f constrained to category id.
func (f ItemFilter) WithCategory(id int64) ItemFilter {
	f.CategoryID = null.Int64From(id)
	return f
}
