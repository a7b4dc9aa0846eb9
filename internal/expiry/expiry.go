// Package expiry closes auctions whose end time has passed.
package expiry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron"

	"github.com/erazemk/drazba/internal/store"
)

// DefaultInterval is how often the sweep runs unless configured otherwise.
const DefaultInterval = time.Minute

// Sweeper periodically closes ended APPROVED listings: SOLD when they drew
// a bid, EXPIRED otherwise.
type Sweeper struct {
	db       *sqlx.DB
	interval time.Duration
	now      func() time.Time
	cron     *cron.Cron
}

// NewSweeper returns a sweeper that runs every interval once started.
func NewSweeper(db *sqlx.DB, interval time.Duration) *Sweeper {
	return &Sweeper{
		db:       db,
		interval: interval,
		now:      time.Now,
	}
}

// Result counts the listings one sweep closed.
type Result struct {
	Sold    int64
	Expired int64
}

// Sweep closes ended listings once.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	now := s.now()

	var res Result
	var err error
	if res.Sold, err = store.SellItems(ctx, s.db, now); err != nil {
		return Result{}, err
	}
	if res.Expired, err = store.ExpireItems(ctx, s.db, now); err != nil {
		return res, err
	}

	if res.Sold > 0 || res.Expired > 0 {
		slog.Info("closed listings", "sold", res.Sold, "expired", res.Expired)
	}
	return res, nil
}

// Start schedules the sweep. It returns immediately.
func (s *Sweeper) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("expiry interval must be positive, got %s", s.interval)
	}

	c := cron.New()
	err := c.AddFunc("@every "+s.interval.String(), func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			slog.Error("expiry sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling expiry sweep: %w", err)
	}
	c.Start()
	s.cron = c

	slog.Info("expiry sweep scheduled", "interval", s.interval)
	return nil
}

// Stop halts the schedule. A sweep already running is not interrupted.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
