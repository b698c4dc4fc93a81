// Package scheduler drives time-based auction transitions by periodic
// re-scan instead of per-auction timers. Sweep cadence is tunable and not
// correctness-critical: a late sweep only delays expiry detection, because
// the store re-checks expiry at every bid placement.
package scheduler

import (
	"context"
	"sync"
	"time"

	"campus-auction/internal/models"
	"campus-auction/utils"
)

// AuctionSweeper is the slice of the auction service the scheduler drives.
type AuctionSweeper interface {
	ExpiringSoon(ctx context.Context, now time.Time, within time.Duration) ([]models.Auction, error)
	OverdueAuctions(ctx context.Context, now time.Time) ([]models.Auction, error)
	NotifySellerExpiring(ctx context.Context, auction models.Auction, now time.Time) error
	ExpireAuction(ctx context.Context, auctionID string, now time.Time) (models.Auction, bool, error)
}

// Config tunes the sweep cadences and the expiring-soon window.
type Config struct {
	ExpiringInterval time.Duration // cadence of the expiring-soon sweep
	ExpiredInterval  time.Duration // cadence of the expired sweep
	ExpiringWindow   time.Duration // how far ahead "expiring soon" looks
}

// DefaultConfig mirrors the production cadence: hourly reminders, expiry
// sweep every 15 minutes, 24h reminder window.
func DefaultConfig() Config {
	return Config{
		ExpiringInterval: time.Hour,
		ExpiredInterval:  15 * time.Minute,
		ExpiringWindow:   24 * time.Hour,
	}
}

// Scheduler runs the two sweeps until its context is cancelled. Reminders
// are at-least-once across processes; within one process they are
// deduplicated per auction per day bucket.
type Scheduler struct {
	svc AuctionSweeper
	cfg Config
	now func() time.Time

	mu       sync.Mutex
	reminded map[string]struct{} // key: auctionID + "@" + day bucket
}

// New creates a Scheduler. Zero-valued config fields fall back to defaults.
func New(svc AuctionSweeper, cfg Config) *Scheduler {
	def := DefaultConfig()
	if cfg.ExpiringInterval <= 0 {
		cfg.ExpiringInterval = def.ExpiringInterval
	}
	if cfg.ExpiredInterval <= 0 {
		cfg.ExpiredInterval = def.ExpiredInterval
	}
	if cfg.ExpiringWindow <= 0 {
		cfg.ExpiringWindow = def.ExpiringWindow
	}
	return &Scheduler{
		svc:      svc,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
		reminded: make(map[string]struct{}),
	}
}

// Run blocks, firing sweeps on their cadences, until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	expiring := time.NewTicker(s.cfg.ExpiringInterval)
	defer expiring.Stop()
	expired := time.NewTicker(s.cfg.ExpiredInterval)
	defer expired.Stop()

	utils.Info("scheduler started", map[string]any{
		"expiring_interval": s.cfg.ExpiringInterval.String(),
		"expired_interval":  s.cfg.ExpiredInterval.String(),
		"expiring_window":   s.cfg.ExpiringWindow.String(),
	})

	for {
		select {
		case <-ctx.Done():
			utils.Info("scheduler stopped", nil)
			return
		case <-expiring.C:
			s.RunExpiringSweep(ctx)
		case <-expired.C:
			s.RunExpiredSweep(ctx)
		}
	}
}

// RunExpiringSweep reminds sellers of auctions due within the window. A
// failing auction is logged and skipped; the sweep continues.
func (s *Scheduler) RunExpiringSweep(ctx context.Context) {
	now := s.now()
	auctions, err := s.svc.ExpiringSoon(ctx, now, s.cfg.ExpiringWindow)
	if err != nil {
		utils.Error("expiring sweep: listing failed", map[string]any{"error": err.Error()})
		return
	}

	for _, auction := range auctions {
		if !s.markReminded(auction.AuctionID, now) {
			continue
		}
		if err := s.svc.NotifySellerExpiring(ctx, auction, now); err != nil {
			utils.Error("expiring sweep: notify failed", map[string]any{
				"auction_id": auction.AuctionID,
				"error":      err.Error(),
			})
		}
	}
}

// RunExpiredSweep transitions overdue auctions to expired. A failing auction
// is logged and skipped; the sweep continues.
func (s *Scheduler) RunExpiredSweep(ctx context.Context) {
	now := s.now()
	auctions, err := s.svc.OverdueAuctions(ctx, now)
	if err != nil {
		utils.Error("expired sweep: listing failed", map[string]any{"error": err.Error()})
		return
	}

	for _, auction := range auctions {
		if _, transitioned, err := s.svc.ExpireAuction(ctx, auction.AuctionID, now); err != nil {
			utils.Error("expired sweep: expire failed", map[string]any{
				"auction_id": auction.AuctionID,
				"error":      err.Error(),
			})
		} else if transitioned {
			utils.Info("auction expired", map[string]any{"auction_id": auction.AuctionID})
		}
	}
}

// markReminded records the reminder for this auction's current day bucket and
// reports whether it is the first one. Stale buckets are pruned as a side
// effect, keeping the map bounded by the active auction count.
func (s *Scheduler) markReminded(auctionID string, now time.Time) bool {
	bucket := now.Format("2006-01-02")
	key := auctionID + "@" + bucket

	s.mu.Lock()
	defer s.mu.Unlock()

	for k := range s.reminded {
		if len(k) < len(bucket) || k[len(k)-len(bucket):] != bucket {
			delete(s.reminded, k)
		}
	}
	if _, seen := s.reminded[key]; seen {
		return false
	}
	s.reminded[key] = struct{}{}
	return true
}
