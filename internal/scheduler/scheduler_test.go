package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"campus-auction/internal/models"

	"github.com/stretchr/testify/require"
)

// fakeSweeper scripts sweep listings and records what the scheduler drives.
type fakeSweeper struct {
	mu sync.Mutex

	expiring []models.Auction
	overdue  []models.Auction

	listExpiringErr error
	listOverdueErr  error
	notifyErr       map[string]error
	expireErr       map[string]error

	reminded []string
	expired  []string
}

func (f *fakeSweeper) ExpiringSoon(_ context.Context, _ time.Time, _ time.Duration) ([]models.Auction, error) {
	if f.listExpiringErr != nil {
		return nil, f.listExpiringErr
	}
	return f.expiring, nil
}

func (f *fakeSweeper) OverdueAuctions(_ context.Context, _ time.Time) ([]models.Auction, error) {
	if f.listOverdueErr != nil {
		return nil, f.listOverdueErr
	}
	return f.overdue, nil
}

func (f *fakeSweeper) NotifySellerExpiring(_ context.Context, auction models.Auction, _ time.Time) error {
	if err := f.notifyErr[auction.AuctionID]; err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminded = append(f.reminded, auction.AuctionID)
	return nil
}

func (f *fakeSweeper) ExpireAuction(_ context.Context, auctionID string, _ time.Time) (models.Auction, bool, error) {
	if err := f.expireErr[auctionID]; err != nil {
		return models.Auction{}, false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired = append(f.expired, auctionID)
	return models.Auction{AuctionID: auctionID, Status: models.StatusExpired}, true, nil
}

func TestScheduler_ExpiringSweepDedup(t *testing.T) {
	sweeper := &fakeSweeper{expiring: []models.Auction{
		{AuctionID: "a1", Seller: "seller1"},
		{AuctionID: "a2", Seller: "seller2"},
	}}
	sched := New(sweeper, Config{})
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	sched.now = func() time.Time { return base }

	sched.RunExpiringSweep(context.Background())
	require.Equal(t, []string{"a1", "a2"}, sweeper.reminded)

	// same day: a second sweep must not repeat the reminders
	sched.now = func() time.Time { return base.Add(time.Hour) }
	sched.RunExpiringSweep(context.Background())
	require.Equal(t, []string{"a1", "a2"}, sweeper.reminded)

	// next day opens a fresh bucket
	sched.now = func() time.Time { return base.Add(24 * time.Hour) }
	sched.RunExpiringSweep(context.Background())
	require.Equal(t, []string{"a1", "a2", "a1", "a2"}, sweeper.reminded)
}

func TestScheduler_ExpiringSweepContinuesPastFailure(t *testing.T) {
	sweeper := &fakeSweeper{
		expiring: []models.Auction{
			{AuctionID: "a1", Seller: "seller1"},
			{AuctionID: "a2", Seller: "seller2"},
			{AuctionID: "a3", Seller: "seller3"},
		},
		notifyErr: map[string]error{"a2": errors.New("dispatch failed")},
	}
	sched := New(sweeper, Config{})

	sched.RunExpiringSweep(context.Background())
	require.Equal(t, []string{"a1", "a3"}, sweeper.reminded)
}

func TestScheduler_ExpiringSweepListingFailure(t *testing.T) {
	sweeper := &fakeSweeper{listExpiringErr: errors.New("store down")}
	sched := New(sweeper, Config{})

	sched.RunExpiringSweep(context.Background())
	require.Empty(t, sweeper.reminded)
}

func TestScheduler_ExpiredSweep(t *testing.T) {
	sweeper := &fakeSweeper{
		overdue: []models.Auction{
			{AuctionID: "a1"},
			{AuctionID: "a2"},
			{AuctionID: "a3"},
		},
		expireErr: map[string]error{"a1": errors.New("tx conflict")},
	}
	sched := New(sweeper, Config{})

	sched.RunExpiredSweep(context.Background())
	require.Equal(t, []string{"a2", "a3"}, sweeper.expired)
}

func TestScheduler_DefaultsApplied(t *testing.T) {
	sched := New(&fakeSweeper{}, Config{ExpiredInterval: time.Minute})
	require.Equal(t, time.Hour, sched.cfg.ExpiringInterval)
	require.Equal(t, time.Minute, sched.cfg.ExpiredInterval)
	require.Equal(t, 24*time.Hour, sched.cfg.ExpiringWindow)
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	sweeper := &fakeSweeper{overdue: []models.Auction{{AuctionID: "a1"}}}
	sched := New(sweeper, Config{
		ExpiringInterval: 5 * time.Millisecond,
		ExpiredInterval:  5 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		sweeper.mu.Lock()
		defer sweeper.mu.Unlock()
		return len(sweeper.expired) > 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
