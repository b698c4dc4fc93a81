package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"campus-auction/internal/auctionerrors"
	model "campus-auction/internal/models"

	"github.com/stretchr/testify/require"
)

// Helper to create a new active Auction
func newAuction(auctionID, itemID, seller string, startPrice, minIncrement int64, expiresAt time.Time) model.Auction {
	return model.Auction{
		AuctionID:      auctionID,
		ItemID:         itemID,
		ItemTitle:      fmt.Sprintf("%s title", itemID),
		Seller:         seller,
		StartPrice:     startPrice,
		MinIncrement:   minIncrement,
		CurrentHighest: startPrice,
		Status:         model.StatusActive,
		CreatedAt:      expiresAt.Add(-48 * time.Hour),
		ExpiresAt:      expiresAt,
	}
}

// Helper to create a new Bid
func newBid(bidID, auctionID, bidder string, amount int64, createdAt time.Time) model.Bid {
	return model.Bid{
		BidID:     bidID,
		AuctionID: auctionID,
		Bidder:    bidder,
		Amount:    amount,
		CreatedAt: createdAt,
	}
}

// Test CreateAuction
func TestMemoryStore_CreateAuction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()

	store := NewMemoryStore()
	require.NoError(t, store.CreateAuction(ctx, newAuction("a1", "item1", "seller1", 100, 10, now.Add(time.Hour))))

	t.Run("duplicate_active_auction_rejected", func(t *testing.T) {
		err := store.CreateAuction(ctx, newAuction("a2", "item1", "seller2", 200, 10, now.Add(time.Hour)))
		require.ErrorIs(t, err, auctionerrors.ErrDuplicateActiveAuction)
	})

	t.Run("other_item_is_fine", func(t *testing.T) {
		require.NoError(t, store.CreateAuction(ctx, newAuction("a3", "item2", "seller1", 100, 10, now.Add(time.Hour))))
	})

	t.Run("new_auction_allowed_after_finalization", func(t *testing.T) {
		sold, err := store.AcceptHighestBid(ctx, "a1", "seller1", now)
		require.ErrorIs(t, err, auctionerrors.ErrNoBids)
		require.Equal(t, model.Auction{}, sold)

		// expire it instead, then the item frees up
		_, transitioned, err := store.MarkExpired(ctx, "a1", now.Add(2*time.Hour))
		require.NoError(t, err)
		require.True(t, transitioned)

		require.NoError(t, store.CreateAuction(ctx, newAuction("a4", "item1", "seller1", 100, 10, now.Add(time.Hour))))
	})
}

// Test TryPlaceBid covering the full rejection taxonomy
func TestMemoryStore_TryPlaceBid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()

	// Table-driven test cases; a fresh store per case keeps them independent
	tests := []struct {
		name      string
		seed      func(store *MemoryStore)
		auctionID string
		bidder    string
		amount    int64
		at        time.Time
		wantError error
		wantPrev  string
	}{
		{
			name: "first_valid_bid",
			seed: func(store *MemoryStore) {
				require.NoError(t, store.CreateAuction(ctx, newAuction("a1", "item1", "seller1", 100, 10, now.Add(time.Hour))))
			},
			auctionID: "a1", bidder: "userB", amount: 110, at: now,
		},
		{
			name: "first_bid_must_clear_start_plus_increment",
			seed: func(store *MemoryStore) {
				require.NoError(t, store.CreateAuction(ctx, newAuction("a1", "item1", "seller1", 100, 10, now.Add(time.Hour))))
			},
			auctionID: "a1", bidder: "userB", amount: 105, at: now,
			wantError: auctionerrors.ErrBidTooLow,
		},
		{
			name: "self_bid_rejected",
			seed: func(store *MemoryStore) {
				require.NoError(t, store.CreateAuction(ctx, newAuction("a1", "item1", "seller1", 100, 10, now.Add(time.Hour))))
			},
			auctionID: "a1", bidder: "seller1", amount: 500, at: now,
			wantError: auctionerrors.ErrSelfBidNotAllowed,
		},
		{
			name: "unknown_auction",
			seed: func(store *MemoryStore) {},
			auctionID: "missing", bidder: "userB", amount: 110, at: now,
			wantError: auctionerrors.ErrAuctionNotFound,
		},
		{
			name: "expired_at_placement_time",
			seed: func(store *MemoryStore) {
				require.NoError(t, store.CreateAuction(ctx, newAuction("a1", "item1", "seller1", 100, 10, now.Add(time.Hour))))
			},
			auctionID: "a1", bidder: "userB", amount: 110, at: now.Add(2 * time.Hour),
			wantError: auctionerrors.ErrAuctionExpired,
		},
		{
			name: "sold_auction_not_active",
			seed: func(store *MemoryStore) {
				require.NoError(t, store.CreateAuction(ctx, newAuction("a1", "item1", "seller1", 100, 10, now.Add(time.Hour))))
				_, _, err := store.TryPlaceBid(ctx, "a1", "userB", 110, now)
				require.NoError(t, err)
				_, err = store.AcceptHighestBid(ctx, "a1", "seller1", now)
				require.NoError(t, err)
			},
			auctionID: "a1", bidder: "userC", amount: 200, at: now,
			wantError: auctionerrors.ErrAuctionNotActive,
		},
		{
			name: "outbid_returns_previous_bidder",
			seed: func(store *MemoryStore) {
				require.NoError(t, store.CreateAuction(ctx, newAuction("a1", "item1", "seller1", 100, 10, now.Add(time.Hour))))
				_, _, err := store.TryPlaceBid(ctx, "a1", "userB", 110, now)
				require.NoError(t, err)
			},
			auctionID: "a1", bidder: "userC", amount: 120, at: now,
			wantPrev: "userB",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := NewMemoryStore()
			tc.seed(store)

			updated, prev, err := store.TryPlaceBid(ctx, tc.auctionID, tc.bidder, tc.amount, tc.at)
			if tc.wantError != nil {
				require.ErrorIs(t, err, tc.wantError)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantPrev, prev)
			require.Equal(t, tc.amount, updated.CurrentHighest)
			require.Equal(t, tc.bidder, updated.HighestBidder)
		})
	}

	// A too-late bid flips the auction to expired as a side effect, without
	// waiting for the sweep.
	t.Run("late_bid_expires_the_auction", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		require.NoError(t, store.CreateAuction(ctx, newAuction("a1", "item1", "seller1", 100, 10, now.Add(time.Hour))))

		_, _, err := store.TryPlaceBid(ctx, "a1", "userB", 110, now.Add(time.Hour))
		require.ErrorIs(t, err, auctionerrors.ErrAuctionExpired)

		auction, err := store.GetByID(ctx, "a1")
		require.NoError(t, err)
		require.Equal(t, model.StatusExpired, auction.Status)
	})

	// BidTooLow rejections must tell the caller the minimum acceptable value
	t.Run("too_low_reports_minimum", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		require.NoError(t, store.CreateAuction(ctx, newAuction("a1", "item1", "seller1", 100, 10, now.Add(time.Hour))))

		_, _, err := store.TryPlaceBid(ctx, "a1", "userB", 105, now)
		require.ErrorIs(t, err, auctionerrors.ErrBidTooLow)
		require.Contains(t, err.Error(), "minimum acceptable bid is 110")
	})

	// concurrency test: N concurrent bids, final value is the max accepted,
	// never lower, and the highest bid is monotonically non-decreasing
	t.Run("concurrent_bids_no_lost_update", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()
		require.NoError(t, store.CreateAuction(ctx, newAuction("a1", "item1", "seller1", 100, 10, now.Add(time.Hour))))

		var wg sync.WaitGroup
		concurrentCount := 50
		var mu sync.Mutex
		var accepted []int64

		for i := 0; i < concurrentCount; i++ {
			wg.Add(1)
			i := i
			go func() {
				defer wg.Done()
				amount := int64(110 + i*10)
				updated, _, err := store.TryPlaceBid(ctx, "a1", fmt.Sprintf("user-%d", i), amount, now)
				if err != nil {
					require.ErrorIs(t, err, auctionerrors.ErrBidTooLow)
					return
				}
				mu.Lock()
				accepted = append(accepted, updated.CurrentHighest)
				mu.Unlock()
			}()
		}

		wg.Wait()

		auction, err := store.GetByID(ctx, "a1")
		require.NoError(t, err)

		// the top bid always lands: nothing can outbid 110+49*10
		require.Equal(t, int64(110+49*10), auction.CurrentHighest)
		var max int64
		for _, amount := range accepted {
			require.GreaterOrEqual(t, amount, int64(110))
			if amount > max {
				max = amount
			}
		}
		require.Equal(t, auction.CurrentHighest, max)
	})
}

// Test AcceptHighestBid
func TestMemoryStore_AcceptHighestBid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()

	seed := func(t *testing.T, withBid bool) *MemoryStore {
		store := NewMemoryStore()
		require.NoError(t, store.CreateAuction(ctx, newAuction("a1", "item1", "seller1", 100, 10, now.Add(time.Hour))))
		if withBid {
			_, _, err := store.TryPlaceBid(ctx, "a1", "userB", 110, now)
			require.NoError(t, err)
		}
		return store
	}

	t.Run("success_sets_sold_fields", func(t *testing.T) {
		t.Parallel()
		store := seed(t, true)

		sold, err := store.AcceptHighestBid(ctx, "a1", "seller1", now)
		require.NoError(t, err)
		require.Equal(t, model.StatusSold, sold.Status)
		require.Equal(t, "userB", sold.SoldTo)
		require.Equal(t, int64(110), sold.SoldPrice)
	})

	t.Run("no_bids_leaves_auction_active", func(t *testing.T) {
		t.Parallel()
		store := seed(t, false)

		_, err := store.AcceptHighestBid(ctx, "a1", "seller1", now)
		require.ErrorIs(t, err, auctionerrors.ErrNoBids)

		auction, err := store.GetByID(ctx, "a1")
		require.NoError(t, err)
		require.Equal(t, model.StatusActive, auction.Status)
	})

	t.Run("not_seller_rejected", func(t *testing.T) {
		t.Parallel()
		store := seed(t, true)

		_, err := store.AcceptHighestBid(ctx, "a1", "userB", now)
		require.ErrorIs(t, err, auctionerrors.ErrNotSeller)
	})

	t.Run("second_accept_already_finalized", func(t *testing.T) {
		t.Parallel()
		store := seed(t, true)

		first, err := store.AcceptHighestBid(ctx, "a1", "seller1", now)
		require.NoError(t, err)

		_, err = store.AcceptHighestBid(ctx, "a1", "seller1", now)
		require.ErrorIs(t, err, auctionerrors.ErrAlreadyFinalized)

		// state from the first accept is untouched
		auction, err := store.GetByID(ctx, "a1")
		require.NoError(t, err)
		require.Equal(t, first, auction)
	})

	t.Run("unknown_auction", func(t *testing.T) {
		t.Parallel()
		store := NewMemoryStore()

		_, err := store.AcceptHighestBid(ctx, "missing", "seller1", now)
		require.ErrorIs(t, err, auctionerrors.ErrAuctionNotFound)
	})
}

// Test MarkExpired
func TestMemoryStore_MarkExpired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()

	store := NewMemoryStore()
	require.NoError(t, store.CreateAuction(ctx, newAuction("a1", "item1", "seller1", 100, 10, now.Add(time.Hour))))

	t.Run("not_yet_due_is_noop", func(t *testing.T) {
		auction, transitioned, err := store.MarkExpired(ctx, "a1", now)
		require.NoError(t, err)
		require.False(t, transitioned)
		require.Equal(t, model.StatusActive, auction.Status)
	})

	t.Run("due_transitions_once", func(t *testing.T) {
		auction, transitioned, err := store.MarkExpired(ctx, "a1", now.Add(2*time.Hour))
		require.NoError(t, err)
		require.True(t, transitioned)
		require.Equal(t, model.StatusExpired, auction.Status)

		// second call is an idempotent no-op
		_, transitioned, err = store.MarkExpired(ctx, "a1", now.Add(3*time.Hour))
		require.NoError(t, err)
		require.False(t, transitioned)
	})
}

// Test the sweep listings
func TestMemoryStore_SweepListings(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()

	store := NewMemoryStore()
	require.NoError(t, store.CreateAuction(ctx, newAuction("due", "item1", "s", 100, 10, now.Add(-time.Hour))))
	require.NoError(t, store.CreateAuction(ctx, newAuction("soon", "item2", "s", 100, 10, now.Add(6*time.Hour))))
	require.NoError(t, store.CreateAuction(ctx, newAuction("later", "item3", "s", 100, 10, now.Add(72*time.Hour))))

	expiring, err := store.ListExpiring(ctx, now, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	require.Equal(t, "soon", expiring[0].AuctionID)

	overdue, err := store.ListOverdue(ctx, now)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, "due", overdue[0].AuctionID)
}

// Test the bid ledger
func TestMemoryStore_BidLedger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()

	store := NewMemoryStore()
	require.NoError(t, store.CreateAuction(ctx, newAuction("a1", "item1", "seller1", 100, 10, now.Add(time.Hour))))

	t.Run("append_unknown_auction", func(t *testing.T) {
		err := store.Append(ctx, newBid("b0", "missing", "userB", 110, now))
		require.ErrorIs(t, err, auctionerrors.ErrAuctionNotFound)
	})

	t.Run("list_descending_by_recency", func(t *testing.T) {
		bid1 := newBid("b1", "a1", "userB", 110, now.Add(-2*time.Minute))
		bid2 := newBid("b2", "a1", "userC", 120, now.Add(-time.Minute))
		bid3 := newBid("b3", "a1", "userB", 130, now)
		require.NoError(t, store.Append(ctx, bid1))
		require.NoError(t, store.Append(ctx, bid3))
		require.NoError(t, store.Append(ctx, bid2))

		bids, err := store.ListByAuction(ctx, "a1")
		require.NoError(t, err)
		require.Equal(t, []model.Bid{bid3, bid2, bid1}, bids)
	})
}

// Test notification persistence and recipient scoping
func TestMemoryStore_Notifications(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()

	store := NewMemoryStore()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.CreateNotification(ctx, model.Notification{
			NotificationID: fmt.Sprintf("n%d", i),
			Recipient:      "user1",
			Type:           model.NotifyNewBid,
			Message:        fmt.Sprintf("message %d", i),
			CreatedAt:      now.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, store.CreateNotification(ctx, model.Notification{
		NotificationID: "other", Recipient: "user2", Type: model.NotifyOutbid, CreatedAt: now,
	}))

	t.Run("list_newest_first_with_total", func(t *testing.T) {
		list, total, err := store.ListNotifications(ctx, "user1", NotificationFilter{Limit: 2})
		require.NoError(t, err)
		require.Equal(t, 5, total)
		require.Len(t, list, 2)
		require.Equal(t, "n4", list[0].NotificationID)
		require.Equal(t, "n3", list[1].NotificationID)
	})

	t.Run("unread_filter_and_counts", func(t *testing.T) {
		_, err := store.MarkRead(ctx, "user1", "n0")
		require.NoError(t, err)

		unread := false
		list, total, err := store.ListNotifications(ctx, "user1", NotificationFilter{Read: &unread})
		require.NoError(t, err)
		require.Equal(t, 4, total)
		require.Len(t, list, 4)

		count, err := store.UnreadCount(ctx, "user1")
		require.NoError(t, err)
		require.Equal(t, 4, count)
	})

	t.Run("mark_read_scoped_to_recipient", func(t *testing.T) {
		_, err := store.MarkRead(ctx, "user1", "other")
		require.ErrorIs(t, err, auctionerrors.ErrNotificationNotFound)
	})

	t.Run("mark_all_read", func(t *testing.T) {
		updated, err := store.MarkAllRead(ctx, "user1")
		require.NoError(t, err)
		require.Equal(t, 4, updated)

		count, err := store.UnreadCount(ctx, "user1")
		require.NoError(t, err)
		require.Zero(t, count)
	})

	t.Run("delete_scoped_to_recipient", func(t *testing.T) {
		require.ErrorIs(t, store.DeleteNotification(ctx, "user1", "other"), auctionerrors.ErrNotificationNotFound)
		require.NoError(t, store.DeleteNotification(ctx, "user2", "other"))

		_, total, err := store.ListNotifications(ctx, "user2", NotificationFilter{})
		require.NoError(t, err)
		require.Zero(t, total)
	})
}

// The concrete end-to-end bidding scenario: start 100, increment 10
func TestMemoryStore_BiddingScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()

	store := NewMemoryStore()
	require.NoError(t, store.CreateAuction(ctx, newAuction("a1", "item1", "seller1", 100, 10, now.Add(time.Hour))))

	// 105 is below 100+10
	_, _, err := store.TryPlaceBid(ctx, "a1", "userB", 105, now)
	require.ErrorIs(t, err, auctionerrors.ErrBidTooLow)

	// 110 clears the bar
	updated, _, err := store.TryPlaceBid(ctx, "a1", "userB", 110, now)
	require.NoError(t, err)
	require.Equal(t, int64(110), updated.CurrentHighest)
	require.Equal(t, "userB", updated.HighestBidder)

	// near-simultaneous 120 and 125: whichever serializes first wins its
	// round, the loser re-validates against the post-update value. The final
	// state is the max accepted amount, never a silent overwrite by a lower
	// one.
	var wg sync.WaitGroup
	var mu sync.Mutex
	var acceptedMax int64
	for _, bid := range []struct {
		bidder string
		amount int64
	}{{"userC", 120}, {"userD", 125}} {
		wg.Add(1)
		bid := bid
		go func() {
			defer wg.Done()
			updated, _, err := store.TryPlaceBid(ctx, "a1", bid.bidder, bid.amount, now)
			if err != nil {
				require.ErrorIs(t, err, auctionerrors.ErrBidTooLow)
				return
			}
			mu.Lock()
			if updated.CurrentHighest > acceptedMax {
				acceptedMax = updated.CurrentHighest
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	final, err := store.GetByID(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, acceptedMax, final.CurrentHighest)
	require.GreaterOrEqual(t, final.CurrentHighest, int64(120))
	require.LessOrEqual(t, final.CurrentHighest, int64(125))
}
