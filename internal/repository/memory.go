package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"campus-auction/internal/auctionerrors"
	model "campus-auction/internal/models"
)

const defaultListLimit = 50

// MemoryStore is a concurrency-safe in-memory implementation of AuctionStore,
// BidLedger, NotificationStore and ProductCatalog. A single mutex serializes
// conditional writes, which makes it correct only within one process; the
// Postgres implementation is the multi-instance store.
type MemoryStore struct {
	mu            sync.RWMutex
	auctions      map[string]model.Auction    // key: auctionID
	activeByItem  map[string]string           // key: itemID -> active auctionID
	bids          map[string][]model.Bid      // key: auctionID -> accepted bids, append order
	notifications map[string][]model.Notification // key: recipient -> newest last
	products      map[string]model.Product    // key: productID
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		auctions:      make(map[string]model.Auction),
		activeByItem:  make(map[string]string),
		bids:          make(map[string][]model.Bid),
		notifications: make(map[string][]model.Notification),
		products:      make(map[string]model.Product),
	}
}

// CreateAuction stores a new active auction, enforcing one active auction per
// item.
func (r *MemoryStore) CreateAuction(_ context.Context, auction model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.activeByItem[auction.ItemID]; ok {
		if existing, found := r.auctions[id]; found && existing.Status == model.StatusActive {
			return fmt.Errorf("create auction for item %s: %w", auction.ItemID, auctionerrors.ErrDuplicateActiveAuction)
		}
	}

	r.auctions[auction.AuctionID] = auction
	r.activeByItem[auction.ItemID] = auction.AuctionID
	return nil
}

// TryPlaceBid applies the bid checks and the highest-bid update under one
// lock hold, so no two concurrent bids can both raise from the same prior
// value.
func (r *MemoryStore) TryPlaceBid(_ context.Context, auctionID, bidder string, amount int64, now time.Time) (model.Auction, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, "", fmt.Errorf("place bid on auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if auction.Status != model.StatusActive {
		return model.Auction{}, "", fmt.Errorf("place bid on auction %s: %w", auctionID, auctionerrors.ErrAuctionNotActive)
	}
	if !now.Before(auction.ExpiresAt) {
		// The sweep has not caught this auction yet; expire it here so the
		// placement-time check, not the sweep cadence, closes the window.
		auction.Status = model.StatusExpired
		r.auctions[auctionID] = auction
		delete(r.activeByItem, auction.ItemID)
		return model.Auction{}, "", fmt.Errorf("place bid on auction %s: %w", auctionID, auctionerrors.ErrAuctionExpired)
	}
	if bidder == auction.Seller {
		return model.Auction{}, "", fmt.Errorf("place bid on auction %s: %w", auctionID, auctionerrors.ErrSelfBidNotAllowed)
	}
	if min := auction.MinAcceptableBid(); amount < min {
		return model.Auction{}, "", fmt.Errorf("place bid on auction %s: %w: minimum acceptable bid is %d", auctionID, auctionerrors.ErrBidTooLow, min)
	}

	previous := auction.HighestBidder
	auction.CurrentHighest = amount
	auction.HighestBidder = bidder
	r.auctions[auctionID] = auction
	return auction, previous, nil
}

// AcceptHighestBid finalizes an active auction as sold.
func (r *MemoryStore) AcceptHighestBid(_ context.Context, auctionID, requester string, _ time.Time) (model.Auction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("accept bid on auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if requester != auction.Seller {
		return model.Auction{}, fmt.Errorf("accept bid on auction %s: %w", auctionID, auctionerrors.ErrNotSeller)
	}
	if auction.Status != model.StatusActive {
		return model.Auction{}, fmt.Errorf("accept bid on auction %s: %w", auctionID, auctionerrors.ErrAlreadyFinalized)
	}
	if auction.HighestBidder == "" {
		return model.Auction{}, fmt.Errorf("accept bid on auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}

	auction.Status = model.StatusSold
	auction.SoldTo = auction.HighestBidder
	auction.SoldPrice = auction.CurrentHighest
	r.auctions[auctionID] = auction
	delete(r.activeByItem, auction.ItemID)
	return auction, nil
}

// MarkExpired transitions an active, past-due auction to expired. Idempotent
// on already-terminal auctions.
func (r *MemoryStore) MarkExpired(_ context.Context, auctionID string, now time.Time) (model.Auction, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, false, fmt.Errorf("mark expired %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if auction.Status != model.StatusActive || now.Before(auction.ExpiresAt) {
		return auction, false, nil
	}

	auction.Status = model.StatusExpired
	r.auctions[auctionID] = auction
	delete(r.activeByItem, auction.ItemID)
	return auction, true, nil
}

// GetByID returns one auction in any state.
func (r *MemoryStore) GetByID(_ context.Context, auctionID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return auction, nil
}

// GetActiveByItem returns the active auction selling the given item.
func (r *MemoryStore) GetActiveByItem(_ context.Context, itemID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id, ok := r.activeByItem[itemID]; ok {
		if auction, found := r.auctions[id]; found && auction.Status == model.StatusActive {
			return auction, nil
		}
	}
	return model.Auction{}, fmt.Errorf("get active auction for item %s: %w", itemID, auctionerrors.ErrAuctionNotFound)
}

// ListExpiring returns active auctions due within the window, soonest first.
func (r *MemoryStore) ListExpiring(_ context.Context, now time.Time, within time.Duration) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Auction
	cutoff := now.Add(within)
	for _, auction := range r.auctions {
		if auction.Status == model.StatusActive && auction.ExpiresAt.After(now) && !auction.ExpiresAt.After(cutoff) {
			out = append(out, auction)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

// ListOverdue returns active auctions whose expiry has passed.
func (r *MemoryStore) ListOverdue(_ context.Context, now time.Time) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Auction
	for _, auction := range r.auctions {
		if auction.Status == model.StatusActive && !auction.ExpiresAt.After(now) {
			out = append(out, auction)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

// Append records an accepted bid.
func (r *MemoryStore) Append(_ context.Context, bid model.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.auctions[bid.AuctionID]; !ok {
		return fmt.Errorf("append bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	r.bids[bid.AuctionID] = append(r.bids[bid.AuctionID], bid)
	return nil
}

// ListByAuction returns an auction's bids most recent first.
func (r *MemoryStore) ListByAuction(_ context.Context, auctionID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.auctions[auctionID]; !ok {
		return nil, fmt.Errorf("list bids for auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}

	bids := append([]model.Bid(nil), r.bids[auctionID]...)
	sort.Slice(bids, func(i, j int) bool { return bids[i].CreatedAt.After(bids[j].CreatedAt) })
	return bids, nil
}

// CreateNotification persists a notification for its recipient.
func (r *MemoryStore) CreateNotification(_ context.Context, n model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.notifications[n.Recipient] = append(r.notifications[n.Recipient], n)
	return nil
}

// ListNotifications returns a page of the recipient's notifications, newest
// first, plus the total matching the filter.
func (r *MemoryStore) ListNotifications(_ context.Context, recipient string, filter NotificationFilter) ([]model.Notification, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []model.Notification
	for _, n := range r.notifications[recipient] {
		if filter.Read != nil && n.Read != *filter.Read {
			continue
		}
		matched = append(matched, n)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := filter.Offset
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

// MarkRead marks one of the recipient's notifications as read.
func (r *MemoryStore) MarkRead(_ context.Context, recipient, notificationID string) (model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.notifications[recipient]
	for i, n := range list {
		if n.NotificationID == notificationID {
			list[i].Read = true
			return list[i], nil
		}
	}
	return model.Notification{}, fmt.Errorf("mark read %s for user %s: %w", notificationID, recipient, auctionerrors.ErrNotificationNotFound)
}

// MarkAllRead marks every unread notification of the recipient as read and
// returns how many were updated.
func (r *MemoryStore) MarkAllRead(_ context.Context, recipient string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated := 0
	list := r.notifications[recipient]
	for i := range list {
		if !list[i].Read {
			list[i].Read = true
			updated++
		}
	}
	return updated, nil
}

// UnreadCount returns how many of the recipient's notifications are unread.
func (r *MemoryStore) UnreadCount(_ context.Context, recipient string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, n := range r.notifications[recipient] {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

// DeleteNotification removes one of the recipient's notifications.
func (r *MemoryStore) DeleteNotification(_ context.Context, recipient, notificationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.notifications[recipient]
	for i, n := range list {
		if n.NotificationID == notificationID {
			r.notifications[recipient] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete notification %s for user %s: %w", notificationID, recipient, auctionerrors.ErrNotificationNotFound)
}

// GetProduct returns a catalog item.
func (r *MemoryStore) GetProduct(_ context.Context, productID string) (model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[productID]
	if !ok {
		return model.Product{}, fmt.Errorf("get product %s: %w", productID, auctionerrors.ErrProductNotFound)
	}
	return product, nil
}

// AddProduct seeds a catalog item. Used by main and tests.
func (r *MemoryStore) AddProduct(product model.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ProductID] = product
}
