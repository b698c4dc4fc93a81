package repository

import (
	"context"
	"time"

	model "campus-auction/internal/models"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// AuctionStore persists auction records and serializes their state
// transitions. Every mutation is conditional: it observes the record's
// current state and applies the transition in one atomic unit, so that
// concurrent callers against the same auction never both succeed from the
// same prior value.
type AuctionStore interface {
	// CreateAuction stores a new active auction. Fails with
	// ErrDuplicateActiveAuction when an active auction for the same item
	// already exists.
	CreateAuction(ctx context.Context, auction model.Auction) error

	// TryPlaceBid atomically validates and applies a bid. Checks, in order:
	// the auction exists and is active; now is before expiresAt (otherwise
	// the auction is flipped to expired and the bid fails with
	// ErrAuctionExpired); the bidder is not the seller; the amount is at
	// least currentHighestBid + minIncrement. On success the highest bid and
	// bidder are updated in the same atomic unit. Returns the updated
	// auction and the previous highest bidder (empty when there was none).
	TryPlaceBid(ctx context.Context, auctionID, bidder string, amount int64, now time.Time) (model.Auction, string, error)

	// AcceptHighestBid finalizes an active auction as sold to the current
	// highest bidder. Fails with ErrNotSeller, ErrNoBids or
	// ErrAlreadyFinalized.
	AcceptHighestBid(ctx context.Context, auctionID, requester string, now time.Time) (model.Auction, error)

	// MarkExpired transitions an active, past-due auction to expired. The
	// returned bool reports whether this call performed the transition;
	// calling on an already-terminal auction is a no-op.
	MarkExpired(ctx context.Context, auctionID string, now time.Time) (model.Auction, bool, error)

	GetByID(ctx context.Context, auctionID string) (model.Auction, error)
	GetActiveByItem(ctx context.Context, itemID string) (model.Auction, error)

	// ListExpiring returns active auctions with 0 < expiresAt-now <= within.
	ListExpiring(ctx context.Context, now time.Time, within time.Duration) ([]model.Auction, error)
	// ListOverdue returns active auctions with expiresAt <= now.
	ListOverdue(ctx context.Context, now time.Time) ([]model.Auction, error)
}

// BidLedger is the append-only record of accepted bids.
type BidLedger interface {
	Append(ctx context.Context, bid model.Bid) error
	// ListByAuction returns bids most recent first.
	ListByAuction(ctx context.Context, auctionID string) ([]model.Bid, error)
}

// NotificationFilter narrows a notification listing. A nil Read means both
// read and unread. Limit <= 0 falls back to the store default.
type NotificationFilter struct {
	Read   *bool
	Limit  int
	Offset int
}

// NotificationStore persists per-recipient notifications. All mutating
// operations are scoped to the owning recipient.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n model.Notification) error
	ListNotifications(ctx context.Context, recipient string, filter NotificationFilter) ([]model.Notification, int, error)
	MarkRead(ctx context.Context, recipient, notificationID string) (model.Notification, error)
	MarkAllRead(ctx context.Context, recipient string) (int, error)
	UnreadCount(ctx context.Context, recipient string) (int, error)
	DeleteNotification(ctx context.Context, recipient, notificationID string) error
}

// ProductCatalog is the read-only external product collaborator.
type ProductCatalog interface {
	GetProduct(ctx context.Context, productID string) (model.Product, error)
}
