package models

import "time"

// AuctionStatus is the lifecycle state of an auction. Active auctions accept
// bids; expired and sold are terminal.
type AuctionStatus string

const (
	StatusActive  AuctionStatus = "active"
	StatusExpired AuctionStatus = "expired"
	StatusSold    AuctionStatus = "sold"
)

// NotificationType classifies what a notification is about.
type NotificationType string

const (
	NotifyNewBid     NotificationType = "NEW_BID"
	NotifyOutbid     NotificationType = "OUTBID"
	NotifySold       NotificationType = "SOLD"
	NotifyAuctionWon NotificationType = "AUCTION_WON"
	NotifyExpiring   NotificationType = "EXPIRING"
	NotifyExpired    NotificationType = "EXPIRED"
)

// Product is the read-only view of a catalog item an auction sells.
type Product struct {
	ProductID   string `json:"product_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Auction is a time-bounded sell offer for one product. Amounts are integer
// minor units in a single currency. CurrentHighest seeds to StartPrice and
// only ever rises while the auction is active; HighestBidder is empty until
// the first accepted bid.
type Auction struct {
	AuctionID       string        `json:"auction_id"`
	ItemID          string        `json:"item_id"`
	ItemTitle       string        `json:"item_title"`
	ItemDescription string        `json:"item_description"`
	Seller          string        `json:"seller"`
	StartPrice      int64         `json:"start_price"`
	MinIncrement    int64         `json:"min_increment"`
	CurrentHighest  int64         `json:"current_highest_bid"`
	HighestBidder   string        `json:"highest_bidder,omitempty"`
	Status          AuctionStatus `json:"status"`
	SoldTo          string        `json:"sold_to,omitempty"`
	SoldPrice       int64         `json:"sold_price,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	ExpiresAt       time.Time     `json:"expires_at"`
}

// MinAcceptableBid is the smallest amount the next bid may carry.
func (a Auction) MinAcceptableBid() int64 {
	return a.CurrentHighest + a.MinIncrement
}

// Bid is an immutable ledger record of one accepted bid. Rejected attempts are
// never persisted.
type Bid struct {
	BidID     string    `json:"bid_id"`
	AuctionID string    `json:"auction_id"`
	Bidder    string    `json:"bidder"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification is a durable per-recipient message about an auction event.
// Only the recipient mutates it (marking read) or deletes it.
type Notification struct {
	NotificationID string           `json:"notification_id"`
	Recipient      string           `json:"recipient"`
	Type           NotificationType `json:"type"`
	Message        string           `json:"message"`
	AuctionID      string           `json:"auction_id,omitempty"`
	Read           bool             `json:"read"`
	CreatedAt      time.Time        `json:"created_at"`
}
