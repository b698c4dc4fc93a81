package auction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"campus-auction/internal/auctionerrors"
	"campus-auction/internal/models"
	notification "campus-auction/internal/notificationService"
	"campus-auction/internal/repository"
	"campus-auction/utils"
)

const (
	// Defaults applied when the caller omits the optional create fields.
	DefaultMinIncrement  = 100
	DefaultDurationHours = 48

	dispatchTimeout = 10 * time.Second
)

// Dispatcher fans a domain event out to its recipient.
type Dispatcher interface {
	Dispatch(ctx context.Context, event notification.Event) error
}

// Service is the public auction contract: create, bid, accept, read. It
// composes the store (conditional state transitions), the bid ledger
// (audit trail) and the dispatcher (notifications). Notification dispatch is
// asynchronous and best effort: once the store has committed a transition,
// nothing downstream can fail it.
type Service struct {
	store      repository.AuctionStore
	ledger     repository.BidLedger
	catalog    repository.ProductCatalog
	dispatcher Dispatcher
	now        func() time.Time
	inflight   sync.WaitGroup
}

// NewService creates a Service instance.
func NewService(store repository.AuctionStore, ledger repository.BidLedger, catalog repository.ProductCatalog, dispatcher Dispatcher) *Service {
	return &Service{
		store:      store,
		ledger:     ledger,
		catalog:    catalog,
		dispatcher: dispatcher,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateAuction opens an active auction for a catalog item. Product title and
// description are snapshotted onto the auction so later notifications do not
// depend on the catalog. No notification is emitted: nobody is watching yet.
func (s *Service) CreateAuction(ctx context.Context, seller, itemID string, startPrice, minIncrement int64, durationHours int) (models.Auction, error) {
	if seller == "" {
		return models.Auction{}, fmt.Errorf("service: %w - missing seller", auctionerrors.ErrUnauthorized)
	}
	if itemID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - missing item ID", auctionerrors.ErrInvalidInput)
	}
	if startPrice < 0 {
		return models.Auction{}, fmt.Errorf("service: %w - negative start price", auctionerrors.ErrInvalidInput)
	}
	if minIncrement <= 0 {
		minIncrement = DefaultMinIncrement
	}
	if durationHours <= 0 {
		durationHours = DefaultDurationHours
	}

	product, err := s.catalog.GetProduct(ctx, itemID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to resolve item %s: %w", itemID, err)
	}

	now := s.now()
	auction := models.Auction{
		AuctionID:       utils.GenerateID(),
		ItemID:          product.ProductID,
		ItemTitle:       product.Title,
		ItemDescription: product.Description,
		Seller:          seller,
		StartPrice:      startPrice,
		MinIncrement:    minIncrement,
		CurrentHighest:  startPrice,
		Status:          models.StatusActive,
		CreatedAt:       now,
		ExpiresAt:       now.Add(time.Duration(durationHours) * time.Hour),
	}

	if err := s.store.CreateAuction(ctx, auction); err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to create auction for item %s: %w", itemID, err)
	}
	return auction, nil
}

// PlaceBid runs the store's atomic bid transition, appends the accepted bid
// to the ledger and notifies the seller (NEW_BID) and the displaced bidder
// (OUTBID). The first valid bid must reach startPrice + minIncrement; there
// is no bidder to displace for it.
func (s *Service) PlaceBid(ctx context.Context, bidder, auctionID string, amount int64) (models.Auction, models.Bid, error) {
	if bidder == "" {
		return models.Auction{}, models.Bid{}, fmt.Errorf("service: %w - missing bidder", auctionerrors.ErrUnauthorized)
	}
	if auctionID == "" {
		return models.Auction{}, models.Bid{}, fmt.Errorf("service: %w - missing auction ID", auctionerrors.ErrInvalidInput)
	}
	if amount <= 0 {
		return models.Auction{}, models.Bid{}, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidInput)
	}

	now := s.now()
	auction, previousBidder, err := s.store.TryPlaceBid(ctx, auctionID, bidder, amount, now)
	if err != nil {
		return models.Auction{}, models.Bid{}, fmt.Errorf("service: failed to place bid on auction %s: %w", auctionID, err)
	}

	bid := models.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: auction.AuctionID,
		Bidder:    bidder,
		Amount:    amount,
		CreatedAt: now,
	}
	// The store transition is the committed truth; a ledger append failure
	// loses audit detail, not the bid itself.
	if err := s.ledger.Append(ctx, bid); err != nil {
		utils.Error("PlaceBid: ledger append failed after committed bid", map[string]any{
			"auction_id": auction.AuctionID,
			"bid_id":     bid.BidID,
			"error":      err.Error(),
		})
	}

	events := []notification.Event{{
		Type:      models.NotifyNewBid,
		Recipient: auction.Seller,
		Message:   fmt.Sprintf("New bid of %d on your auction %q.", amount, auction.ItemTitle),
		AuctionID: auction.AuctionID,
	}}
	if previousBidder != "" && previousBidder != bidder {
		events = append(events, notification.Event{
			Type:      models.NotifyOutbid,
			Recipient: previousBidder,
			Message:   fmt.Sprintf("You have been outbid on %q. Current highest bid: %d.", auction.ItemTitle, amount),
			AuctionID: auction.AuctionID,
		})
	}
	s.notify(events...)

	return auction, bid, nil
}

// AcceptHighestBid finalizes the sale to the current highest bidder and
// notifies both parties.
func (s *Service) AcceptHighestBid(ctx context.Context, seller, auctionID string) (models.Auction, error) {
	if seller == "" {
		return models.Auction{}, fmt.Errorf("service: %w - missing seller", auctionerrors.ErrUnauthorized)
	}
	if auctionID == "" {
		return models.Auction{}, fmt.Errorf("service: %w - missing auction ID", auctionerrors.ErrInvalidInput)
	}

	auction, err := s.store.AcceptHighestBid(ctx, auctionID, seller, s.now())
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to accept bid on auction %s: %w", auctionID, err)
	}

	s.notify(
		notification.Event{
			Type:      models.NotifySold,
			Recipient: auction.Seller,
			Message:   fmt.Sprintf("Your auction %q has been sold for %d.", auction.ItemTitle, auction.SoldPrice),
			AuctionID: auction.AuctionID,
		},
		notification.Event{
			Type:      models.NotifyAuctionWon,
			Recipient: auction.SoldTo,
			Message:   fmt.Sprintf("You won the auction %q with a bid of %d.", auction.ItemTitle, auction.SoldPrice),
			AuctionID: auction.AuctionID,
		},
	)
	return auction, nil
}

// View is an auction plus the presentation values derived from the clock.
type View struct {
	models.Auction
	TimeLeft  string `json:"time_left"`
	IsExpired bool   `json:"is_expired"`
}

// GetAuctionView returns the active auction for an item with derived
// time-left fields. Pure read: an over-due auction is reported expired here
// but only the scheduler or a bid attempt transitions it.
func (s *Service) GetAuctionView(ctx context.Context, itemID string) (View, error) {
	if itemID == "" {
		return View{}, fmt.Errorf("service: %w - empty item ID", auctionerrors.ErrInvalidInput)
	}

	auction, err := s.store.GetActiveByItem(ctx, itemID)
	if err != nil {
		return View{}, fmt.Errorf("service: failed to get auction for item %s: %w", itemID, err)
	}

	left := auction.ExpiresAt.Sub(s.now())
	view := View{Auction: auction, IsExpired: left <= 0, TimeLeft: "Expired"}
	if left > 0 {
		view.TimeLeft = fmt.Sprintf("%dh %dm", int(left.Hours()), int(left.Minutes())%60)
	}
	return view, nil
}

// GetBidsForAuction returns an auction's accepted bids, most recent first.
func (s *Service) GetBidsForAuction(ctx context.Context, auctionID string) ([]models.Bid, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}

	bids, err := s.ledger.ListByAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list bids for auction %s: %w", auctionID, err)
	}
	return bids, nil
}

// ExpiringSoon lists active auctions due within the window. Sweep entry
// point for the scheduler.
func (s *Service) ExpiringSoon(ctx context.Context, now time.Time, within time.Duration) ([]models.Auction, error) {
	auctions, err := s.store.ListExpiring(ctx, now, within)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list expiring auctions: %w", err)
	}
	return auctions, nil
}

// OverdueAuctions lists active auctions whose expiry has passed. Sweep entry
// point for the scheduler.
func (s *Service) OverdueAuctions(ctx context.Context, now time.Time) ([]models.Auction, error) {
	auctions, err := s.store.ListOverdue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list overdue auctions: %w", err)
	}
	return auctions, nil
}

// NotifySellerExpiring sends the expiring-soon reminder for one auction.
func (s *Service) NotifySellerExpiring(ctx context.Context, auction models.Auction, now time.Time) error {
	hoursLeft := int(auction.ExpiresAt.Sub(now).Hours())
	if hoursLeft < 1 {
		hoursLeft = 1
	}
	return s.dispatcher.Dispatch(ctx, notification.Event{
		Type:      models.NotifyExpiring,
		Recipient: auction.Seller,
		Message:   fmt.Sprintf("Your auction %q will expire in %d hour(s). Current highest bid: %d.", auction.ItemTitle, hoursLeft, auction.CurrentHighest),
		AuctionID: auction.AuctionID,
	})
}

// ExpireAuction transitions one overdue auction to expired and, when this
// call performed the transition, notifies the seller. The returned bool
// mirrors the store's: false means another writer got there first.
func (s *Service) ExpireAuction(ctx context.Context, auctionID string, now time.Time) (models.Auction, bool, error) {
	auction, transitioned, err := s.store.MarkExpired(ctx, auctionID, now)
	if err != nil {
		return models.Auction{}, false, fmt.Errorf("service: failed to expire auction %s: %w", auctionID, err)
	}
	if !transitioned {
		return auction, false, nil
	}

	message := fmt.Sprintf("Your auction %q has expired with no bids.", auction.ItemTitle)
	if auction.HighestBidder != "" {
		message = fmt.Sprintf("Your auction %q has expired. Highest bid was %d.", auction.ItemTitle, auction.CurrentHighest)
	}
	if err := s.dispatcher.Dispatch(ctx, notification.Event{
		Type:      models.NotifyExpired,
		Recipient: auction.Seller,
		Message:   message,
		AuctionID: auction.AuctionID,
	}); err != nil {
		utils.Error("ExpireAuction: dispatch failed", map[string]any{
			"auction_id": auctionID,
			"error":      err.Error(),
		})
	}
	return auction, true, nil
}

// notify dispatches events in the background. Failures are logged, never
// surfaced: the state change these events describe has already committed.
func (s *Service) notify(events ...notification.Event) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		for _, event := range events {
			if err := s.dispatcher.Dispatch(ctx, event); err != nil {
				utils.Error("notify: dispatch failed", map[string]any{
					"type":       string(event.Type),
					"recipient":  event.Recipient,
					"auction_id": event.AuctionID,
					"error":      err.Error(),
				})
			}
		}
	}()
}

// Flush blocks until all background dispatches have finished. Called on
// shutdown and by tests that assert on notifications.
func (s *Service) Flush() {
	s.inflight.Wait()
}
