package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-auction/internal/auctionerrors"
	model "campus-auction/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres unique_violation, raised by the partial unique index on
// (item_id) WHERE status = 'active'.
const uniqueViolationCode = "23505"

const auctionColumns = `auction_id, item_id, item_title, item_description, seller, start_price,
	min_increment, current_highest_bid, highest_bidder, status, sold_to, sold_price, created_at, expires_at`

// PostgresStore implements AuctionStore, BidLedger and NotificationStore on
// a pgx connection pool. Conditional writes run inside transactions with
// row locks, so the database, not the process, serializes concurrent bids
// across server instances.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore wraps an established pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func scanAuction(row pgx.Row) (model.Auction, error) {
	var a model.Auction
	err := row.Scan(&a.AuctionID, &a.ItemID, &a.ItemTitle, &a.ItemDescription, &a.Seller,
		&a.StartPrice, &a.MinIncrement, &a.CurrentHighest, &a.HighestBidder,
		&a.Status, &a.SoldTo, &a.SoldPrice, &a.CreatedAt, &a.ExpiresAt)
	return a, err
}

// CreateAuction inserts a new active auction. The partial unique index on
// active items turns a duplicate into ErrDuplicateActiveAuction.
func (r *PostgresStore) CreateAuction(ctx context.Context, auction model.Auction) error {
	insertQuery := `INSERT INTO auctions (` + auctionColumns + `)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.db.Exec(ctx, insertQuery,
		auction.AuctionID, auction.ItemID, auction.ItemTitle, auction.ItemDescription,
		auction.Seller, auction.StartPrice, auction.MinIncrement, auction.CurrentHighest,
		auction.HighestBidder, auction.Status, auction.SoldTo, auction.SoldPrice,
		auction.CreatedAt, auction.ExpiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("create auction for item %s: %w", auction.ItemID, auctionerrors.ErrDuplicateActiveAuction)
		}
		return fmt.Errorf("create auction for item %s: %w", auction.ItemID, err)
	}
	return nil
}

// TryPlaceBid locks the auction row for the duration of the check-and-update,
// so a losing concurrent bid re-validates against the winner's value.
func (r *PostgresStore) TryPlaceBid(ctx context.Context, auctionID, bidder string, amount int64, now time.Time) (model.Auction, string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.Auction{}, "", fmt.Errorf("place bid on auction %s: begin: %w", auctionID, err)
	}
	defer tx.Rollback(ctx)

	auction, err := scanAuction(tx.QueryRow(ctx,
		`SELECT `+auctionColumns+` FROM auctions WHERE auction_id = $1 FOR UPDATE`, auctionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Auction{}, "", fmt.Errorf("place bid on auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, "", fmt.Errorf("place bid on auction %s: %w", auctionID, err)
	}

	if auction.Status != model.StatusActive {
		return model.Auction{}, "", fmt.Errorf("place bid on auction %s: %w", auctionID, auctionerrors.ErrAuctionNotActive)
	}
	if !now.Before(auction.ExpiresAt) {
		if _, err := tx.Exec(ctx,
			`UPDATE auctions SET status = $1 WHERE auction_id = $2`, model.StatusExpired, auctionID); err != nil {
			return model.Auction{}, "", fmt.Errorf("place bid on auction %s: expire: %w", auctionID, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return model.Auction{}, "", fmt.Errorf("place bid on auction %s: expire commit: %w", auctionID, err)
		}
		return model.Auction{}, "", fmt.Errorf("place bid on auction %s: %w", auctionID, auctionerrors.ErrAuctionExpired)
	}
	if bidder == auction.Seller {
		return model.Auction{}, "", fmt.Errorf("place bid on auction %s: %w", auctionID, auctionerrors.ErrSelfBidNotAllowed)
	}
	if min := auction.MinAcceptableBid(); amount < min {
		return model.Auction{}, "", fmt.Errorf("place bid on auction %s: %w: minimum acceptable bid is %d", auctionID, auctionerrors.ErrBidTooLow, min)
	}

	previous := auction.HighestBidder
	if _, err := tx.Exec(ctx,
		`UPDATE auctions SET current_highest_bid = $1, highest_bidder = $2 WHERE auction_id = $3`,
		amount, bidder, auctionID); err != nil {
		return model.Auction{}, "", fmt.Errorf("place bid on auction %s: %w", auctionID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Auction{}, "", fmt.Errorf("place bid on auction %s: commit: %w", auctionID, err)
	}

	auction.CurrentHighest = amount
	auction.HighestBidder = bidder
	return auction, previous, nil
}

// AcceptHighestBid finalizes an active auction as sold, under row lock.
func (r *PostgresStore) AcceptHighestBid(ctx context.Context, auctionID, requester string, _ time.Time) (model.Auction, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return model.Auction{}, fmt.Errorf("accept bid on auction %s: begin: %w", auctionID, err)
	}
	defer tx.Rollback(ctx)

	auction, err := scanAuction(tx.QueryRow(ctx,
		`SELECT `+auctionColumns+` FROM auctions WHERE auction_id = $1 FOR UPDATE`, auctionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Auction{}, fmt.Errorf("accept bid on auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, fmt.Errorf("accept bid on auction %s: %w", auctionID, err)
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

	if _, err := tx.Exec(ctx,
		`UPDATE auctions SET status = $1, sold_to = $2, sold_price = $3 WHERE auction_id = $4`,
		model.StatusSold, auction.HighestBidder, auction.CurrentHighest, auctionID); err != nil {
		return model.Auction{}, fmt.Errorf("accept bid on auction %s: %w", auctionID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Auction{}, fmt.Errorf("accept bid on auction %s: commit: %w", auctionID, err)
	}

	auction.Status = model.StatusSold
	auction.SoldTo = auction.HighestBidder
	auction.SoldPrice = auction.CurrentHighest
	return auction, nil
}

// MarkExpired is a single conditional update; zero rows affected means
// another writer already finalized the auction, which is fine.
func (r *PostgresStore) MarkExpired(ctx context.Context, auctionID string, now time.Time) (model.Auction, bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE auctions SET status = $1 WHERE auction_id = $2 AND status = $3 AND expires_at <= $4`,
		model.StatusExpired, auctionID, model.StatusActive, now)
	if err != nil {
		return model.Auction{}, false, fmt.Errorf("mark expired %s: %w", auctionID, err)
	}

	auction, err := r.GetByID(ctx, auctionID)
	if err != nil {
		return model.Auction{}, false, err
	}
	return auction, tag.RowsAffected() > 0, nil
}

// GetByID returns one auction in any state.
func (r *PostgresStore) GetByID(ctx context.Context, auctionID string) (model.Auction, error) {
	auction, err := scanAuction(r.db.QueryRow(ctx,
		`SELECT `+auctionColumns+` FROM auctions WHERE auction_id = $1`, auctionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, err)
	}
	return auction, nil
}

// GetActiveByItem returns the active auction selling the given item.
func (r *PostgresStore) GetActiveByItem(ctx context.Context, itemID string) (model.Auction, error) {
	auction, err := scanAuction(r.db.QueryRow(ctx,
		`SELECT `+auctionColumns+` FROM auctions WHERE item_id = $1 AND status = $2`, itemID, model.StatusActive))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Auction{}, fmt.Errorf("get active auction for item %s: %w", itemID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, fmt.Errorf("get active auction for item %s: %w", itemID, err)
	}
	return auction, nil
}

func (r *PostgresStore) listAuctions(ctx context.Context, query string, args ...any) ([]model.Auction, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Auction
	for rows.Next() {
		auction, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, auction)
	}
	return out, rows.Err()
}

// ListExpiring returns active auctions due within the window, soonest first.
func (r *PostgresStore) ListExpiring(ctx context.Context, now time.Time, within time.Duration) ([]model.Auction, error) {
	out, err := r.listAuctions(ctx,
		`SELECT `+auctionColumns+` FROM auctions
         WHERE status = $1 AND expires_at > $2 AND expires_at <= $3
         ORDER BY expires_at`, model.StatusActive, now, now.Add(within))
	if err != nil {
		return nil, fmt.Errorf("list expiring auctions: %w", err)
	}
	return out, nil
}

// ListOverdue returns active auctions whose expiry has passed.
func (r *PostgresStore) ListOverdue(ctx context.Context, now time.Time) ([]model.Auction, error) {
	out, err := r.listAuctions(ctx,
		`SELECT `+auctionColumns+` FROM auctions
         WHERE status = $1 AND expires_at <= $2
         ORDER BY expires_at`, model.StatusActive, now)
	if err != nil {
		return nil, fmt.Errorf("list overdue auctions: %w", err)
	}
	return out, nil
}

// Append records an accepted bid in the ledger.
func (r *PostgresStore) Append(ctx context.Context, bid model.Bid) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO bids (bid_id, auction_id, bidder, amount, created_at)
         VALUES ($1, $2, $3, $4, $5)`,
		bid.BidID, bid.AuctionID, bid.Bidder, bid.Amount, bid.CreatedAt)
	if err != nil {
		return fmt.Errorf("append bid for auction %s: %w", bid.AuctionID, err)
	}
	return nil
}

// ListByAuction returns an auction's bids most recent first.
func (r *PostgresStore) ListByAuction(ctx context.Context, auctionID string) ([]model.Bid, error) {
	if _, err := r.GetByID(ctx, auctionID); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT bid_id, auction_id, bidder, amount, created_at
         FROM bids WHERE auction_id = $1 ORDER BY created_at DESC`, auctionID)
	if err != nil {
		return nil, fmt.Errorf("list bids for auction %s: %w", auctionID, err)
	}
	defer rows.Close()

	var out []model.Bid
	for rows.Next() {
		var b model.Bid
		if err := rows.Scan(&b.BidID, &b.AuctionID, &b.Bidder, &b.Amount, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("list bids for auction %s: %w", auctionID, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateNotification persists a notification for its recipient.
func (r *PostgresStore) CreateNotification(ctx context.Context, n model.Notification) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO notifications (notification_id, recipient, type, message, auction_id, read, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.NotificationID, n.Recipient, n.Type, n.Message, n.AuctionID, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification for user %s: %w", n.Recipient, err)
	}
	return nil
}

// ListNotifications returns a page of the recipient's notifications, newest
// first, plus the total matching the filter.
func (r *PostgresStore) ListNotifications(ctx context.Context, recipient string, filter NotificationFilter) ([]model.Notification, int, error) {
	where := `WHERE recipient = $1`
	args := []any{recipient}
	if filter.Read != nil {
		where += ` AND read = $2`
		args = append(args, *filter.Read)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications for user %s: %w", recipient, err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := fmt.Sprintf(`SELECT notification_id, recipient, type, message, auction_id, read, created_at
         FROM notifications %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications for user %s: %w", recipient, err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.NotificationID, &n.Recipient, &n.Type, &n.Message, &n.AuctionID, &n.Read, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("list notifications for user %s: %w", recipient, err)
		}
		out = append(out, n)
	}
	return out, total, rows.Err()
}

// MarkRead marks one of the recipient's notifications as read.
func (r *PostgresStore) MarkRead(ctx context.Context, recipient, notificationID string) (model.Notification, error) {
	var n model.Notification
	err := r.db.QueryRow(ctx,
		`UPDATE notifications SET read = TRUE
         WHERE notification_id = $1 AND recipient = $2
         RETURNING notification_id, recipient, type, message, auction_id, read, created_at`,
		notificationID, recipient).
		Scan(&n.NotificationID, &n.Recipient, &n.Type, &n.Message, &n.AuctionID, &n.Read, &n.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Notification{}, fmt.Errorf("mark read %s for user %s: %w", notificationID, recipient, auctionerrors.ErrNotificationNotFound)
	}
	if err != nil {
		return model.Notification{}, fmt.Errorf("mark read %s for user %s: %w", notificationID, recipient, err)
	}
	return n, nil
}

// MarkAllRead marks every unread notification of the recipient as read.
func (r *PostgresStore) MarkAllRead(ctx context.Context, recipient string) (int, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE recipient = $1 AND read = FALSE`, recipient)
	if err != nil {
		return 0, fmt.Errorf("mark all read for user %s: %w", recipient, err)
	}
	return int(tag.RowsAffected()), nil
}

// UnreadCount returns how many of the recipient's notifications are unread.
func (r *PostgresStore) UnreadCount(ctx context.Context, recipient string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient = $1 AND read = FALSE`, recipient).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("unread count for user %s: %w", recipient, err)
	}
	return count, nil
}

// DeleteNotification removes one of the recipient's notifications.
func (r *PostgresStore) DeleteNotification(ctx context.Context, recipient, notificationID string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM notifications WHERE notification_id = $1 AND recipient = $2`, notificationID, recipient)
	if err != nil {
		return fmt.Errorf("delete notification %s for user %s: %w", notificationID, recipient, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete notification %s for user %s: %w", notificationID, recipient, auctionerrors.ErrNotificationNotFound)
	}
	return nil
}
