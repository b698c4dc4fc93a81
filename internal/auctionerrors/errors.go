package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound      = errors.New("auction not found")
	ErrProductNotFound      = errors.New("product not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// business rule errors
var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrNotSeller              = errors.New("only the seller may do this")
	ErrDuplicateActiveAuction = errors.New("an active auction already exists for this item")
	ErrSelfBidNotAllowed      = errors.New("cannot bid on your own auction")
	ErrBidTooLow              = errors.New("bid amount too low")
	ErrAuctionExpired         = errors.New("auction has expired")
	ErrAuctionNotActive       = errors.New("auction is not active")
	ErrNoBids                 = errors.New("no bids to accept")
	ErrAlreadyFinalized       = errors.New("auction already finalized")
)

// internal-only; logged and swallowed, never returned to bid/accept callers
var ErrNotificationDelivery = errors.New("notification delivery failed")
