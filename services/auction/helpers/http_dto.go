package helpers

// Request/Response DTOs
type CreateAuctionRequest struct {
	ItemID        string `json:"item_id" binding:"required"`
	StartPrice    *int64 `json:"start_price" binding:"required,gte=0"`
	MinIncrement  int64  `json:"min_increment" binding:"omitempty,gte=1"`
	DurationHours int    `json:"duration_hours" binding:"omitempty,gte=1"`
}

type PlaceBidRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type BidResponse struct {
	BidID     string `json:"bid_id"`
	AuctionID string `json:"auction_id"`
	Bidder    string `json:"bidder"`
	Amount    int64  `json:"amount"`
	CreatedAt string `json:"created_at"`
}
