package handler

import (
	"context"
	"net/http"
	"time"

	auction "campus-auction/internal/auctionService"
	model "campus-auction/internal/models"
	"campus-auction/services/auction/helpers"
	"campus-auction/utils"

	"github.com/gin-gonic/gin"
)

type AuctionServiceInterface interface {
	CreateAuction(ctx context.Context, seller, itemID string, startPrice, minIncrement int64, durationHours int) (model.Auction, error)
	PlaceBid(ctx context.Context, bidder, auctionID string, amount int64) (model.Auction, model.Bid, error)
	AcceptHighestBid(ctx context.Context, seller, auctionID string) (model.Auction, error)
	GetAuctionView(ctx context.Context, itemID string) (auction.View, error)
	GetBidsForAuction(ctx context.Context, auctionID string) ([]model.Bid, error)
}

type AuctionHandler struct {
	service AuctionServiceInterface
}

func NewAuctionHandler(service AuctionServiceInterface) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// CreateAuctionHandler handles POST /auctions
func (h *AuctionHandler) CreateAuctionHandler(c *gin.Context) {
	seller, _ := utils.UserIDFrom(c)

	var req helpers.CreateAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateAuctionHandler", err)
		return
	}

	created, err := h.service.CreateAuction(c.Request.Context(), seller, req.ItemID, *req.StartPrice, req.MinIncrement, req.DurationHours)
	if err != nil {
		helpers.RespondError(c, "CreateAuctionHandler", err, map[string]any{
			"item_id": req.ItemID,
			"seller":  seller,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, created, "auction created successfully")
	helpers.LogSuccess("CreateAuctionHandler", "auction created successfully", map[string]any{
		"auction_id": created.AuctionID,
		"item_id":    created.ItemID,
		"seller":     seller,
		"expires_at": created.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// PlaceBidHandler handles POST /auctions/:id/bids
func (h *AuctionHandler) PlaceBidHandler(c *gin.Context) {
	bidder, _ := utils.UserIDFrom(c)
	auctionID := c.Param("id")

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	updated, bid, err := h.service.PlaceBid(c.Request.Context(), bidder, auctionID, req.Amount)
	if err != nil {
		helpers.RespondError(c, "PlaceBidHandler", err, map[string]any{
			"auction_id": auctionID,
			"bidder":     bidder,
			"amount":     req.Amount,
		})
		return
	}

	resp := gin.H{
		"auction": updated,
		"bid": helpers.BidResponse{
			BidID:     bid.BidID,
			AuctionID: bid.AuctionID,
			Bidder:    bid.Bidder,
			Amount:    bid.Amount,
			CreatedAt: bid.CreatedAt.UTC().Format(time.RFC3339),
		},
	}

	utils.JSONResponse(c, http.StatusCreated, resp, "bid placed successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"auction_id": auctionID,
		"bid_id":     bid.BidID,
		"bidder":     bidder,
		"amount":     bid.Amount,
	})
}

// AcceptBidHandler handles POST /auctions/:id/accept
func (h *AuctionHandler) AcceptBidHandler(c *gin.Context) {
	seller, _ := utils.UserIDFrom(c)
	auctionID := c.Param("id")

	sold, err := h.service.AcceptHighestBid(c.Request.Context(), seller, auctionID)
	if err != nil {
		helpers.RespondError(c, "AcceptBidHandler", err, map[string]any{
			"auction_id": auctionID,
			"seller":     seller,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, sold, "bid accepted successfully")
	helpers.LogSuccess("AcceptBidHandler", "bid accepted successfully", map[string]any{
		"auction_id": auctionID,
		"sold_to":    sold.SoldTo,
		"sold_price": sold.SoldPrice,
	})
}

// GetAuctionByItemHandler handles GET /items/:item_id/auction
func (h *AuctionHandler) GetAuctionByItemHandler(c *gin.Context) {
	itemID := c.Param("item_id")

	view, err := h.service.GetAuctionView(c.Request.Context(), itemID)
	if err != nil {
		helpers.RespondError(c, "GetAuctionByItemHandler", err, map[string]any{"item_id": itemID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, view, "auction retrieved successfully")
	helpers.LogSuccess("GetAuctionByItemHandler", "auction retrieved successfully", map[string]any{
		"item_id":    itemID,
		"auction_id": view.AuctionID,
	})
}

// GetAuctionBidsHandler handles GET /auctions/:id/bids
func (h *AuctionHandler) GetAuctionBidsHandler(c *gin.Context) {
	auctionID := c.Param("id")

	bids, err := h.service.GetBidsForAuction(c.Request.Context(), auctionID)
	if err != nil {
		helpers.RespondError(c, "GetAuctionBidsHandler", err, map[string]any{"auction_id": auctionID})
		return
	}

	if bids == nil {
		bids = []model.Bid{}
	}

	utils.JSONResponse(c, http.StatusOK, bids, "bids retrieved successfully")
	helpers.LogSuccess("GetAuctionBidsHandler", "bids retrieved successfully", map[string]any{
		"auction_id": auctionID,
		"count":      len(bids),
	})
}
