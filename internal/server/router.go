package server

import (
	ahandler "campus-auction/services/auction/handler"
	nhandler "campus-auction/services/notification/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(auctionService ahandler.AuctionServiceInterface, notificationService nhandler.NotificationServiceInterface) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := ahandler.NewAuctionHandler(auctionService)
	notificationHandler := nhandler.NewNotificationHandler(notificationService)

	auctions := router.Group("/auctions")
	{
		// reads need no identity
		auctions.GET("/:id/bids", auctionHandler.GetAuctionBidsHandler)

		authed := auctions.Group("", IdentityMiddleware)
		authed.POST("", auctionHandler.CreateAuctionHandler)
		authed.POST("/:id/bids", auctionHandler.PlaceBidHandler)
		authed.POST("/:id/accept", auctionHandler.AcceptBidHandler)
	}

	items := router.Group("/items")
	{
		items.GET("/:item_id/auction", auctionHandler.GetAuctionByItemHandler)
	}

	notifications := router.Group("/notifications", IdentityMiddleware)
	{
		notifications.GET("", notificationHandler.ListNotificationsHandler)
		notifications.GET("/unread-count", notificationHandler.UnreadCountHandler)
		notifications.PATCH("/:id/read", notificationHandler.MarkReadHandler)
		notifications.PATCH("/read-all", notificationHandler.MarkAllReadHandler)
		notifications.DELETE("/:id", notificationHandler.DeleteNotificationHandler)
	}

	return router
}
