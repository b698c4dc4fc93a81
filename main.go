package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	auction "campus-auction/internal/auctionService"
	"campus-auction/internal/config"
	"campus-auction/internal/db"
	model "campus-auction/internal/models"
	notification "campus-auction/internal/notificationService"
	"campus-auction/internal/push"
	"campus-auction/internal/repository"
	"campus-auction/internal/scheduler"
	"campus-auction/internal/server"
	"campus-auction/utils"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		utils.Fatal("failed to load config", map[string]any{"error": err.Error()})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, ledger, notifications, catalog := buildStores(ctx, cfg)
	channel := buildPushChannel(cfg)

	notificationSvc := notification.NewService(notifications, channel)
	auctionSvc := auction.NewService(store, ledger, catalog, notificationSvc)
	defer auctionSvc.Flush()

	sched := scheduler.New(auctionSvc, scheduler.Config{
		ExpiringInterval: cfg.ExpiringSweepInterval,
		ExpiredInterval:  cfg.ExpiredSweepInterval,
		ExpiringWindow:   cfg.ExpiringWindow,
	})
	go sched.Run(ctx)

	router := server.SetupRouter(auctionSvc, notificationSvc)

	utils.Info("starting auction server", map[string]any{"address": cfg.ServerAddress})
	if err := router.Run(cfg.ServerAddress); err != nil {
		utils.Fatal("failed to start server", map[string]any{"error": err.Error()})
	}
}

// buildStores selects Postgres when configured, else the in-memory store.
// The product catalog is an external collaborator; until the catalog service
// integration lands it is served from the same store, seeded with sample
// items in memory mode.
func buildStores(ctx context.Context, cfg config.Config) (repository.AuctionStore, repository.BidLedger, repository.NotificationStore, repository.ProductCatalog) {
	memory := repository.NewMemoryStore()

	if cfg.PostgresConn == "" {
		prepopulateProducts(memory)
		utils.Info("using in-memory store", nil)
		return memory, memory, memory, memory
	}

	if err := db.Migrate(cfg); err != nil {
		utils.Fatal("failed to run migrations", map[string]any{"error": err.Error()})
	}
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		utils.Fatal("failed to connect to database", map[string]any{"error": err.Error()})
	}

	pg := repository.NewPostgresStore(pool)
	prepopulateProducts(memory)
	return pg, pg, pg, memory
}

// buildPushChannel connects the Redis live-delivery channel when configured.
func buildPushChannel(cfg config.Config) push.Channel {
	if cfg.RedisAddr == "" {
		utils.Info("live push disabled, notifications are storage-only", nil)
		return push.NoopChannel{}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return push.NewRedisChannel(client)
}

// prepopulateProducts adds sample catalog items
func prepopulateProducts(repo *repository.MemoryStore) {
	products := []model.Product{
		{ProductID: "item1", Title: "Calculus Textbook", Description: "Third edition, lightly used"},
		{ProductID: "item2", Title: "Desk Lamp", Description: "LED, adjustable arm"},
		{ProductID: "item3", Title: "Mini Fridge", Description: "Fits under a dorm desk"},
	}

	for _, product := range products {
		repo.AddProduct(product)
	}
}
