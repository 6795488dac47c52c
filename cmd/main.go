package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nft-marketplace/internal/auth"
	"nft-marketplace/internal/blockchain"
	"nft-marketplace/internal/config"
	"nft-marketplace/internal/database"
	"nft-marketplace/internal/handlers"
	"nft-marketplace/internal/jobs"
	"nft-marketplace/internal/logger"
	"nft-marketplace/internal/repository"
	"nft-marketplace/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer log.Sync()

	auth.InitJWT(cfg.App.JWTSecret)

	db, err := database.Connect(cfg.GetDSN())
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}
	log.Info("database ready")

	chainClient, err := blockchain.NewClient(
		cfg.Chain.RPCURL,
		cfg.Chain.AuctionContract,
		cfg.Chain.RequestTimeout,
		log,
	)
	if err != nil {
		log.Fatal("failed to create chain client", zap.Error(err))
	}
	log.Info("chain client ready", zap.String("contract", cfg.Chain.AuctionContract))

	repo := repository.NewRepository(db)

	auctionService := services.NewAuctionService(repo, chainClient, log)
	listingService := services.NewListingService(repo, log)
	userService := services.NewUserService(repo, log)

	auctionHandler := handlers.NewAuctionHandler(auctionService, log)
	listingHandler := handlers.NewListingHandler(listingService, log)
	userHandler := handlers.NewUserHandler(userService, log)
	authHandler := handlers.NewAuthHandler(userService, log)

	reconcileJob := jobs.NewReconcileJob(auctionService, cfg.Jobs.ReconcileSpec, log)
	if err := reconcileJob.Start(); err != nil {
		log.Fatal("failed to start reconcile sweep", zap.Error(err))
	}

	router := setupRouter(auctionHandler, listingHandler, userHandler, authHandler)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	reconcileJob.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}

func setupRouter(
	auctionHandler *handlers.AuctionHandler,
	listingHandler *handlers.ListingHandler,
	userHandler *handlers.UserHandler,
	authHandler *handlers.AuthHandler,
) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/auth/wallet", authHandler.WalletLogin)
	router.GET("/auth/me", auth.AuthMiddleware(), authHandler.Me)

	api := router.Group("/api")
	{
		// Public reads. Bid history takes an optional token so bidders can
		// see their own hidden bids.
		api.GET("/auctions", auctionHandler.ListAuctions)
		api.GET("/auctions/:auctionId", auctionHandler.GetAuction)
		api.GET("/auctions/:auctionId/bids", auth.OptionalAuthMiddleware(), auctionHandler.GetBidHistory)

		api.GET("/listings", listingHandler.ListListings)
		api.GET("/listings/:id", listingHandler.GetListing)
		api.GET("/users/:wallet", userHandler.GetProfile)

		authed := api.Group("")
		authed.Use(auth.AuthMiddleware())
		{
			authed.POST("/auctions", auctionHandler.SyncAuction)
			authed.PUT("/auctions/:auctionId/state", auctionHandler.UpdateState)
			authed.POST("/auctions/:auctionId/finalize", auctionHandler.Finalize)
			authed.POST("/auctions/:auctionId/claim", auctionHandler.Claim)
			authed.POST("/auctions/:auctionId/reclaim", auctionHandler.Reclaim)
			authed.POST("/auctions/:auctionId/bids/sync", auctionHandler.SyncBidHistory)
			authed.PUT("/auctions/:auctionId/bids/:bidder/visibility", auctionHandler.UpdateBidVisibility)

			authed.POST("/listings", listingHandler.CreateListing)
			authed.DELETE("/listings/:id", listingHandler.Delist)
			authed.POST("/listings/:id/purchase", listingHandler.Purchase)

			authed.GET("/user/profile", userHandler.GetOwnProfile)
			authed.PUT("/user/profile", userHandler.UpdateProfile)
		}
	}

	return router
}
