package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nft-marketplace/internal/auth"
	"nft-marketplace/internal/models"
	"nft-marketplace/internal/services"
)

// AuctionHandler exposes the auction projection and settlement endpoints
type AuctionHandler struct {
	auctionService *services.AuctionService
	logger         *zap.Logger
}

func NewAuctionHandler(auctionService *services.AuctionService, logger *zap.Logger) *AuctionHandler {
	return &AuctionHandler{
		auctionService: auctionService,
		logger:         logger,
	}
}

// SyncAuction handles POST /api/auctions
func (h *AuctionHandler) SyncAuction(c *gin.Context) {
	wallet, ok := auth.GetWalletAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.SyncAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	auction, err := h.auctionService.SyncAuction(c.Request.Context(), wallet, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, auction)
}

// GetAuction handles GET /api/auctions/:auctionId
func (h *AuctionHandler) GetAuction(c *gin.Context) {
	auctionID, ok := parseAuctionID(c)
	if !ok {
		return
	}

	auction, err := h.auctionService.GetAuction(c.Request.Context(), auctionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, auction)
}

// ListAuctions handles GET /api/auctions
func (h *AuctionHandler) ListAuctions(c *gin.Context) {
	var filter models.AuctionListFilter

	if state := c.Query("state"); state != "" {
		s := models.AuctionState(state)
		filter.State = &s
	}
	if seller := c.Query("seller"); seller != "" {
		filter.SellerAddress = &seller
	}
	if auctionType := c.Query("type"); auctionType != "" {
		t := models.AuctionType(auctionType)
		filter.AuctionType = &t
	}
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	auctions, total, err := h.auctionService.ListAuctions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"auctions": auctions,
		"total":    total,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})
}

// UpdateState handles PUT /api/auctions/:auctionId/state
func (h *AuctionHandler) UpdateState(c *gin.Context) {
	wallet, ok := auth.GetWalletAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	auctionID, ok := parseAuctionID(c)
	if !ok {
		return
	}

	var req models.UpdateStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	auction, err := h.auctionService.UpdateState(c.Request.Context(), auctionID, wallet, req.NewState)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, auction)
}

// Finalize handles POST /api/auctions/:auctionId/finalize
func (h *AuctionHandler) Finalize(c *gin.Context) {
	auctionID, ok := parseAuctionID(c)
	if !ok {
		return
	}

	var req models.FinalizeAuctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	auction, err := h.auctionService.Finalize(c.Request.Context(), auctionID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, auction)
}

// Claim handles POST /api/auctions/:auctionId/claim
func (h *AuctionHandler) Claim(c *gin.Context) {
	h.settle(c, h.auctionService.Claim)
}

// Reclaim handles POST /api/auctions/:auctionId/reclaim
func (h *AuctionHandler) Reclaim(c *gin.Context) {
	h.settle(c, h.auctionService.Reclaim)
}

type settleFunc func(ctx context.Context, auctionID int64, actor, txHash string) (*models.SettlementResponse, error)

// settle runs a claim or reclaim. A repeat of an already recorded settlement
// returns 200 with already_done set, so client retries converge on success.
func (h *AuctionHandler) settle(c *gin.Context, fn settleFunc) {
	wallet, ok := auth.GetWalletAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	auctionID, ok := parseAuctionID(c)
	if !ok {
		return
	}

	var req models.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	result, err := fn(c.Request.Context(), auctionID, wallet, req.TxHash)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyClaimed) || errors.Is(err, services.ErrAlreadyReclaimed) {
			c.JSON(http.StatusOK, result)
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// SyncBidHistory handles POST /api/auctions/:auctionId/bids/sync
func (h *AuctionHandler) SyncBidHistory(c *gin.Context) {
	wallet, ok := auth.GetWalletAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	auctionID, ok := parseAuctionID(c)
	if !ok {
		return
	}

	var req models.SyncBidHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	bids, err := h.auctionService.ReplaceBidHistory(c.Request.Context(), auctionID, wallet, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"auction_id": auctionID,
		"bids":       bids,
	})
}

// GetBidHistory handles GET /api/auctions/:auctionId/bids. Authentication is
// optional; an authenticated bidder sees their own hidden bid unmasked.
func (h *AuctionHandler) GetBidHistory(c *gin.Context) {
	auctionID, ok := parseAuctionID(c)
	if !ok {
		return
	}

	var requester *string
	if wallet, ok := auth.GetWalletAddress(c); ok {
		requester = &wallet
	}

	bids, err := h.auctionService.GetBidHistory(c.Request.Context(), auctionID, requester)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"auction_id": auctionID,
		"bids":       bids,
	})
}

// UpdateBidVisibility handles PUT /api/auctions/:auctionId/bids/:bidder/visibility
func (h *AuctionHandler) UpdateBidVisibility(c *gin.Context) {
	wallet, ok := auth.GetWalletAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	auctionID, ok := parseAuctionID(c)
	if !ok {
		return
	}

	var req models.UpdateVisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	err := h.auctionService.SetBidVisibility(
		c.Request.Context(), auctionID, wallet, c.Param("bidder"), req.Visibility)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"auction_id": auctionID,
		"bidder":     c.Param("bidder"),
		"visibility": req.Visibility,
	})
}

func parseAuctionID(c *gin.Context) (int64, bool) {
	auctionID, err := strconv.ParseInt(c.Param("auctionId"), 10, 64)
	if err != nil || auctionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid auction ID"})
		return 0, false
	}
	return auctionID, true
}
