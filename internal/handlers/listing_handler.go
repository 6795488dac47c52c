package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"nft-marketplace/internal/auth"
	"nft-marketplace/internal/models"
	"nft-marketplace/internal/services"
)

// ListingHandler exposes fixed-price listing endpoints
type ListingHandler struct {
	listingService *services.ListingService
	logger         *zap.Logger
}

func NewListingHandler(listingService *services.ListingService, logger *zap.Logger) *ListingHandler {
	return &ListingHandler{
		listingService: listingService,
		logger:         logger,
	}
}

// CreateListing handles POST /api/listings
func (h *ListingHandler) CreateListing(c *gin.Context) {
	wallet, ok := auth.GetWalletAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req models.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	listing, err := h.listingService.CreateListing(c.Request.Context(), wallet, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, listing)
}

// GetListing handles GET /api/listings/:id
func (h *ListingHandler) GetListing(c *gin.Context) {
	id, ok := parseListingID(c)
	if !ok {
		return
	}

	listing, err := h.listingService.GetListing(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

// ListListings handles GET /api/listings
func (h *ListingHandler) ListListings(c *gin.Context) {
	var status *models.ListingStatus
	if s := c.Query("status"); s != "" {
		st := models.ListingStatus(s)
		status = &st
	}
	var seller *string
	if s := c.Query("seller"); s != "" {
		seller = &s
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	listings, total, err := h.listingService.ListListings(c.Request.Context(), status, seller, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listings": listings,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// Delist handles DELETE /api/listings/:id
func (h *ListingHandler) Delist(c *gin.Context) {
	wallet, ok := auth.GetWalletAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	id, ok := parseListingID(c)
	if !ok {
		return
	}

	if err := h.listingService.Delist(c.Request.Context(), id, wallet); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Listing delisted"})
}

// Purchase handles POST /api/listings/:id/purchase
func (h *ListingHandler) Purchase(c *gin.Context) {
	wallet, ok := auth.GetWalletAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	id, ok := parseListingID(c)
	if !ok {
		return
	}

	var req models.PurchaseListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	listing, err := h.listingService.Purchase(c.Request.Context(), id, wallet, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

func parseListingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing ID"})
		return uuid.Nil, false
	}
	return id, true
}
