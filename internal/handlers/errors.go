package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"nft-marketplace/internal/services"
)

// respondError maps service failures to HTTP codes. Unrecognized errors are
// reported as 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidStateTransition),
		errors.Is(err, services.ErrNotFinalized),
		errors.Is(err, services.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotWinner),
		errors.Is(err, services.ErrNotSeller),
		errors.Is(err, services.ErrNoWinner),
		errors.Is(err, services.ErrWinnerExists):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrChainUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "chain unavailable, retry later"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
