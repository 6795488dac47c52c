package handlers

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nft-marketplace/internal/auth"
	"nft-marketplace/internal/services"
)

// AuthHandler handles wallet-based authentication
type AuthHandler struct {
	userService *services.UserService
	logger      *zap.Logger
}

func NewAuthHandler(userService *services.UserService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		logger:      logger,
	}
}

// WalletLoginRequest carries a personal_sign proof of wallet ownership
type WalletLoginRequest struct {
	WalletAddress string `json:"wallet_address" binding:"required"`
	Message       string `json:"message" binding:"required"`
	Signature     string `json:"signature" binding:"required"`
}

// WalletLogin handles POST /auth/wallet. The client signs a message with
// their wallet; a valid signature proves ownership of the address and yields
// a JWT. Users are created on first login.
func (h *AuthHandler) WalletLogin(c *gin.Context) {
	var req WalletLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := verifyPersonalSignature(req.WalletAddress, req.Message, req.Signature); err != nil {
		h.logger.Warn("wallet login rejected",
			zap.String("wallet", req.WalletAddress),
			zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	user, err := h.userService.ProcessWalletLogin(c.Request.Context(), req.WalletAddress)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := auth.GenerateToken(user.ID, user.WalletAddress)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	wallet, ok := auth.GetWalletAddress(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// verifyPersonalSignature checks an EIP-191 personal_sign signature and that
// the recovering key matches the claimed address
func verifyPersonalSignature(walletAddress, message, signature string) error {
	if !common.IsHexAddress(walletAddress) {
		return fmt.Errorf("invalid wallet address")
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil {
		return fmt.Errorf("signature is not hex: %w", err)
	}
	if len(sig) != 65 {
		return fmt.Errorf("signature must be 65 bytes, got %d", len(sig))
	}

	// Wallets produce V as 27/28; crypto.SigToPub expects 0/1.
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	hash := accounts.TextHash([]byte(message))
	pubKey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return fmt.Errorf("failed to recover public key: %w", err)
	}

	recovered := crypto.PubkeyToAddress(*pubKey)
	if recovered != common.HexToAddress(walletAddress) {
		return fmt.Errorf("signature does not match wallet address")
	}
	return nil
}
