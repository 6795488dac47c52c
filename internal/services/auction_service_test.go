package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"nft-marketplace/internal/blockchain"
	"nft-marketplace/internal/database"
	"nft-marketplace/internal/models"
	"nft-marketplace/internal/repository"
)

var (
	sellerAddr = common.HexToAddress("0x00000000000000000000000000000000000000aa").Hex()
	winnerAddr = common.HexToAddress("0x00000000000000000000000000000000000000bb").Hex()
	otherAddr  = common.HexToAddress("0x00000000000000000000000000000000000000cc").Hex()
	nftAddr    = common.HexToAddress("0x00000000000000000000000000000000000000dd").Hex()
)

// stubChain is a canned ChainReader for tests
type stubChain struct {
	result *blockchain.AuctionResult
	err    error
}

func (s *stubChain) FetchAuthoritativeWinner(ctx context.Context, auctionID uint64) (*blockchain.AuctionResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func newTestService(t *testing.T, chain ChainReader) (*AuctionService, *repository.Repository) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	repo := repository.NewRepository(db)
	return NewAuctionService(repo, chain, zap.NewNop()), repo
}

// seedAuction inserts a baseline ACTIVE single-asset auction, optionally
// mutated before the insert
func seedAuction(t *testing.T, repo *repository.Repository, auctionID int64, mutate func(*models.Auction)) *models.Auction {
	t.Helper()

	now := time.Now()
	assetID := int64(42)
	a := &models.Auction{
		ID:              uuid.New(),
		AuctionID:       auctionID,
		AuctionType:     models.AuctionTypeSingleAsset,
		AssetContract:   nftAddr,
		AssetID:         &assetID,
		SellerAddress:   sellerAddr,
		StartingPrice:   decimal.NewFromInt(1),
		ReservePrice:    decimal.NewFromInt(2),
		MinBidIncrement: decimal.NewFromInt(1),
		StartTime:       now.Add(-2 * time.Hour),
		EndTime:         now.Add(time.Hour),
		DurationHours:   3,
		State:           models.AuctionStateActive,
	}
	if mutate != nil {
		mutate(a)
	}
	if err := repo.CreateAuction(context.Background(), a); err != nil {
		t.Fatalf("failed to seed auction: %v", err)
	}
	return a
}

func TestSyncAuction(t *testing.T) {
	svc, _ := newTestService(t, &stubChain{})
	ctx := context.Background()

	now := time.Now()
	req := &models.SyncAuctionRequest{
		AuctionID:       7,
		AuctionType:     string(models.AuctionTypeSingleAsset),
		AssetContract:   nftAddr,
		AssetID:         int64Ptr(42),
		StartingPrice:   "1.5",
		ReservePrice:    "3",
		MinBidIncrement: "0.5",
		StartTime:       now.Unix(),
		EndTime:         now.Add(time.Hour).Unix(),
		DurationHours:   1,
		TxHash:          "0xabc",
	}

	resp, err := svc.SyncAuction(ctx, sellerAddr, req)
	if err != nil {
		t.Fatalf("SyncAuction failed: %v", err)
	}
	if resp.State != models.AuctionStateActive {
		t.Errorf("new auction state = %s, want ACTIVE", resp.State)
	}
	if resp.TimeRemaining <= 0 {
		t.Errorf("new auction time remaining = %d, want > 0", resp.TimeRemaining)
	}

	// Same chain auction cannot be mirrored twice.
	if _, err := svc.SyncAuction(ctx, sellerAddr, req); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("duplicate sync error = %v, want ErrAlreadyExists", err)
	}
}

func TestSyncAuctionValidation(t *testing.T) {
	svc, _ := newTestService(t, &stubChain{})
	ctx := context.Background()
	now := time.Now()

	base := func() *models.SyncAuctionRequest {
		return &models.SyncAuctionRequest{
			AuctionID:       8,
			AuctionType:     string(models.AuctionTypeSingleAsset),
			AssetContract:   nftAddr,
			AssetID:         int64Ptr(1),
			StartingPrice:   "1",
			ReservePrice:    "2",
			MinBidIncrement: "1",
			StartTime:       now.Unix(),
			EndTime:         now.Add(time.Hour).Unix(),
			DurationHours:   1,
			TxHash:          "0xabc",
		}
	}

	tests := []struct {
		name   string
		mutate func(*models.SyncAuctionRequest)
	}{
		{"unknown auction type", func(r *models.SyncAuctionRequest) { r.AuctionType = "DUTCH" }},
		{"single asset without asset id", func(r *models.SyncAuctionRequest) { r.AssetID = nil }},
		{"collection without asset ids", func(r *models.SyncAuctionRequest) {
			r.AuctionType = string(models.AuctionTypeCollection)
		}},
		{"bad asset contract", func(r *models.SyncAuctionRequest) { r.AssetContract = "not-an-address" }},
		{"zero starting price", func(r *models.SyncAuctionRequest) { r.StartingPrice = "0" }},
		{"negative reserve", func(r *models.SyncAuctionRequest) { r.ReservePrice = "-1" }},
		{"end before start", func(r *models.SyncAuctionRequest) { r.EndTime = r.StartTime - 60 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.mutate(req)
			if _, err := svc.SyncAuction(ctx, sellerAddr, req); !errors.Is(err, ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCancelBidFreeAuction(t *testing.T) {
	svc, repo := newTestService(t, &stubChain{})
	ctx := context.Background()

	seedAuction(t, repo, 7, nil)

	// Only the seller can cancel.
	if _, err := svc.UpdateState(ctx, 7, otherAddr, "CANCELLED"); !errors.Is(err, ErrNotSeller) {
		t.Errorf("stranger cancel error = %v, want ErrNotSeller", err)
	}

	resp, err := svc.UpdateState(ctx, 7, sellerAddr, "CANCELLED")
	if err != nil {
		t.Fatalf("seller cancel failed: %v", err)
	}
	if resp.State != models.AuctionStateCancelled {
		t.Errorf("state after cancel = %s, want CANCELLED", resp.State)
	}

	// CANCELLED is terminal.
	if _, err := svc.UpdateState(ctx, 7, sellerAddr, "CANCELLED"); err == nil {
		t.Error("repeat cancel succeeded, want rejection")
	}
}

func TestCancelRejectedWithBids(t *testing.T) {
	svc, repo := newTestService(t, &stubChain{})
	ctx := context.Background()

	seedAuction(t, repo, 9, func(a *models.Auction) {
		a.TotalBids = 2
		a.UniqueBidders = 2
	})

	if _, err := svc.UpdateState(ctx, 9, sellerAddr, "CANCELLED"); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("cancel with bids error = %v, want ErrInvalidStateTransition", err)
	}
}

func TestUpdateStateEnded(t *testing.T) {
	svc, repo := newTestService(t, &stubChain{})
	ctx := context.Background()

	seedAuction(t, repo, 10, nil)

	// Before the end time the transition is premature.
	if _, err := svc.UpdateState(ctx, 10, sellerAddr, "ENDED"); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("early end error = %v, want ErrInvalidStateTransition", err)
	}

	seedAuction(t, repo, 11, func(a *models.Auction) {
		a.EndTime = time.Now().Add(-time.Minute)
	})

	resp, err := svc.UpdateState(ctx, 11, otherAddr, "ENDED")
	if err != nil {
		t.Fatalf("end transition failed: %v", err)
	}
	if resp.State != models.AuctionStateEnded {
		t.Errorf("state = %s, want ENDED", resp.State)
	}
}

func TestUpdateStateRejectsDirectTargets(t *testing.T) {
	svc, repo := newTestService(t, &stubChain{})
	ctx := context.Background()

	seedAuction(t, repo, 12, nil)

	for _, target := range []string{"FINALIZED", "ACTIVE", "SETTLED"} {
		if _, err := svc.UpdateState(ctx, 12, sellerAddr, target); !errors.Is(err, ErrValidation) {
			t.Errorf("UpdateState(%s) error = %v, want ErrValidation", target, err)
		}
	}
}

func TestGetAuctionDerivesExpiry(t *testing.T) {
	svc, repo := newTestService(t, &stubChain{})
	ctx := context.Background()

	seedAuction(t, repo, 13, func(a *models.Auction) {
		a.EndTime = time.Now().Add(-time.Minute)
	})

	resp, err := svc.GetAuction(ctx, 13)
	if err != nil {
		t.Fatalf("GetAuction failed: %v", err)
	}
	if resp.State != models.AuctionStateEnded {
		t.Errorf("derived state = %s, want ENDED", resp.State)
	}
	if resp.TimeRemaining != 0 {
		t.Errorf("time remaining = %d, want 0", resp.TimeRemaining)
	}

	// The stored row is untouched; expiry is derived at read time.
	stored, err := repo.GetAuctionByAuctionID(ctx, 13)
	if err != nil {
		t.Fatalf("failed to read stored auction: %v", err)
	}
	if stored.State != models.AuctionStateActive {
		t.Errorf("stored state = %s, want ACTIVE", stored.State)
	}
}

func TestGetAuctionNotFound(t *testing.T) {
	svc, _ := newTestService(t, &stubChain{})

	if _, err := svc.GetAuction(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestAdvanceExpired(t *testing.T) {
	svc, repo := newTestService(t, &stubChain{})
	ctx := context.Background()

	seedAuction(t, repo, 20, func(a *models.Auction) {
		a.EndTime = time.Now().Add(-time.Minute)
	})
	seedAuction(t, repo, 21, nil)

	count, err := svc.AdvanceExpired(ctx)
	if err != nil {
		t.Fatalf("AdvanceExpired failed: %v", err)
	}
	if count != 1 {
		t.Errorf("advanced %d auctions, want 1", count)
	}

	stored, _ := repo.GetAuctionByAuctionID(ctx, 20)
	if stored.State != models.AuctionStateEnded {
		t.Errorf("expired auction state = %s, want ENDED", stored.State)
	}
	live, _ := repo.GetAuctionByAuctionID(ctx, 21)
	if live.State != models.AuctionStateActive {
		t.Errorf("live auction state = %s, want ACTIVE", live.State)
	}
}

func int64Ptr(v int64) *int64 {
	return &v
}
