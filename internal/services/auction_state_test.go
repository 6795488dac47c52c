package services

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"nft-marketplace/internal/blockchain"
	"nft-marketplace/internal/models"
)

func TestEffectiveState(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		state   models.AuctionState
		endTime time.Time
		want    models.AuctionState
	}{
		{"active before end", models.AuctionStateActive, now.Add(time.Hour), models.AuctionStateActive},
		{"active past end reads ended", models.AuctionStateActive, now.Add(-time.Hour), models.AuctionStateEnded},
		{"ended stays ended", models.AuctionStateEnded, now.Add(-time.Hour), models.AuctionStateEnded},
		{"finalized unaffected by end time", models.AuctionStateFinalized, now.Add(time.Hour), models.AuctionStateFinalized},
		{"cancelled past end stays cancelled", models.AuctionStateCancelled, now.Add(-time.Hour), models.AuctionStateCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &models.Auction{State: tt.state, EndTime: tt.endTime}
			if got := EffectiveState(a, now); got != tt.want {
				t.Errorf("EffectiveState() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestTimeRemaining(t *testing.T) {
	now := time.Now()

	a := &models.Auction{State: models.AuctionStateActive, EndTime: now.Add(90 * time.Second)}
	if got := TimeRemaining(a, now); got != 90 {
		t.Errorf("TimeRemaining() = %d, want 90", got)
	}

	a.EndTime = now.Add(-time.Second)
	if got := TimeRemaining(a, now); got != 0 {
		t.Errorf("TimeRemaining() past end = %d, want 0", got)
	}

	a.State = models.AuctionStateFinalized
	a.EndTime = now.Add(time.Hour)
	if got := TimeRemaining(a, now); got != 0 {
		t.Errorf("TimeRemaining() after settlement = %d, want 0", got)
	}
}

func TestValidateTransition(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		auction models.Auction
		to      models.AuctionState
		wantErr bool
	}{
		{
			"active past end to ended",
			models.Auction{State: models.AuctionStateActive, EndTime: now.Add(-time.Minute)},
			models.AuctionStateEnded,
			false,
		},
		{
			"active before end cannot end",
			models.Auction{State: models.AuctionStateActive, EndTime: now.Add(time.Minute)},
			models.AuctionStateEnded,
			true,
		},
		{
			"bid-free active cancels",
			models.Auction{State: models.AuctionStateActive, EndTime: now.Add(time.Hour)},
			models.AuctionStateCancelled,
			false,
		},
		{
			"active with bids cannot cancel",
			models.Auction{State: models.AuctionStateActive, EndTime: now.Add(time.Hour), TotalBids: 3},
			models.AuctionStateCancelled,
			true,
		},
		{
			"ended cannot cancel",
			models.Auction{State: models.AuctionStateEnded, EndTime: now.Add(-time.Hour)},
			models.AuctionStateCancelled,
			true,
		},
		{
			"ended finalizes",
			models.Auction{State: models.AuctionStateEnded, EndTime: now.Add(-time.Hour)},
			models.AuctionStateFinalized,
			false,
		},
		{
			"active past end finalizes via derived ended",
			models.Auction{State: models.AuctionStateActive, EndTime: now.Add(-time.Hour)},
			models.AuctionStateFinalized,
			false,
		},
		{
			"finalized cannot finalize again",
			models.Auction{State: models.AuctionStateFinalized, EndTime: now.Add(-time.Hour)},
			models.AuctionStateFinalized,
			true,
		},
		{
			"cancelled is terminal",
			models.Auction{State: models.AuctionStateCancelled, EndTime: now.Add(-time.Hour)},
			models.AuctionStateFinalized,
			true,
		},
		{
			"no transition back to active",
			models.Auction{State: models.AuctionStateEnded, EndTime: now.Add(-time.Hour)},
			models.AuctionStateActive,
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTransition(&tt.auction, tt.to, now)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTransition() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidStateTransition) {
				t.Errorf("ValidateTransition() error = %v, want ErrInvalidStateTransition", err)
			}
		})
	}
}

func TestCanClaim(t *testing.T) {
	winner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	other := common.HexToAddress("0x2222222222222222222222222222222222222222")

	finalized := &models.Auction{State: models.AuctionStateFinalized}
	chainWon := &blockchain.AuctionResult{Winner: winner, Finalized: true, HighestBid: big.NewInt(5)}

	if err := CanClaim(finalized, winner, chainWon); err != nil {
		t.Errorf("winner claim rejected: %v", err)
	}

	if err := CanClaim(finalized, other, chainWon); !errors.Is(err, ErrNotWinner) {
		t.Errorf("non-winner claim error = %v, want ErrNotWinner", err)
	}

	active := &models.Auction{State: models.AuctionStateActive}
	if err := CanClaim(active, winner, chainWon); !errors.Is(err, ErrNotFinalized) {
		t.Errorf("unsettled claim error = %v, want ErrNotFinalized", err)
	}

	claimed := &models.Auction{State: models.AuctionStateFinalized, AssetClaimed: true}
	if err := CanClaim(claimed, winner, chainWon); !errors.Is(err, ErrAlreadyClaimed) {
		t.Errorf("repeat claim error = %v, want ErrAlreadyClaimed", err)
	}

	noWinner := &blockchain.AuctionResult{Finalized: true, HighestBid: big.NewInt(0)}
	if err := CanClaim(finalized, winner, noWinner); !errors.Is(err, ErrNoWinner) {
		t.Errorf("zero-winner claim error = %v, want ErrNoWinner", err)
	}
}

func TestCanReclaim(t *testing.T) {
	seller := common.HexToAddress("0x3333333333333333333333333333333333333333")
	stranger := common.HexToAddress("0x4444444444444444444444444444444444444444")
	winner := common.HexToAddress("0x1111111111111111111111111111111111111111")

	finalized := &models.Auction{
		State:         models.AuctionStateFinalized,
		SellerAddress: seller.Hex(),
	}
	noWinner := &blockchain.AuctionResult{Finalized: true, HighestBid: big.NewInt(0)}

	if err := CanReclaim(finalized, seller, noWinner); err != nil {
		t.Errorf("seller reclaim rejected: %v", err)
	}

	if err := CanReclaim(finalized, stranger, noWinner); !errors.Is(err, ErrNotSeller) {
		t.Errorf("stranger reclaim error = %v, want ErrNotSeller", err)
	}

	won := &blockchain.AuctionResult{Winner: winner, Finalized: true, HighestBid: big.NewInt(5)}
	if err := CanReclaim(finalized, seller, won); !errors.Is(err, ErrWinnerExists) {
		t.Errorf("reclaim with on-chain winner error = %v, want ErrWinnerExists", err)
	}

	reclaimed := &models.Auction{
		State:          models.AuctionStateFinalized,
		SellerAddress:  seller.Hex(),
		AssetReclaimed: true,
	}
	if err := CanReclaim(reclaimed, seller, noWinner); !errors.Is(err, ErrAlreadyReclaimed) {
		t.Errorf("repeat reclaim error = %v, want ErrAlreadyReclaimed", err)
	}
}
