package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"nft-marketplace/internal/blockchain"
	"nft-marketplace/internal/models"
)

func TestClaim(t *testing.T) {
	svc, repo := newTestService(t, &stubChain{result: wonResult(winnerAddr, 5)})
	ctx := context.Background()

	seedAuction(t, repo, 9, func(a *models.Auction) {
		a.State = models.AuctionStateFinalized
		a.EndTime = time.Now().Add(-time.Hour)
		a.WinnerAddress = &winnerAddr
	})

	resp, err := svc.Claim(ctx, 9, winnerAddr, "0xabc")
	if err != nil {
		t.Fatalf("Claim failed: %v", err)
	}
	if !resp.AssetClaimed || resp.AlreadyDone {
		t.Errorf("first claim: claimed=%v alreadyDone=%v, want true/false", resp.AssetClaimed, resp.AlreadyDone)
	}
	if resp.ClaimTxHash == nil || *resp.ClaimTxHash != "0xabc" {
		t.Errorf("claim tx hash = %v, want 0xabc", resp.ClaimTxHash)
	}

	// A retried claim reports already-done with the original tx hash intact.
	resp, err = svc.Claim(ctx, 9, winnerAddr, "0xdef")
	if !errors.Is(err, ErrAlreadyClaimed) {
		t.Fatalf("repeat claim error = %v, want ErrAlreadyClaimed", err)
	}
	if resp == nil || !resp.AlreadyDone {
		t.Fatalf("repeat claim response = %+v, want already_done", resp)
	}
	if *resp.ClaimTxHash != "0xabc" {
		t.Errorf("repeat claim tx hash = %s, want original 0xabc", *resp.ClaimTxHash)
	}
}

func TestClaimByNonWinner(t *testing.T) {
	svc, repo := newTestService(t, &stubChain{result: wonResult(winnerAddr, 5)})
	ctx := context.Background()

	// The projection's winner column is deliberately wrong; the contract
	// answer must win.
	seedAuction(t, repo, 40, func(a *models.Auction) {
		a.State = models.AuctionStateFinalized
		a.EndTime = time.Now().Add(-time.Hour)
		a.WinnerAddress = &otherAddr
	})

	if _, err := svc.Claim(ctx, 40, otherAddr, "0xabc"); !errors.Is(err, ErrNotWinner) {
		t.Errorf("stale-projection claim error = %v, want ErrNotWinner", err)
	}

	// The real winner still gets through.
	if _, err := svc.Claim(ctx, 40, winnerAddr, "0xabc"); err != nil {
		t.Errorf("true winner claim failed: %v", err)
	}
}

func TestClaimBeforeFinalized(t *testing.T) {
	svc, repo := newTestService(t, &stubChain{result: wonResult(winnerAddr, 5)})
	ctx := context.Background()

	seedAuction(t, repo, 41, func(a *models.Auction) {
		a.State = models.AuctionStateEnded
		a.EndTime = time.Now().Add(-time.Hour)
	})

	if _, err := svc.Claim(ctx, 41, winnerAddr, "0xabc"); !errors.Is(err, ErrNotFinalized) {
		t.Errorf("error = %v, want ErrNotFinalized", err)
	}
}

func TestClaimFailsClosedWhenChainDown(t *testing.T) {
	svc, repo := newTestService(t, &stubChain{err: blockchain.ErrUnavailable})
	ctx := context.Background()

	seedAuction(t, repo, 42, func(a *models.Auction) {
		a.State = models.AuctionStateFinalized
		a.EndTime = time.Now().Add(-time.Hour)
		a.WinnerAddress = &winnerAddr
	})

	if _, err := svc.Claim(ctx, 42, winnerAddr, "0xabc"); !errors.Is(err, ErrChainUnavailable) {
		t.Errorf("error = %v, want ErrChainUnavailable", err)
	}

	stored, _ := repo.GetAuctionByAuctionID(ctx, 42)
	if stored.AssetClaimed {
		t.Error("claim flag set despite unreachable chain")
	}
}

func TestClaimNoWinnerOnChain(t *testing.T) {
	svc, repo := newTestService(t, &stubChain{result: noWinnerResult()})
	ctx := context.Background()

	seedAuction(t, repo, 43, func(a *models.Auction) {
		a.State = models.AuctionStateFinalized
		a.EndTime = time.Now().Add(-time.Hour)
	})

	if _, err := svc.Claim(ctx, 43, winnerAddr, "0xabc"); !errors.Is(err, ErrNoWinner) {
		t.Errorf("error = %v, want ErrNoWinner", err)
	}
}

func TestReclaim(t *testing.T) {
	svc, repo := newTestService(t, &stubChain{result: noWinnerResult()})
	ctx := context.Background()

	seedAuction(t, repo, 50, func(a *models.Auction) {
		a.State = models.AuctionStateFinalized
		a.EndTime = time.Now().Add(-time.Hour)
	})

	if _, err := svc.Reclaim(ctx, 50, otherAddr, "0xabc"); !errors.Is(err, ErrNotSeller) {
		t.Errorf("stranger reclaim error = %v, want ErrNotSeller", err)
	}

	resp, err := svc.Reclaim(ctx, 50, sellerAddr, "0xabc")
	if err != nil {
		t.Fatalf("Reclaim failed: %v", err)
	}
	if !resp.AssetReclaimed || resp.AlreadyDone {
		t.Errorf("first reclaim: reclaimed=%v alreadyDone=%v, want true/false", resp.AssetReclaimed, resp.AlreadyDone)
	}

	resp, err = svc.Reclaim(ctx, 50, sellerAddr, "0xdef")
	if !errors.Is(err, ErrAlreadyReclaimed) {
		t.Fatalf("repeat reclaim error = %v, want ErrAlreadyReclaimed", err)
	}
	if resp == nil || !resp.AlreadyDone {
		t.Fatalf("repeat reclaim response = %+v, want already_done", resp)
	}
}

func TestReclaimRejectedWhenChainShowsWinner(t *testing.T) {
	svc, repo := newTestService(t, &stubChain{result: wonResult(winnerAddr, 5)})
	ctx := context.Background()

	seedAuction(t, repo, 51, func(a *models.Auction) {
		a.State = models.AuctionStateFinalized
		a.EndTime = time.Now().Add(-time.Hour)
	})

	if _, err := svc.Reclaim(ctx, 51, sellerAddr, "0xabc"); !errors.Is(err, ErrWinnerExists) {
		t.Errorf("error = %v, want ErrWinnerExists", err)
	}
}

func TestClaimAndReclaimAreMutuallyExclusive(t *testing.T) {
	chain := &stubChain{result: wonResult(winnerAddr, 5)}
	svc, repo := newTestService(t, chain)
	ctx := context.Background()

	seedAuction(t, repo, 52, func(a *models.Auction) {
		a.State = models.AuctionStateFinalized
		a.EndTime = time.Now().Add(-time.Hour)
		a.WinnerAddress = &winnerAddr
	})

	if _, err := svc.Claim(ctx, 52, winnerAddr, "0xabc"); err != nil {
		t.Fatalf("Claim failed: %v", err)
	}

	// Even if the chain view later claimed no winner, the claimed asset can
	// never also be reclaimed.
	chain.result = noWinnerResult()
	_, err := svc.Reclaim(ctx, 52, sellerAddr, "0xdef")
	if err == nil {
		t.Fatal("reclaim after claim succeeded")
	}
	if errors.Is(err, ErrAlreadyReclaimed) {
		t.Fatalf("reclaim after claim error = %v, must not read as already reclaimed", err)
	}

	stored, _ := repo.GetAuctionByAuctionID(ctx, 52)
	if stored.AssetReclaimed {
		t.Error("reclaim flag set on a claimed asset")
	}
}

func TestClaimRequiresTxHash(t *testing.T) {
	svc, repo := newTestService(t, &stubChain{result: wonResult(winnerAddr, 5)})
	ctx := context.Background()

	seedAuction(t, repo, 53, func(a *models.Auction) {
		a.State = models.AuctionStateFinalized
		a.EndTime = time.Now().Add(-time.Hour)
	})

	if _, err := svc.Claim(ctx, 53, winnerAddr, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}
