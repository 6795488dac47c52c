package blockchain

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

func mustABI(t *testing.T) abi.ABI {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(sealedAuctionABI))
	if err != nil {
		t.Fatalf("failed to parse ABI: %v", err)
	}
	return parsed
}

func TestParseAuctionResult(t *testing.T) {
	parsed := mustABI(t)
	winner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	bid := big.NewInt(5_000_000)

	output, err := parsed.Methods["getAuctionResult"].Outputs.Pack(winner, true, bid)
	if err != nil {
		t.Fatalf("failed to pack outputs: %v", err)
	}

	result, err := parseAuctionResult(parsed, output)
	if err != nil {
		t.Fatalf("parseAuctionResult failed: %v", err)
	}
	if result.Winner != winner {
		t.Errorf("winner = %s, want %s", result.Winner.Hex(), winner.Hex())
	}
	if !result.Finalized {
		t.Error("finalized = false, want true")
	}
	if result.HighestBid.Cmp(bid) != 0 {
		t.Errorf("highest bid = %s, want %s", result.HighestBid, bid)
	}
	if !result.HasWinner() {
		t.Error("HasWinner() = false for a non-zero winner")
	}
}

func TestParseAuctionResultZeroWinner(t *testing.T) {
	parsed := mustABI(t)

	output, err := parsed.Methods["getAuctionResult"].Outputs.Pack(common.Address{}, true, big.NewInt(0))
	if err != nil {
		t.Fatalf("failed to pack outputs: %v", err)
	}

	result, err := parseAuctionResult(parsed, output)
	if err != nil {
		t.Fatalf("parseAuctionResult failed: %v", err)
	}
	if result.HasWinner() {
		t.Error("HasWinner() = true for the zero address")
	}
}

func TestParseAuctionResultMalformed(t *testing.T) {
	parsed := mustABI(t)

	if _, err := parseAuctionResult(parsed, nil); err == nil {
		t.Error("empty output accepted")
	}
	if _, err := parseAuctionResult(parsed, []byte{0x01, 0x02}); err == nil {
		t.Error("truncated output accepted")
	}
}
