package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// ErrUnavailable signals that the chain could not be reached or returned a
// malformed response. Callers must fail closed on it; a defaulted winner
// would let anyone claim with no real victory.
var ErrUnavailable = errors.New("chain unavailable")

const sealedAuctionABI = `[
	{"constant":true,"inputs":[{"name":"auctionId","type":"uint256"}],"name":"getAuctionResult","outputs":[{"name":"winner","type":"address"},{"name":"finalized","type":"bool"},{"name":"highestBid","type":"uint256"}],"stateMutability":"view","type":"function"}
]`

// AuctionResult holds the authoritative per-auction settlement fields as read
// from the contract
type AuctionResult struct {
	Winner     common.Address
	Finalized  bool
	HighestBid *big.Int
}

// HasWinner reports whether a real (non-zero) winner emerged
func (r *AuctionResult) HasWinner() bool {
	return r.Winner != (common.Address{})
}

// Client is a read-only accessor for the sealed-bid auction contract. It
// bypasses any off-chain cache; every call is a fresh eth_call.
type Client struct {
	eth      *ethclient.Client
	abi      abi.ABI
	contract common.Address
	timeout  time.Duration
	logger   *zap.Logger
}

// NewClient dials the RPC endpoint and parses the contract ABI
func NewClient(rpcURL, contractAddress string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	if !common.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("invalid auction contract address: %s", contractAddress)
	}

	eth, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain RPC: %w", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(sealedAuctionABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse auction ABI: %w", err)
	}

	return &Client{
		eth:      eth,
		abi:      parsedABI,
		contract: common.HexToAddress(contractAddress),
		timeout:  timeout,
		logger:   logger,
	}, nil
}

// FetchAuthoritativeWinner reads (winner, finalized, highestBid) for one
// auction directly from the contract. Returns ErrUnavailable on any RPC
// failure or malformed response.
func (c *Client) FetchAuthoritativeWinner(ctx context.Context, auctionID uint64) (*AuctionResult, error) {
	callData, err := c.abi.Pack("getAuctionResult", new(big.Int).SetUint64(auctionID))
	if err != nil {
		return nil, fmt.Errorf("failed to pack call data: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg := ethereum.CallMsg{
		To:   &c.contract,
		Data: callData,
	}

	output, err := c.eth.CallContract(callCtx, msg, nil)
	if err != nil {
		c.logger.Warn("auction contract call failed",
			zap.Uint64("auction_id", auctionID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	result, err := parseAuctionResult(c.abi, output)
	if err != nil {
		c.logger.Warn("auction contract returned malformed data",
			zap.Uint64("auction_id", auctionID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return result, nil
}

func parseAuctionResult(parsedABI abi.ABI, output []byte) (*AuctionResult, error) {
	if len(output) == 0 {
		return nil, errors.New("empty call result")
	}

	values, err := parsedABI.Unpack("getAuctionResult", output)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack result: %w", err)
	}
	if len(values) != 3 {
		return nil, fmt.Errorf("unexpected result arity: %d", len(values))
	}

	winner, ok := values[0].(common.Address)
	if !ok {
		return nil, errors.New("winner field is not an address")
	}
	finalized, ok := values[1].(bool)
	if !ok {
		return nil, errors.New("finalized field is not a bool")
	}
	highestBid, ok := values[2].(*big.Int)
	if !ok {
		return nil, errors.New("highestBid field is not a uint256")
	}

	return &AuctionResult{
		Winner:     winner,
		Finalized:  finalized,
		HighestBid: highestBid,
	}, nil
}
