package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/halcyoncap/arbengine/internal/domain"
)

const auctionABIJSON = `[
	{"type":"function","name":"wrappedBaseAssetAddress","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"getAuctionIndex","stateMutability":"view","inputs":[{"name":"a","type":"address"},{"name":"b","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balances","stateMutability":"view","inputs":[{"name":"asset","type":"address"},{"name":"holder","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"deposit","stateMutability":"nonpayable","inputs":[{"name":"asset","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[{"name":"asset","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"postBuyOrder","stateMutability":"nonpayable","inputs":[{"name":"sell","type":"address"},{"name":"buy","type":"address"},{"name":"round","type":"uint256"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"claimBuyerFunds","stateMutability":"nonpayable","inputs":[{"name":"buy","type":"address"},{"name":"sell","type":"address"},{"name":"claimant","type":"address"},{"name":"round","type":"uint256"}],"outputs":[{"name":"claimed","type":"uint256"},{"name":"remainder","type":"uint256"}]}
]`

var auctionABI = mustABI(auctionABIJSON)

// Auction implements domain.AuctionVenue over the round-based batch auction
// contract. Amounts a state-changing call "returns" are recovered from
// venue-tracked balance reads around the transaction.
type Auction struct {
	client   *Client
	addr     common.Address
	contract *bind.BoundContract
}

// NewAuction binds the auction contract at addr.
func NewAuction(client *Client, addr common.Address) *Auction {
	return &Auction{
		client:   client,
		addr:     addr,
		contract: bind.NewBoundContract(addr, auctionABI, client.eth, client.eth, client.eth),
	}
}

// Address returns the auction contract address.
func (a *Auction) Address() common.Address {
	return a.addr
}

// WrappedBaseAsset reads the venue's wrapped base-asset address.
func (a *Auction) WrappedBaseAsset(ctx context.Context) (common.Address, error) {
	var out []any
	if err := a.contract.Call(a.client.callOpts(ctx), &out, "wrappedBaseAssetAddress"); err != nil {
		return common.Address{}, fmt.Errorf("chain: wrapped base lookup: %w", err)
	}
	return out[0].(common.Address), nil
}

// CurrentRound reads the round index for the pair.
func (a *Auction) CurrentRound(ctx context.Context, x, y common.Address) (*big.Int, error) {
	var out []any
	if err := a.contract.Call(a.client.callOpts(ctx), &out, "getAuctionIndex", x, y); err != nil {
		return nil, fmt.Errorf("chain: getAuctionIndex %s/%s: %w", x, y, err)
	}
	return out[0].(*big.Int), nil
}

// Balance reads the engine's venue-tracked balance of asset.
func (a *Auction) Balance(ctx context.Context, asset common.Address) (*big.Int, error) {
	var out []any
	if err := a.contract.Call(a.client.callOpts(ctx), &out, "balances", asset, a.client.From()); err != nil {
		return nil, fmt.Errorf("chain: venue balance of %s: %w", asset, err)
	}
	return out[0].(*big.Int), nil
}

// Deposit moves amount of asset into venue custody and returns the venue's
// reported new balance.
func (a *Auction) Deposit(ctx context.Context, asset common.Address, amount *big.Int) (*big.Int, error) {
	if _, err := a.client.transact(ctx, a.contract, nil, "deposit", asset, amount); err != nil {
		return nil, err
	}
	return a.Balance(ctx, asset)
}

// Withdraw moves amount of asset out of venue custody and returns the
// amount the venue actually released.
func (a *Auction) Withdraw(ctx context.Context, asset common.Address, amount *big.Int) (*big.Int, error) {
	before, err := a.Balance(ctx, asset)
	if err != nil {
		return nil, err
	}

	if _, err := a.client.transact(ctx, a.contract, nil, "withdraw", asset, amount); err != nil {
		return nil, err
	}

	after, err := a.Balance(ctx, asset)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Sub(before, after), nil
}

// PlaceBuyOrder commits amount of sell into the round's order book. The
// venue caps the order at the engine's deposited balance.
func (a *Auction) PlaceBuyOrder(ctx context.Context, sell, buy common.Address, round, amount *big.Int) error {
	_, err := a.client.transact(ctx, a.contract, nil, "postBuyOrder", sell, buy, round, amount)
	return err
}

// ClaimProceeds claims the engine's settled share of buy for the round. The
// claimed amount is the venue-balance delta around the claim; the venue's
// reported leftover unmatched sell is not observable off-chain and callers
// ignore it, so it reads as zero.
func (a *Auction) ClaimProceeds(ctx context.Context, buy, sell common.Address, round *big.Int) (*big.Int, *big.Int, error) {
	before, err := a.Balance(ctx, buy)
	if err != nil {
		return nil, nil, err
	}

	if _, err := a.client.transact(ctx, a.contract, nil, "claimBuyerFunds", buy, sell, a.client.From(), round); err != nil {
		return nil, nil, err
	}

	after, err := a.Balance(ctx, buy)
	if err != nil {
		return nil, nil, err
	}
	return new(big.Int).Sub(after, before), big.NewInt(0), nil
}

var _ domain.AuctionVenue = (*Auction)(nil)
