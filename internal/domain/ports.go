package domain

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// MaxAllowance is the ceiling EnsureAllowance raises to. Approving once to
// the maximum amortizes the cost of repeated raises against trusted,
// pre-configured venue addresses.
var MaxAllowance = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Token is the generic fungible-asset interface. Approve and Transfer return
// the asset's boolean acknowledgment; callers must treat a false ack as a
// failure even when the call itself returned no error.
type Token interface {
	BalanceOf(ctx context.Context, holder common.Address) (*big.Int, error)
	Allowance(ctx context.Context, holder, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, spender common.Address, amount *big.Int) (bool, error)
	Transfer(ctx context.Context, to common.Address, amount *big.Int) (bool, error)
}

// WrappedBase is the wrapped form of the native base asset. Wrap converts
// raw base held by the engine into wrapped balance; Unwrap the reverse.
type WrappedBase interface {
	Token
	Address() common.Address
	Wrap(ctx context.Context, amount *big.Int) error
	Unwrap(ctx context.Context, amount *big.Int) error
	// RawBalance reports the engine's raw (unwrapped) base balance.
	RawBalance(ctx context.Context) (*big.Int, error)
	// TransferRaw sends raw base out of engine custody.
	TransferRaw(ctx context.Context, to common.Address, amount *big.Int) error
}

// TokenResolver turns an address-like identifier into a callable Token.
// There is no registry: any identifier is accepted at call time.
type TokenResolver interface {
	Token(addr common.Address) Token
}

// AMMVenue wraps the constant-formula market's swap calls. Implementations
// pass minOut and deadline through to the venue; a deadline rejection must
// surface as ErrDeadlineExceeded.
type AMMVenue interface {
	Address() common.Address
	SwapTokenForBase(ctx context.Context, token common.Address, amountIn, minOut *big.Int, deadline time.Time) (*big.Int, error)
	SwapBaseForToken(ctx context.Context, token common.Address, amountIn, minOut *big.Int, deadline time.Time) (*big.Int, error)
}

// AuctionVenue wraps the round-based batch auction. Rounds are opaque and
// roll forward independently of this engine, so CurrentRound is looked up
// fresh before every order and never cached.
type AuctionVenue interface {
	Address() common.Address
	CurrentRound(ctx context.Context, x, y common.Address) (*big.Int, error)
	Deposit(ctx context.Context, asset common.Address, amount *big.Int) (*big.Int, error)
	Withdraw(ctx context.Context, asset common.Address, amount *big.Int) (*big.Int, error)
	PlaceBuyOrder(ctx context.Context, sell, buy common.Address, round, amount *big.Int) error
	// ClaimProceeds returns the settled amount of buy claimed and the
	// leftover unmatched sell, which callers may ignore.
	ClaimProceeds(ctx context.Context, buy, sell common.Address, round *big.Int) (claimed, remainder *big.Int, err error)
	Balance(ctx context.Context, asset common.Address) (*big.Int, error)
}

// ResultStore persists opportunity-result history for external observers.
type ResultStore interface {
	Insert(ctx context.Context, res OpportunityResult) error
	ListRecent(ctx context.Context, limit int) ([]OpportunityResult, error)
}

// LockManager serializes mutating operations against the engine's custody
// state. Acquire returns an unlock function, or ErrLockHeld when another
// operation is in flight.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}
