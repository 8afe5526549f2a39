// Package custody implements the engine's custody ledger: allowance
// bookkeeping and base-asset movement between engine custody and the
// auction venue. Every venue interaction in the arbitrage flows goes
// through this package first.
package custody

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/halcyoncap/arbengine/internal/domain"
)

// Ledger tracks the engine's raw balances and per-token allowance state.
// Allowance state itself is owned by each asset; the ledger only reads it
// and issues raises.
type Ledger struct {
	custodian common.Address
	wrapped   domain.WrappedBase
	auction   domain.AuctionVenue
	tokens    domain.TokenResolver
	logger    *slog.Logger
}

// NewLedger creates a Ledger for the engine account at custodian.
func NewLedger(
	custodian common.Address,
	wrapped domain.WrappedBase,
	auction domain.AuctionVenue,
	tokens domain.TokenResolver,
	logger *slog.Logger,
) *Ledger {
	return &Ledger{
		custodian: custodian,
		wrapped:   wrapped,
		auction:   auction,
		tokens:    tokens,
		logger:    logger.With(slog.String("component", "custody")),
	}
}

// EnsureAllowance guarantees that spender may pull at least atLeast of token
// from engine custody. When the current allowance is already sufficient it
// issues no call; otherwise it raises the allowance to the maximum
// representable value so repeated operations never need a second raise.
func (l *Ledger) EnsureAllowance(ctx context.Context, token, spender common.Address, atLeast *big.Int) error {
	tok := l.tokens.Token(token)

	current, err := tok.Allowance(ctx, l.custodian, spender)
	if err != nil {
		return fmt.Errorf("custody: read allowance of %s for %s: %w", token, spender, err)
	}
	if current.Cmp(atLeast) >= 0 {
		return nil
	}

	ok, err := tok.Approve(ctx, spender, domain.MaxAllowance)
	if err != nil {
		return fmt.Errorf("custody: approve %s for %s: %v: %w", token, spender, err, domain.ErrAllowanceGrantFailed)
	}
	if !ok {
		return fmt.Errorf("custody: approve %s for %s returned false: %w", token, spender, domain.ErrAllowanceGrantFailed)
	}

	l.logger.InfoContext(ctx, "allowance raised to max",
		slog.String("token", token.Hex()),
		slog.String("spender", spender.Hex()),
	)
	return nil
}

// DepositBase converts 100% of the engine's raw base balance into wrapped
// form and deposits it into auction-venue custody. A venue-reported balance
// below the amount sent indicates a silent short-deposit and fails the call.
func (l *Ledger) DepositBase(ctx context.Context) error {
	raw, err := l.wrapped.RawBalance(ctx)
	if err != nil {
		return fmt.Errorf("custody: read raw base balance: %w", err)
	}
	if raw.Sign() == 0 {
		return nil
	}

	if err := l.wrapped.Wrap(ctx, raw); err != nil {
		return fmt.Errorf("custody: wrap %s base: %v: %w", raw, err, domain.ErrWrapFailed)
	}

	if err := l.EnsureAllowance(ctx, l.wrapped.Address(), l.auction.Address(), raw); err != nil {
		return err
	}

	newBal, err := l.auction.Deposit(ctx, l.wrapped.Address(), raw)
	if err != nil {
		return fmt.Errorf("custody: deposit %s wrapped base: %v: %w", raw, err, domain.ErrVenueDepositFailed)
	}
	if newBal.Cmp(raw) < 0 {
		return fmt.Errorf("custody: venue reports %s wrapped base after depositing %s: %w", newBal, raw, domain.ErrVenueDepositFailed)
	}

	l.logger.InfoContext(ctx, "base deposited to auction venue", slog.String("amount", raw.String()))
	return nil
}

// WithdrawBase withdraws amount of wrapped base from the auction venue and
// unwraps it into raw form in engine custody. The post-unwrap raw balance
// must cover amount; anything less points at a bad state upstream.
func (l *Ledger) WithdrawBase(ctx context.Context, amount *big.Int) error {
	actual, err := l.auction.Withdraw(ctx, l.wrapped.Address(), amount)
	if err != nil {
		return fmt.Errorf("custody: withdraw %s wrapped base: %v: %w", amount, err, domain.ErrVenueWithdrawFailed)
	}

	if err := l.wrapped.Unwrap(ctx, actual); err != nil {
		return fmt.Errorf("custody: unwrap %s base: %v: %w", actual, err, domain.ErrUnwrapFailed)
	}

	raw, err := l.wrapped.RawBalance(ctx)
	if err != nil {
		return fmt.Errorf("custody: read raw base balance: %w", err)
	}
	if raw.Cmp(amount) < 0 {
		return fmt.Errorf("custody: raw base %s after withdrawing %s: %w", raw, amount, domain.ErrInsufficientUnwrapped)
	}

	l.logger.InfoContext(ctx, "base withdrawn from auction venue", slog.String("amount", amount.String()))
	return nil
}

// DepositToken ensures the auction venue's allowance and deposits amount of
// token into venue custody, with the same short-deposit check as DepositBase.
func (l *Ledger) DepositToken(ctx context.Context, token common.Address, amount *big.Int) error {
	if err := l.EnsureAllowance(ctx, token, l.auction.Address(), amount); err != nil {
		return err
	}

	newBal, err := l.auction.Deposit(ctx, token, amount)
	if err != nil {
		return fmt.Errorf("custody: deposit %s of %s: %v: %w", amount, token, err, domain.ErrVenueDepositFailed)
	}
	if newBal.Cmp(amount) < 0 {
		return fmt.Errorf("custody: venue reports %s of %s after depositing %s: %w", newBal, token, amount, domain.ErrVenueDepositFailed)
	}

	l.logger.InfoContext(ctx, "token deposited to auction venue",
		slog.String("token", token.Hex()),
		slog.String("amount", amount.String()),
	)
	return nil
}

// Custodian returns the engine account address the ledger books against.
func (l *Ledger) Custodian() common.Address {
	return l.custodian
}
