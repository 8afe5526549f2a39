package custody

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/halcyoncap/arbengine/internal/domain"
)

// Treasury exposes the operator-triggered fund movements that sit outside
// the arbitrage flows: pulling idle balances back to the operator, topping
// up token inventory, and recovering proceeds the automated flows did not
// sweep. It shares the Ledger's custody view but never runs a flow.
type Treasury struct {
	guard   domain.Guard
	ledger  *Ledger
	wrapped domain.WrappedBase
	auction domain.AuctionVenue
	tokens  domain.TokenResolver
	logger  *slog.Logger
}

// NewTreasury creates a Treasury guarded by the given operator principal.
func NewTreasury(
	guard domain.Guard,
	ledger *Ledger,
	wrapped domain.WrappedBase,
	auction domain.AuctionVenue,
	tokens domain.TokenResolver,
	logger *slog.Logger,
) *Treasury {
	return &Treasury{
		guard:   guard,
		ledger:  ledger,
		wrapped: wrapped,
		auction: auction,
		tokens:  tokens,
		logger:  logger.With(slog.String("component", "treasury")),
	}
}

// TransferBaseOut sends amount of raw base from engine custody to the
// operator. A zero amount means the entire raw balance.
func (t *Treasury) TransferBaseOut(ctx context.Context, caller common.Address, amount *big.Int) error {
	if err := t.guard.Check(caller); err != nil {
		return err
	}

	if amount.Sign() == 0 {
		raw, err := t.wrapped.RawBalance(ctx)
		if err != nil {
			return fmt.Errorf("treasury: read raw base balance: %w", err)
		}
		amount = raw
	}
	if amount.Sign() == 0 {
		return nil
	}

	if err := t.wrapped.TransferRaw(ctx, t.guard.Operator(), amount); err != nil {
		return fmt.Errorf("treasury: transfer %s raw base to operator: %w", amount, err)
	}

	t.logger.InfoContext(ctx, "raw base transferred to operator", slog.String("amount", amount.String()))
	return nil
}

// WithdrawWrappedOut withdraws amount of wrapped base from the auction venue
// and transfers the wrapped tokens to the operator.
func (t *Treasury) WithdrawWrappedOut(ctx context.Context, caller common.Address, amount *big.Int) error {
	if err := t.guard.Check(caller); err != nil {
		return err
	}

	actual, err := t.auction.Withdraw(ctx, t.wrapped.Address(), amount)
	if err != nil {
		return fmt.Errorf("treasury: withdraw %s wrapped base: %v: %w", amount, err, domain.ErrVenueWithdrawFailed)
	}

	ok, err := t.wrapped.Transfer(ctx, t.guard.Operator(), actual)
	if err != nil {
		return fmt.Errorf("treasury: transfer %s wrapped base to operator: %w", actual, err)
	}
	if !ok {
		return fmt.Errorf("treasury: wrapped base transfer of %s: %w", actual, domain.ErrAckMissing)
	}

	t.logger.InfoContext(ctx, "wrapped base withdrawn to operator", slog.String("amount", actual.String()))
	return nil
}

// TransferTokenOut sends amount of an arbitrary token from engine custody to
// the operator.
func (t *Treasury) TransferTokenOut(ctx context.Context, caller, token common.Address, amount *big.Int) error {
	if err := t.guard.Check(caller); err != nil {
		return err
	}

	ok, err := t.tokens.Token(token).Transfer(ctx, t.guard.Operator(), amount)
	if err != nil {
		return fmt.Errorf("treasury: transfer %s of %s to operator: %w", amount, token, err)
	}
	if !ok {
		return fmt.Errorf("treasury: transfer of %s %s: %w", amount, token, domain.ErrAckMissing)
	}

	t.logger.InfoContext(ctx, "token transferred to operator",
		slog.String("token", token.Hex()),
		slog.String("amount", amount.String()),
	)
	return nil
}

// DepositTokenIn moves amount of token from engine custody into auction-venue
// custody, raising the allowance first when needed.
func (t *Treasury) DepositTokenIn(ctx context.Context, caller, token common.Address, amount *big.Int) error {
	if err := t.guard.Check(caller); err != nil {
		return err
	}
	return t.ledger.DepositToken(ctx, token, amount)
}

// ClaimRound manually claims this engine's settled base proceeds from selling
// token in the given round. It recovers funds the automated flows did not
// sweep; claimed proceeds stay in venue custody.
func (t *Treasury) ClaimRound(ctx context.Context, caller, token common.Address, round *big.Int) (*big.Int, error) {
	if err := t.guard.Check(caller); err != nil {
		return nil, err
	}

	claimed, _, err := t.auction.ClaimProceeds(ctx, t.wrapped.Address(), token, round)
	if err != nil {
		return nil, fmt.Errorf("treasury: claim round %s proceeds for %s: %w", round, token, err)
	}

	t.logger.InfoContext(ctx, "round proceeds claimed",
		slog.String("token", token.Hex()),
		slog.String("round", round.String()),
		slog.String("claimed", claimed.String()),
	)
	return claimed, nil
}
