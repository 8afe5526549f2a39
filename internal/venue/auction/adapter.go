// Package auction adapts the round-based batch auction (Venue B) for the
// arbitrage flows: round lookup, order placement, proceeds claiming, and
// withdrawal of claimed funds.
package auction

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/halcyoncap/arbengine/internal/domain"
)

// Adapter wraps a domain.AuctionVenue. Rounds roll forward independently of
// this engine, so the adapter never caches a round index across calls.
type Adapter struct {
	venue  domain.AuctionVenue
	logger *slog.Logger
}

// NewAdapter creates an Adapter over venue.
func NewAdapter(venue domain.AuctionVenue, logger *slog.Logger) *Adapter {
	return &Adapter{
		venue:  venue,
		logger: logger.With(slog.String("component", "auction")),
	}
}

// CurrentRound returns the opaque round index for the unordered pair (x, y).
// The pair is normalized before the venue call so argument order cannot
// affect the result.
func (a *Adapter) CurrentRound(ctx context.Context, x, y common.Address) (*big.Int, error) {
	if bytes.Compare(x.Bytes(), y.Bytes()) > 0 {
		x, y = y, x
	}
	round, err := a.venue.CurrentRound(ctx, x, y)
	if err != nil {
		return nil, fmt.Errorf("auction: round lookup for %s/%s: %w", x, y, err)
	}
	return round, nil
}

// PlaceBuyOrder commits amount of sell into the round's order book to buy
// buy. The venue caps the order at the engine's available deposited
// balance, so an oversized amount sweeps whatever is there.
func (a *Adapter) PlaceBuyOrder(ctx context.Context, sell, buy common.Address, round, amount *big.Int) error {
	if err := a.venue.PlaceBuyOrder(ctx, sell, buy, round, amount); err != nil {
		return fmt.Errorf("auction: place buy order %s->%s round %s: %w", sell, buy, round, err)
	}

	a.logger.InfoContext(ctx, "buy order placed",
		slog.String("sell", sell.Hex()),
		slog.String("buy", buy.Hex()),
		slog.String("round", round.String()),
		slog.String("amount", amount.String()),
	)
	return nil
}

// ClaimProceeds claims the engine's settled share of bought for the round
// and returns the amount claimed. The venue also reports leftover unmatched
// sold, which the flows ignore.
func (a *Adapter) ClaimProceeds(ctx context.Context, bought, sold common.Address, round *big.Int) (*big.Int, error) {
	claimed, _, err := a.venue.ClaimProceeds(ctx, bought, sold, round)
	if err != nil {
		return nil, fmt.Errorf("auction: claim %s proceeds round %s: %w", bought, round, err)
	}

	a.logger.InfoContext(ctx, "proceeds claimed",
		slog.String("bought", bought.Hex()),
		slog.String("round", round.String()),
		slog.String("claimed", claimed.String()),
	)
	return claimed, nil
}

// Withdraw moves amount of already-claimed asset out of venue custody into
// engine custody.
func (a *Adapter) Withdraw(ctx context.Context, asset common.Address, amount *big.Int) error {
	if _, err := a.venue.Withdraw(ctx, asset, amount); err != nil {
		return fmt.Errorf("auction: withdraw %s of %s: %v: %w", amount, asset, err, domain.ErrVenueWithdrawFailed)
	}

	a.logger.InfoContext(ctx, "claimed funds withdrawn",
		slog.String("asset", asset.Hex()),
		slog.String("amount", amount.String()),
	)
	return nil
}
