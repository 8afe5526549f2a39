// Package amm adapts the constant-formula market (Venue A) for the
// arbitrage flows. The adapter pins minimum-acceptable-output at the
// smallest positive unit and the execution deadline at the instant of
// invocation: profitability is enforced by the orchestrator's gate, not by
// a slippage floor here, and a swap that cannot clear immediately fails the
// whole operation with ErrDeadlineExceeded.
package amm

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/halcyoncap/arbengine/internal/domain"
)

// minOut is the smallest positive output the venue will accept.
var minOut = big.NewInt(1)

// Adapter wraps a domain.AMMVenue with the flows' fixed swap parameters.
type Adapter struct {
	venue  domain.AMMVenue
	now    func() time.Time
	logger *slog.Logger
}

// NewAdapter creates an Adapter over venue. The clock is the system clock;
// tests may replace it with WithClock.
func NewAdapter(venue domain.AMMVenue, logger *slog.Logger) *Adapter {
	return &Adapter{
		venue:  venue,
		now:    time.Now,
		logger: logger.With(slog.String("component", "amm")),
	}
}

// WithClock overrides the adapter's clock and returns the adapter.
func (a *Adapter) WithClock(now func() time.Time) *Adapter {
	a.now = now
	return a
}

// SwapTokenForBase sells amountIn of token for base asset and returns the
// base received.
func (a *Adapter) SwapTokenForBase(ctx context.Context, token common.Address, amountIn *big.Int) (*big.Int, error) {
	out, err := a.venue.SwapTokenForBase(ctx, token, amountIn, minOut, a.now())
	if err != nil {
		return nil, fmt.Errorf("amm: swap %s of %s for base: %w", amountIn, token, err)
	}

	a.logger.InfoContext(ctx, "swapped token for base",
		slog.String("token", token.Hex()),
		slog.String("amount_in", amountIn.String()),
		slog.String("base_out", out.String()),
	)
	return out, nil
}

// SwapBaseForToken sells amountIn of base asset for token and returns the
// token amount received.
func (a *Adapter) SwapBaseForToken(ctx context.Context, token common.Address, amountIn *big.Int) (*big.Int, error) {
	out, err := a.venue.SwapBaseForToken(ctx, token, amountIn, minOut, a.now())
	if err != nil {
		return nil, fmt.Errorf("amm: swap %s base for %s: %w", amountIn, token, err)
	}

	a.logger.InfoContext(ctx, "swapped base for token",
		slog.String("token", token.Hex()),
		slog.String("amount_in", amountIn.String()),
		slog.String("token_out", out.String()),
	)
	return out, nil
}
