// Package orchestrator implements the two opportunity flows and the
// profitability gate. Each flow is a fixed linear sequence of venue calls
// with a single decision point: unless the base asset returned covers the
// amount committed, the operation fails with ErrNoProfit and the saga's
// compensating calls restore the custody distribution.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/halcyoncap/arbengine/internal/domain"
)

// lockKey serializes all mutating operations against the engine's custody
// state; only one flow may run at a time.
const lockKey = "arbitrage"

// AMMSwapper is the Venue A surface the flows need.
type AMMSwapper interface {
	SwapTokenForBase(ctx context.Context, token common.Address, amountIn *big.Int) (*big.Int, error)
	SwapBaseForToken(ctx context.Context, token common.Address, amountIn *big.Int) (*big.Int, error)
}

// AuctionHouse is the Venue B surface the flows need.
type AuctionHouse interface {
	CurrentRound(ctx context.Context, x, y common.Address) (*big.Int, error)
	PlaceBuyOrder(ctx context.Context, sell, buy common.Address, round, amount *big.Int) error
	ClaimProceeds(ctx context.Context, bought, sold common.Address, round *big.Int) (*big.Int, error)
	Withdraw(ctx context.Context, asset common.Address, amount *big.Int) error
}

// CustodyLedger is the allowance and base-movement surface the flows need.
type CustodyLedger interface {
	EnsureAllowance(ctx context.Context, token, spender common.Address, atLeast *big.Int) error
	DepositBase(ctx context.Context) error
	WithdrawBase(ctx context.Context, amount *big.Int) error
	DepositToken(ctx context.Context, token common.Address, amount *big.Int) error
}

// ResultSink receives every emitted opportunity record. Sinks are
// best-effort observers; their failures never void a completed flow.
type ResultSink interface {
	EmitResult(ctx context.Context, res domain.OpportunityResult)
}

// Orchestrator runs the two opportunity flows. Base asset is always at rest
// at the auction venue between operations.
type Orchestrator struct {
	guard   domain.Guard
	ledger  CustodyLedger
	amm     AMMSwapper
	auction AuctionHouse

	wrappedBase    common.Address
	ammSpender     common.Address
	auctionSpender common.Address

	locks   domain.LockManager
	lockTTL time.Duration

	store  domain.ResultStore
	sinks  []ResultSink
	logger *slog.Logger
}

// New creates an Orchestrator. wrappedBase is the base asset's identifier
// inside the auction venue; ammSpender and auctionSpender are the venue
// addresses allowances are raised for. locks and store may be nil (no
// serialization, no persisted history), which is only appropriate in tests.
func New(
	guard domain.Guard,
	ledger CustodyLedger,
	amm AMMSwapper,
	auction AuctionHouse,
	wrappedBase common.Address,
	ammSpender common.Address,
	auctionSpender common.Address,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		guard:          guard,
		ledger:         ledger,
		amm:            amm,
		auction:        auction,
		wrappedBase:    wrappedBase,
		ammSpender:     ammSpender,
		auctionSpender: auctionSpender,
		lockTTL:        2 * time.Minute,
		logger:         logger.With(slog.String("component", "orchestrator")),
	}
}

// SetLockManager enables cross-process serialization of flows.
func (o *Orchestrator) SetLockManager(locks domain.LockManager, ttl time.Duration) {
	o.locks = locks
	if ttl > 0 {
		o.lockTTL = ttl
	}
}

// SetResultStore enables persisted opportunity-result history.
func (o *Orchestrator) SetResultStore(store domain.ResultStore) {
	o.store = store
}

// AddResultSink registers an observer for emitted records.
func (o *Orchestrator) AddResultSink(sink ResultSink) {
	o.sinks = append(o.sinks, sink)
}

// AuctionToAMM buys arbToken with amount of base asset in the auction's
// current round, sells the proceeds on the AMM, and keeps the result only
// if the base returned covers the amount committed. Base asset is assumed
// to already reside at the auction venue; on success the proceeds are
// re-deposited there.
func (o *Orchestrator) AuctionToAMM(ctx context.Context, caller, arbToken common.Address, amount *big.Int) (domain.OpportunityResult, error) {
	if err := o.guard.Check(caller); err != nil {
		return domain.OpportunityResult{}, err
	}

	unlock, err := o.acquireLock(ctx)
	if err != nil {
		return domain.OpportunityResult{}, err
	}
	defer unlock()

	log := o.logger.With(
		slog.String("flow", string(domain.FlowAuctionToAMM)),
		slog.String("token", arbToken.Hex()),
		slog.String("amount", amount.String()),
	)
	sg := newSaga(log)

	// 1. Round lookup, never cached.
	round, err := o.auction.CurrentRound(ctx, arbToken, o.wrappedBase)
	if err != nil {
		return o.fail(ctx, sg, domain.FlowAuctionToAMM, arbToken, amount, err)
	}

	// 2. Spend base to buy the arb token in this round.
	if err := o.auction.PlaceBuyOrder(ctx, o.wrappedBase, arbToken, round, amount); err != nil {
		return o.fail(ctx, sg, domain.FlowAuctionToAMM, arbToken, amount, err)
	}

	// 3. Claim settled tokens.
	tokensBought, err := o.auction.ClaimProceeds(ctx, arbToken, o.wrappedBase, round)
	if err != nil {
		return o.fail(ctx, sg, domain.FlowAuctionToAMM, arbToken, amount, err)
	}

	// 4. Withdraw the tokens into engine custody. Shared flow-local state:
	// the reverse-swap compensator refills held before this one re-deposits.
	held := new(big.Int).Set(tokensBought)
	if err := o.auction.Withdraw(ctx, arbToken, tokensBought); err != nil {
		return o.fail(ctx, sg, domain.FlowAuctionToAMM, arbToken, amount, err)
	}
	sg.push("redeposit arb token", func(ctx context.Context) error {
		return o.ledger.DepositToken(ctx, arbToken, held)
	})

	// 5. The AMM must be able to pull the tokens.
	if err := o.ledger.EnsureAllowance(ctx, arbToken, o.ammSpender, tokensBought); err != nil {
		return o.fail(ctx, sg, domain.FlowAuctionToAMM, arbToken, amount, err)
	}

	// 6. Sell the tokens for base.
	baseReturned, err := o.amm.SwapTokenForBase(ctx, arbToken, tokensBought)
	if err != nil {
		return o.fail(ctx, sg, domain.FlowAuctionToAMM, arbToken, amount, err)
	}
	sg.push("reverse amm swap", func(ctx context.Context) error {
		out, err := o.amm.SwapBaseForToken(ctx, arbToken, baseReturned)
		if err != nil {
			return err
		}
		held.Set(out)
		return nil
	})

	// 7. Profitability gate.
	if baseReturned.Cmp(amount) < 0 {
		// The swap already settled; reversing it would only realize a second
		// spread loss. Park the proceeds back at the auction venue instead.
		sg.clear()
		if derr := o.ledger.DepositBase(ctx); derr != nil {
			log.ErrorContext(ctx, "parking proceeds after unprofitable flow failed",
				slog.String("error", derr.Error()),
			)
		}
		res := o.record(ctx, domain.FlowAuctionToAMM, arbToken, amount, baseReturned, false, domain.ErrNoProfit.Error())
		return res, fmt.Errorf("orchestrator: returned %s for %s committed: %w", baseReturned, amount, domain.ErrNoProfit)
	}

	// 8-9. Commit: emit the record, park the proceeds at the auction venue.
	sg.clear()
	res := o.record(ctx, domain.FlowAuctionToAMM, arbToken, amount, baseReturned, true, "")
	if err := o.ledger.DepositBase(ctx); err != nil {
		return res, err
	}

	log.InfoContext(ctx, "opportunity executed",
		slog.String("round", round.String()),
		slog.String("base_returned", baseReturned.String()),
	)
	return res, nil
}

// AMMToAuction surfaces amount of raw base from the auction venue, buys
// arbToken on the AMM, deposits the tokens at the auction venue, and sells
// them in the current round. The buy order is deliberately unbounded so it
// sweeps any deposited token remainder from prior operations.
func (o *Orchestrator) AMMToAuction(ctx context.Context, caller, arbToken common.Address, amount *big.Int) (domain.OpportunityResult, error) {
	if err := o.guard.Check(caller); err != nil {
		return domain.OpportunityResult{}, err
	}

	unlock, err := o.acquireLock(ctx)
	if err != nil {
		return domain.OpportunityResult{}, err
	}
	defer unlock()

	log := o.logger.With(
		slog.String("flow", string(domain.FlowAMMToAuction)),
		slog.String("token", arbToken.Hex()),
		slog.String("amount", amount.String()),
	)
	sg := newSaga(log)

	// 1. Bring raw base into engine custody.
	if err := o.ledger.WithdrawBase(ctx, amount); err != nil {
		return o.fail(ctx, sg, domain.FlowAMMToAuction, arbToken, amount, err)
	}
	sg.push("redeposit base", o.ledger.DepositBase)

	// 2. Buy the arb token on the AMM.
	tokensBought, err := o.amm.SwapBaseForToken(ctx, arbToken, amount)
	if err != nil {
		return o.fail(ctx, sg, domain.FlowAMMToAuction, arbToken, amount, err)
	}
	held := new(big.Int).Set(tokensBought)
	sg.push("reverse amm swap", func(ctx context.Context) error {
		_, err := o.amm.SwapTokenForBase(ctx, arbToken, held)
		return err
	})

	// 3-4. Raise the venue allowance and deposit the tokens. DepositToken
	// ensures the allowance again, which allowance idempotence makes free.
	if err := o.ledger.EnsureAllowance(ctx, arbToken, o.auctionSpender, tokensBought); err != nil {
		return o.fail(ctx, sg, domain.FlowAMMToAuction, arbToken, amount, err)
	}
	if err := o.ledger.DepositToken(ctx, arbToken, tokensBought); err != nil {
		return o.fail(ctx, sg, domain.FlowAMMToAuction, arbToken, amount, err)
	}
	sg.push("withdraw arb token", func(ctx context.Context) error {
		return o.auction.Withdraw(ctx, arbToken, held)
	})

	// 5. Round lookup, never cached.
	round, err := o.auction.CurrentRound(ctx, o.wrappedBase, arbToken)
	if err != nil {
		return o.fail(ctx, sg, domain.FlowAMMToAuction, arbToken, amount, err)
	}

	// 6. Sell the maximum available deposited balance; the venue caps at
	// what is actually there.
	if err := o.auction.PlaceBuyOrder(ctx, arbToken, o.wrappedBase, round, domain.MaxAllowance); err != nil {
		return o.fail(ctx, sg, domain.FlowAMMToAuction, arbToken, amount, err)
	}
	// The deposited tokens are consumed by the order; the earlier custody
	// moves can no longer be reversed.
	sg.clear()

	// 7. Claim settled base.
	baseReturned, err := o.auction.ClaimProceeds(ctx, o.wrappedBase, arbToken, round)
	if err != nil {
		return o.fail(ctx, sg, domain.FlowAMMToAuction, arbToken, amount, err)
	}

	// 8. Profitability gate. Proceeds already rest at the auction venue.
	if baseReturned.Cmp(amount) < 0 {
		res := o.record(ctx, domain.FlowAMMToAuction, arbToken, amount, baseReturned, false, domain.ErrNoProfit.Error())
		return res, fmt.Errorf("orchestrator: returned %s for %s committed: %w", baseReturned, amount, domain.ErrNoProfit)
	}

	// 9. Commit.
	res := o.record(ctx, domain.FlowAMMToAuction, arbToken, amount, baseReturned, true, "")

	log.InfoContext(ctx, "opportunity executed",
		slog.String("round", round.String()),
		slog.String("base_returned", baseReturned.String()),
	)
	return res, nil
}

// acquireLock takes the engine-wide operation lock when a lock manager is
// configured.
func (o *Orchestrator) acquireLock(ctx context.Context) (func(), error) {
	if o.locks == nil {
		return func() {}, nil
	}
	unlock, err := o.locks.Acquire(ctx, lockKey, o.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: acquire operation lock: %w", err)
	}
	return unlock, nil
}

// fail unwinds the saga, records the failed attempt, and wraps err.
func (o *Orchestrator) fail(
	ctx context.Context,
	sg *saga,
	flow domain.Flow,
	token common.Address,
	amount *big.Int,
	err error,
) (domain.OpportunityResult, error) {
	sg.unwind(ctx)
	res := o.record(ctx, flow, token, amount, big.NewInt(0), false, err.Error())
	return res, fmt.Errorf("orchestrator: %s: %w", flow, err)
}

// record builds the opportunity record, persists it when a store is
// configured, and fans it out to all sinks. Recording never voids a
// completed flow; store failures are logged and swallowed.
func (o *Orchestrator) record(
	ctx context.Context,
	flow domain.Flow,
	token common.Address,
	amountIn, amountReturned *big.Int,
	succeeded bool,
	reason string,
) domain.OpportunityResult {
	res := domain.OpportunityResult{
		ID:             uuid.New().String(),
		Flow:           flow,
		Token:          token,
		AmountIn:       new(big.Int).Set(amountIn),
		AmountReturned: new(big.Int).Set(amountReturned),
		Succeeded:      succeeded,
		Reason:         reason,
		ExecutedAt:     time.Now().UTC(),
	}

	if o.store != nil {
		if err := o.store.Insert(ctx, res); err != nil {
			o.logger.WarnContext(ctx, "opportunity record insert failed",
				slog.String("id", res.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	for _, sink := range o.sinks {
		sink.EmitResult(ctx, res)
	}
	return res
}
