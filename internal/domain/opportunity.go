// Package domain holds the engine's core types, error taxonomy, and the
// ports through which the orchestrator talks to assets, venues, and stores.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Flow identifies which of the two opportunity flows an operation ran.
type Flow string

const (
	// FlowAuctionToAMM buys the arb token in the auction and sells it on the AMM.
	FlowAuctionToAMM Flow = "auction_to_amm"
	// FlowAMMToAuction buys the arb token on the AMM and sells it in the auction.
	FlowAMMToAuction Flow = "amm_to_auction"
)

// OpportunityResult is the record emitted after each orchestrator invocation.
// Amounts are in the base asset's smallest unit.
type OpportunityResult struct {
	ID             string
	Flow           Flow
	Token          common.Address
	AmountIn       *big.Int
	AmountReturned *big.Int
	Succeeded      bool
	Reason         string
	ExecutedAt     time.Time
}

// Profit returns AmountReturned - AmountIn. Negative for failed operations
// that realized a loss before compensation.
func (r OpportunityResult) Profit() *big.Int {
	if r.AmountReturned == nil || r.AmountIn == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Sub(r.AmountReturned, r.AmountIn)
}
