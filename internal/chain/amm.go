package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/halcyoncap/arbengine/internal/domain"
)

const ammFactoryABIJSON = `[
	{"type":"function","name":"getMarketFor","stateMutability":"view","inputs":[{"name":"token","type":"address"}],"outputs":[{"name":"","type":"address"}]}
]`

const ammMarketABIJSON = `[
	{"type":"function","name":"swapTokenForBase","stateMutability":"nonpayable","inputs":[{"name":"amountIn","type":"uint256"},{"name":"minOut","type":"uint256"},{"name":"deadline","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"swapBaseForToken","stateMutability":"payable","inputs":[{"name":"minOut","type":"uint256"},{"name":"deadline","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"event","name":"Swap","inputs":[{"name":"trader","type":"address","indexed":true},{"name":"amountIn","type":"uint256","indexed":false},{"name":"amountOut","type":"uint256","indexed":false}],"anonymous":false}
]`

var (
	ammFactoryABI = mustABI(ammFactoryABIJSON)
	ammMarketABI  = mustABI(ammMarketABIJSON)
)

// swapEvent mirrors the market's Swap log, the only place a mined swap's
// output amount is observable.
type swapEvent struct {
	Trader    common.Address
	AmountIn  *big.Int
	AmountOut *big.Int
}

// AMM implements domain.AMMVenue over the constant-formula market factory.
// Markets are resolved per token through the factory and the bound handles
// memoized; market addresses are immutable once deployed.
type AMM struct {
	client  *Client
	factory *bind.BoundContract
	addr    common.Address

	mu      sync.Mutex
	markets map[common.Address]*bind.BoundContract
}

// NewAMM binds the market factory at factoryAddr.
func NewAMM(client *Client, factoryAddr common.Address) *AMM {
	return &AMM{
		client:  client,
		factory: bind.NewBoundContract(factoryAddr, ammFactoryABI, client.eth, client.eth, client.eth),
		addr:    factoryAddr,
		markets: make(map[common.Address]*bind.BoundContract),
	}
}

// Address returns the factory address, the spender allowances are raised for.
func (a *AMM) Address() common.Address {
	return a.addr
}

// SwapTokenForBase sells amountIn of token for base asset.
func (a *AMM) SwapTokenForBase(ctx context.Context, token common.Address, amountIn, minOut *big.Int, deadline time.Time) (*big.Int, error) {
	market, err := a.marketFor(ctx, token)
	if err != nil {
		return nil, err
	}

	receipt, err := a.client.transact(ctx, market, nil, "swapTokenForBase", amountIn, minOut, big.NewInt(deadline.Unix()))
	if err != nil {
		return nil, mapDeadline(err)
	}
	return a.swapOutput(receipt)
}

// SwapBaseForToken sells amountIn of base asset for token; the base amount
// rides along as the call's value.
func (a *AMM) SwapBaseForToken(ctx context.Context, token common.Address, amountIn, minOut *big.Int, deadline time.Time) (*big.Int, error) {
	market, err := a.marketFor(ctx, token)
	if err != nil {
		return nil, err
	}

	receipt, err := a.client.transact(ctx, market, amountIn, "swapBaseForToken", minOut, big.NewInt(deadline.Unix()))
	if err != nil {
		return nil, mapDeadline(err)
	}
	return a.swapOutput(receipt)
}

// marketFor resolves and memoizes the market contract for token.
func (a *AMM) marketFor(ctx context.Context, token common.Address) (*bind.BoundContract, error) {
	a.mu.Lock()
	market, ok := a.markets[token]
	a.mu.Unlock()
	if ok {
		return market, nil
	}

	var out []any
	if err := a.factory.Call(a.client.callOpts(ctx), &out, "getMarketFor", token); err != nil {
		return nil, fmt.Errorf("chain: resolve market for %s: %w", token, err)
	}
	marketAddr := out[0].(common.Address)
	if marketAddr == (common.Address{}) {
		return nil, fmt.Errorf("chain: no market for %s: %w", token, domain.ErrNotFound)
	}

	market = bind.NewBoundContract(marketAddr, ammMarketABI, a.client.eth, a.client.eth, a.client.eth)
	a.mu.Lock()
	a.markets[token] = market
	a.mu.Unlock()
	return market, nil
}

// swapOutput extracts the output amount from the receipt's Swap log.
func (a *AMM) swapOutput(receipt *types.Receipt) (*big.Int, error) {
	swapID := ammMarketABI.Events["Swap"].ID
	for _, lg := range receipt.Logs {
		if len(lg.Topics) == 0 || lg.Topics[0] != swapID {
			continue
		}
		var ev swapEvent
		contract := bind.NewBoundContract(lg.Address, ammMarketABI, nil, nil, nil)
		if err := contract.UnpackLog(&ev, "Swap", *lg); err != nil {
			return nil, fmt.Errorf("chain: unpack swap log: %w", err)
		}
		return ev.AmountOut, nil
	}
	return nil, fmt.Errorf("chain: swap confirmed without Swap log (%s)", receipt.TxHash)
}

// mapDeadline translates the venue's deadline rejection into the engine's
// error taxonomy.
func mapDeadline(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "deadline") || strings.Contains(msg, "expired") {
		return fmt.Errorf("%v: %w", err, domain.ErrDeadlineExceeded)
	}
	return err
}

var _ domain.AMMVenue = (*AMM)(nil)
