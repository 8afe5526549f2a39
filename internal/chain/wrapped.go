package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/halcyoncap/arbengine/internal/domain"
)

const wrappedABIJSON = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"holder","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"holder","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"deposit","stateMutability":"payable","inputs":[],"outputs":[]},
	{"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]}
]`

var wrappedABI = mustABI(wrappedABIJSON)

// Wrapped implements domain.WrappedBase over the venue ecosystem's wrapped
// base-asset contract: an ERC20 with payable deposit and withdraw.
type Wrapped struct {
	ERC20
}

// NewWrapped binds the wrapped base-asset contract at addr.
func NewWrapped(client *Client, addr common.Address) *Wrapped {
	return &Wrapped{ERC20{
		client:   client,
		addr:     addr,
		contract: bind.NewBoundContract(addr, wrappedABI, client.eth, client.eth, client.eth),
	}}
}

// Wrap converts amount of the engine's raw base into wrapped balance.
func (w *Wrapped) Wrap(ctx context.Context, amount *big.Int) error {
	if _, err := w.client.transact(ctx, w.contract, amount, "deposit"); err != nil {
		return fmt.Errorf("chain: wrap %s: %w", amount, err)
	}
	return nil
}

// Unwrap converts amount of wrapped balance back into raw base.
func (w *Wrapped) Unwrap(ctx context.Context, amount *big.Int) error {
	if _, err := w.client.transact(ctx, w.contract, nil, "withdraw", amount); err != nil {
		return fmt.Errorf("chain: unwrap %s: %w", amount, err)
	}
	return nil
}

// RawBalance reads the engine's raw (unwrapped) base balance.
func (w *Wrapped) RawBalance(ctx context.Context) (*big.Int, error) {
	return w.client.rawBalance(ctx)
}

// TransferRaw sends raw base out of engine custody.
func (w *Wrapped) TransferRaw(ctx context.Context, to common.Address, amount *big.Int) error {
	return w.client.sendRaw(ctx, to, amount)
}

var _ domain.WrappedBase = (*Wrapped)(nil)
