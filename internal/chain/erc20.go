package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/halcyoncap/arbengine/internal/domain"
)

const erc20ABIJSON = `[
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"holder","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"holder","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

var erc20ABI = mustABI(erc20ABIJSON)

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// ERC20 implements domain.Token over a standard fungible-token contract.
// The affirmative acknowledgments the custody ledger requires are derived
// from confirmed receipts plus a state read-back, since return data of a
// mined transaction is not observable.
type ERC20 struct {
	client   *Client
	addr     common.Address
	contract *bind.BoundContract
}

// NewERC20 binds the token contract at addr.
func NewERC20(client *Client, addr common.Address) *ERC20 {
	return &ERC20{
		client:   client,
		addr:     addr,
		contract: bind.NewBoundContract(addr, erc20ABI, client.eth, client.eth, client.eth),
	}
}

// Address returns the token's contract address.
func (t *ERC20) Address() common.Address {
	return t.addr
}

// BalanceOf reads holder's token balance.
func (t *ERC20) BalanceOf(ctx context.Context, holder common.Address) (*big.Int, error) {
	var out []any
	if err := t.contract.Call(t.client.callOpts(ctx), &out, "balanceOf", holder); err != nil {
		return nil, fmt.Errorf("chain: balanceOf %s: %w", t.addr, err)
	}
	return out[0].(*big.Int), nil
}

// Allowance reads how much spender may pull from holder.
func (t *ERC20) Allowance(ctx context.Context, holder, spender common.Address) (*big.Int, error) {
	var out []any
	if err := t.contract.Call(t.client.callOpts(ctx), &out, "allowance", holder, spender); err != nil {
		return nil, fmt.Errorf("chain: allowance %s: %w", t.addr, err)
	}
	return out[0].(*big.Int), nil
}

// Approve raises spender's allowance to amount. The acknowledgment is the
// confirmed receipt plus an allowance read-back covering amount.
func (t *ERC20) Approve(ctx context.Context, spender common.Address, amount *big.Int) (bool, error) {
	if _, err := t.client.transact(ctx, t.contract, nil, "approve", spender, amount); err != nil {
		return false, err
	}

	granted, err := t.Allowance(ctx, t.client.From(), spender)
	if err != nil {
		return false, err
	}
	return granted.Cmp(amount) >= 0, nil
}

// Transfer sends amount to to; the confirmed receipt is the acknowledgment.
func (t *ERC20) Transfer(ctx context.Context, to common.Address, amount *big.Int) (bool, error) {
	if _, err := t.client.transact(ctx, t.contract, nil, "transfer", to, amount); err != nil {
		return false, err
	}
	return true, nil
}

// Resolver implements domain.TokenResolver. Any address is accepted at call
// time; there is no registry.
type Resolver struct {
	client *Client
}

// NewResolver creates a Resolver over client.
func NewResolver(client *Client) *Resolver {
	return &Resolver{client: client}
}

// Token binds the token contract at addr.
func (r *Resolver) Token(addr common.Address) domain.Token {
	return NewERC20(r.client, addr)
}

var (
	_ domain.Token         = (*ERC20)(nil)
	_ domain.TokenResolver = (*Resolver)(nil)
)
