// Package chain implements the engine's venue and asset ports against
// on-chain contracts through go-ethereum bound-contract calls. State-changing
// calls are confirmed by waiting for the receipt and checking its status;
// values a call "returns" are read back through view calls or event logs,
// since transaction return data is not observable off-chain.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Client wraps an ethclient connection and the operator's signing key. All
// bound contracts in this package transact through it.
type Client struct {
	eth     *ethclient.Client
	chainID *big.Int
	key     *ecdsa.PrivateKey
	from    common.Address
	logger  *slog.Logger
}

// Dial connects to the RPC endpoint, resolves the chain ID, and derives the
// engine's custody address from key.
func Dial(ctx context.Context, rpcURL string, key *ecdsa.PrivateKey, logger *slog.Logger) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", rpcURL, err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("chain: resolve chain id: %w", err)
	}

	return &Client{
		eth:     eth,
		chainID: chainID,
		key:     key,
		from:    ethcrypto.PubkeyToAddress(key.PublicKey),
		logger:  logger.With(slog.String("component", "chain")),
	}, nil
}

// From returns the engine's custody address.
func (c *Client) From() common.Address {
	return c.from
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// callOpts builds read-only call options bound to ctx.
func (c *Client) callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx, From: c.from}
}

// transactOpts builds signing transaction options bound to ctx. value may be
// nil for non-payable calls.
func (c *Client) transactOpts(ctx context.Context, value *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return nil, fmt.Errorf("chain: build transactor: %w", err)
	}
	opts.Context = ctx
	opts.Value = value
	return opts, nil
}

// transact submits a state-changing call, waits for it to be mined, and
// fails unless the receipt reports success.
func (c *Client) transact(ctx context.Context, contract *bind.BoundContract, value *big.Int, method string, args ...any) (*types.Receipt, error) {
	opts, err := c.transactOpts(ctx, value)
	if err != nil {
		return nil, err
	}

	tx, err := contract.Transact(opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("chain: %s: %w", method, err)
	}

	receipt, err := bind.WaitMined(ctx, c.eth, tx)
	if err != nil {
		return nil, fmt.Errorf("chain: wait for %s (%s): %w", method, tx.Hash(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("chain: %s reverted (%s)", method, tx.Hash())
	}

	c.logger.DebugContext(ctx, "transaction confirmed",
		slog.String("method", method),
		slog.String("tx", tx.Hash().Hex()),
	)
	return receipt, nil
}

// sendRaw transfers raw base asset from the engine account to to.
func (c *Client) sendRaw(ctx context.Context, to common.Address, amount *big.Int) error {
	nonce, err := c.eth.PendingNonceAt(ctx, c.from)
	if err != nil {
		return fmt.Errorf("chain: pending nonce: %w", err)
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("chain: suggest gas price: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    amount,
		Gas:      21000,
		GasPrice: gasPrice,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.key)
	if err != nil {
		return fmt.Errorf("chain: sign raw transfer: %w", err)
	}
	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return fmt.Errorf("chain: send raw transfer: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, c.eth, signed)
	if err != nil {
		return fmt.Errorf("chain: wait for raw transfer (%s): %w", signed.Hash(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("chain: raw transfer reverted (%s)", signed.Hash())
	}
	return nil
}

// rawBalance reads the engine account's raw base balance.
func (c *Client) rawBalance(ctx context.Context) (*big.Int, error) {
	bal, err := c.eth.BalanceAt(ctx, c.from, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: read raw balance: %w", err)
	}
	return bal, nil
}
