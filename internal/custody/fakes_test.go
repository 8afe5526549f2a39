package custody

import (
	"context"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/halcyoncap/arbengine/internal/domain"
)

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()
	return slog.New(slog.DiscardHandler)
}

// fakeToken implements domain.Token with an in-memory allowance and a
// scripted ack/error for mutating calls.
type fakeToken struct {
	allowance *big.Int

	approveAck   bool
	approveErr   error
	approveCalls int

	transferAck   bool
	transferErr   error
	transferredTo common.Address
	transferred   *big.Int
}

func newFakeToken() *fakeToken {
	return &fakeToken{
		allowance:   big.NewInt(0),
		approveAck:  true,
		transferAck: true,
	}
}

func (f *fakeToken) BalanceOf(ctx context.Context, holder common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func (f *fakeToken) Allowance(ctx context.Context, holder, spender common.Address) (*big.Int, error) {
	return new(big.Int).Set(f.allowance), nil
}

func (f *fakeToken) Approve(ctx context.Context, spender common.Address, amount *big.Int) (bool, error) {
	f.approveCalls++
	if f.approveErr != nil {
		return false, f.approveErr
	}
	if f.approveAck {
		f.allowance = new(big.Int).Set(amount)
	}
	return f.approveAck, nil
}

func (f *fakeToken) Transfer(ctx context.Context, to common.Address, amount *big.Int) (bool, error) {
	if f.transferErr != nil {
		return false, f.transferErr
	}
	if f.transferAck {
		f.transferredTo = to
		f.transferred = new(big.Int).Set(amount)
	}
	return f.transferAck, nil
}

// fakeWrapped implements domain.WrappedBase over a fakeToken. Wrap and
// Unwrap move value between the raw balance and an implicit wrapped pool.
type fakeWrapped struct {
	*fakeToken
	addr common.Address
	raw  *big.Int

	wrapErr   error
	unwrapErr error

	wrapped   *big.Int
	rawSentTo common.Address
	rawSent   *big.Int
}

func newFakeWrapped(addr common.Address, raw int64) *fakeWrapped {
	return &fakeWrapped{
		fakeToken: newFakeToken(),
		addr:      addr,
		raw:       big.NewInt(raw),
		wrapped:   big.NewInt(0),
	}
}

func (f *fakeWrapped) Address() common.Address { return f.addr }

func (f *fakeWrapped) Wrap(ctx context.Context, amount *big.Int) error {
	if f.wrapErr != nil {
		return f.wrapErr
	}
	f.raw = new(big.Int).Sub(f.raw, amount)
	f.wrapped = new(big.Int).Add(f.wrapped, amount)
	return nil
}

func (f *fakeWrapped) Unwrap(ctx context.Context, amount *big.Int) error {
	if f.unwrapErr != nil {
		return f.unwrapErr
	}
	f.raw = new(big.Int).Add(f.raw, amount)
	return nil
}

func (f *fakeWrapped) RawBalance(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(f.raw), nil
}

func (f *fakeWrapped) TransferRaw(ctx context.Context, to common.Address, amount *big.Int) error {
	f.raw = new(big.Int).Sub(f.raw, amount)
	f.rawSentTo = to
	f.rawSent = new(big.Int).Set(amount)
	return nil
}

// fakeAuction implements domain.AuctionVenue with per-asset balances.
type fakeAuction struct {
	addr     common.Address
	balances map[common.Address]*big.Int

	depositErr error
	// depositShort forces the venue to report a balance one unit below the
	// deposited amount.
	depositShort bool

	withdrawErr error
	// withdrawActual overrides the returned withdrawal amount when set.
	withdrawActual *big.Int

	claimClaimed   *big.Int
	claimRemainder *big.Int
	claimErr       error

	deposits  []*big.Int
	withdraws []*big.Int
}

func newFakeAuction(addr common.Address) *fakeAuction {
	return &fakeAuction{
		addr:           addr,
		balances:       make(map[common.Address]*big.Int),
		claimClaimed:   big.NewInt(0),
		claimRemainder: big.NewInt(0),
	}
}

func (f *fakeAuction) Address() common.Address { return f.addr }

func (f *fakeAuction) CurrentRound(ctx context.Context, x, y common.Address) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (f *fakeAuction) Deposit(ctx context.Context, asset common.Address, amount *big.Int) (*big.Int, error) {
	if f.depositErr != nil {
		return nil, f.depositErr
	}
	f.deposits = append(f.deposits, new(big.Int).Set(amount))
	bal, ok := f.balances[asset]
	if !ok {
		bal = big.NewInt(0)
	}
	bal = new(big.Int).Add(bal, amount)
	if f.depositShort {
		bal = new(big.Int).Sub(bal, big.NewInt(1))
	}
	f.balances[asset] = bal
	return new(big.Int).Set(bal), nil
}

func (f *fakeAuction) Withdraw(ctx context.Context, asset common.Address, amount *big.Int) (*big.Int, error) {
	if f.withdrawErr != nil {
		return nil, f.withdrawErr
	}
	f.withdraws = append(f.withdraws, new(big.Int).Set(amount))
	if f.withdrawActual != nil {
		return new(big.Int).Set(f.withdrawActual), nil
	}
	return new(big.Int).Set(amount), nil
}

func (f *fakeAuction) PlaceBuyOrder(ctx context.Context, sell, buy common.Address, round, amount *big.Int) error {
	return nil
}

func (f *fakeAuction) ClaimProceeds(ctx context.Context, buy, sell common.Address, round *big.Int) (*big.Int, *big.Int, error) {
	if f.claimErr != nil {
		return nil, nil, f.claimErr
	}
	return new(big.Int).Set(f.claimClaimed), new(big.Int).Set(f.claimRemainder), nil
}

func (f *fakeAuction) Balance(ctx context.Context, asset common.Address) (*big.Int, error) {
	bal, ok := f.balances[asset]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(bal), nil
}

// fakeResolver hands out registered tokens by address, creating plain
// fakeTokens lazily for unknown ones.
type fakeResolver struct {
	tokens map[common.Address]domain.Token
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{tokens: make(map[common.Address]domain.Token)}
}

func (f *fakeResolver) register(addr common.Address, tok domain.Token) {
	f.tokens[addr] = tok
}

func (f *fakeResolver) Token(addr common.Address) domain.Token {
	tok, ok := f.tokens[addr]
	if !ok {
		ft := newFakeToken()
		f.tokens[addr] = ft
		return ft
	}
	return tok
}
