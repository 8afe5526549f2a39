package custody

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyoncap/arbengine/internal/domain"
)

var (
	custodianAddr = common.HexToAddress("0x00000000000000000000000000000000000000c5")
	wrappedAddr   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	auctionAddr   = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	tokenAddr     = common.HexToAddress("0x00000000000000000000000000000000000000cc")
	spenderAddr   = common.HexToAddress("0x00000000000000000000000000000000000000dd")
)

func newTestLedger(t *testing.T, rawBase int64) (*Ledger, *fakeWrapped, *fakeAuction, *fakeResolver) {
	t.Helper()
	wrapped := newFakeWrapped(wrappedAddr, rawBase)
	auction := newFakeAuction(auctionAddr)
	resolver := newFakeResolver()
	resolver.register(wrappedAddr, wrapped.fakeToken)
	ledger := NewLedger(custodianAddr, wrapped, auction, resolver, testLogger(t))
	return ledger, wrapped, auction, resolver
}

func TestLedger_EnsureAllowance_RaisesToMax(t *testing.T) {
	ledger, _, _, resolver := newTestLedger(t, 0)
	tok := newFakeToken()
	resolver.register(tokenAddr, tok)

	err := ledger.EnsureAllowance(context.Background(), tokenAddr, spenderAddr, big.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, 1, tok.approveCalls)
	assert.Equal(t, 0, domain.MaxAllowance.Cmp(tok.allowance), "allowance should be raised to max")
}

func TestLedger_EnsureAllowance_Idempotent(t *testing.T) {
	ledger, _, _, resolver := newTestLedger(t, 0)
	tok := newFakeToken()
	resolver.register(tokenAddr, tok)

	ctx := context.Background()
	require.NoError(t, ledger.EnsureAllowance(ctx, tokenAddr, spenderAddr, big.NewInt(100)))
	require.NoError(t, ledger.EnsureAllowance(ctx, tokenAddr, spenderAddr, big.NewInt(100000)))
	assert.Equal(t, 1, tok.approveCalls, "sufficient allowance must not trigger a second approve")
}

func TestLedger_EnsureAllowance_SufficientSkipsApprove(t *testing.T) {
	ledger, _, _, resolver := newTestLedger(t, 0)
	tok := newFakeToken()
	tok.allowance = big.NewInt(500)
	resolver.register(tokenAddr, tok)

	err := ledger.EnsureAllowance(context.Background(), tokenAddr, spenderAddr, big.NewInt(100))
	require.NoError(t, err)
	assert.Equal(t, 0, tok.approveCalls)
}

func TestLedger_EnsureAllowance_FalseAck(t *testing.T) {
	ledger, _, _, resolver := newTestLedger(t, 0)
	tok := newFakeToken()
	tok.approveAck = false
	resolver.register(tokenAddr, tok)

	err := ledger.EnsureAllowance(context.Background(), tokenAddr, spenderAddr, big.NewInt(100))
	assert.ErrorIs(t, err, domain.ErrAllowanceGrantFailed)
}

func TestLedger_EnsureAllowance_ApproveError(t *testing.T) {
	ledger, _, _, resolver := newTestLedger(t, 0)
	tok := newFakeToken()
	tok.approveErr = errors.New("rpc down")
	resolver.register(tokenAddr, tok)

	err := ledger.EnsureAllowance(context.Background(), tokenAddr, spenderAddr, big.NewInt(100))
	assert.ErrorIs(t, err, domain.ErrAllowanceGrantFailed)
}

func TestLedger_DepositBase_WrapsEverything(t *testing.T) {
	ledger, wrapped, auction, _ := newTestLedger(t, 50)

	err := ledger.DepositBase(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(0), wrapped.raw.Int64(), "entire raw balance should be wrapped")
	require.Len(t, auction.deposits, 1)
	assert.Equal(t, int64(50), auction.deposits[0].Int64())
	assert.Equal(t, int64(50), auction.balances[wrappedAddr].Int64())
}

func TestLedger_DepositBase_ZeroBalanceIsNoop(t *testing.T) {
	ledger, wrapped, auction, _ := newTestLedger(t, 0)

	err := ledger.DepositBase(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), wrapped.wrapped.Int64())
	assert.Empty(t, auction.deposits)
}

func TestLedger_DepositBase_ShortDeposit(t *testing.T) {
	ledger, _, auction, _ := newTestLedger(t, 50)
	auction.depositShort = true

	err := ledger.DepositBase(context.Background())
	assert.ErrorIs(t, err, domain.ErrVenueDepositFailed)
}

func TestLedger_DepositBase_WrapFailure(t *testing.T) {
	ledger, wrapped, auction, _ := newTestLedger(t, 50)
	wrapped.wrapErr = errors.New("out of gas")

	err := ledger.DepositBase(context.Background())
	assert.ErrorIs(t, err, domain.ErrWrapFailed)
	assert.Empty(t, auction.deposits)
}

func TestLedger_WithdrawBase(t *testing.T) {
	ledger, wrapped, auction, _ := newTestLedger(t, 0)

	err := ledger.WithdrawBase(context.Background(), big.NewInt(30))
	require.NoError(t, err)

	require.Len(t, auction.withdraws, 1)
	assert.Equal(t, int64(30), auction.withdraws[0].Int64())
	assert.Equal(t, int64(30), wrapped.raw.Int64(), "withdrawn base should be unwrapped into raw custody")
}

func TestLedger_WithdrawBase_VenueFailure(t *testing.T) {
	ledger, _, auction, _ := newTestLedger(t, 0)
	auction.withdrawErr = errors.New("venue reverted")

	err := ledger.WithdrawBase(context.Background(), big.NewInt(30))
	assert.ErrorIs(t, err, domain.ErrVenueWithdrawFailed)
}

func TestLedger_WithdrawBase_InsufficientUnwrapped(t *testing.T) {
	ledger, _, auction, _ := newTestLedger(t, 0)
	// Venue returns less than requested; the unwrapped raw balance cannot
	// cover the amount.
	auction.withdrawActual = big.NewInt(20)

	err := ledger.WithdrawBase(context.Background(), big.NewInt(30))
	assert.ErrorIs(t, err, domain.ErrInsufficientUnwrapped)
}

func TestLedger_DepositToken(t *testing.T) {
	ledger, _, auction, resolver := newTestLedger(t, 0)
	tok := newFakeToken()
	resolver.register(tokenAddr, tok)

	err := ledger.DepositToken(context.Background(), tokenAddr, big.NewInt(40))
	require.NoError(t, err)

	assert.Equal(t, 1, tok.approveCalls, "venue allowance should be raised first")
	assert.Equal(t, int64(40), auction.balances[tokenAddr].Int64())
}

func TestLedger_DepositToken_ShortDeposit(t *testing.T) {
	ledger, _, auction, _ := newTestLedger(t, 0)
	auction.depositShort = true

	err := ledger.DepositToken(context.Background(), tokenAddr, big.NewInt(40))
	assert.ErrorIs(t, err, domain.ErrVenueDepositFailed)
}

func TestLedger_Custodian(t *testing.T) {
	ledger, _, _, _ := newTestLedger(t, 0)
	assert.Equal(t, custodianAddr, ledger.Custodian())
}
