package auction

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyoncap/arbengine/internal/domain"
)

var (
	lowAddr  = common.HexToAddress("0x0000000000000000000000000000000000000011")
	highAddr = common.HexToAddress("0x00000000000000000000000000000000000000ff")
)

type roundCall struct {
	x, y common.Address
}

type fakeVenue struct {
	round      *big.Int
	roundCalls []roundCall

	withdrawErr error

	claimed   *big.Int
	remainder *big.Int
}

func (f *fakeVenue) Address() common.Address { return common.Address{} }

func (f *fakeVenue) CurrentRound(ctx context.Context, x, y common.Address) (*big.Int, error) {
	f.roundCalls = append(f.roundCalls, roundCall{x: x, y: y})
	return new(big.Int).Set(f.round), nil
}

func (f *fakeVenue) Deposit(ctx context.Context, asset common.Address, amount *big.Int) (*big.Int, error) {
	return new(big.Int).Set(amount), nil
}

func (f *fakeVenue) Withdraw(ctx context.Context, asset common.Address, amount *big.Int) (*big.Int, error) {
	if f.withdrawErr != nil {
		return nil, f.withdrawErr
	}
	return new(big.Int).Set(amount), nil
}

func (f *fakeVenue) PlaceBuyOrder(ctx context.Context, sell, buy common.Address, round, amount *big.Int) error {
	return nil
}

func (f *fakeVenue) ClaimProceeds(ctx context.Context, buy, sell common.Address, round *big.Int) (*big.Int, *big.Int, error) {
	return new(big.Int).Set(f.claimed), new(big.Int).Set(f.remainder), nil
}

func (f *fakeVenue) Balance(ctx context.Context, asset common.Address) (*big.Int, error) {
	return big.NewInt(0), nil
}

func TestAdapter_CurrentRoundNormalizesPair(t *testing.T) {
	venue := &fakeVenue{round: big.NewInt(7)}
	adapter := NewAdapter(venue, slog.New(slog.DiscardHandler))

	ctx := context.Background()
	r1, err := adapter.CurrentRound(ctx, lowAddr, highAddr)
	require.NoError(t, err)
	r2, err := adapter.CurrentRound(ctx, highAddr, lowAddr)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	require.Len(t, venue.roundCalls, 2)
	assert.Equal(t, venue.roundCalls[0], venue.roundCalls[1], "argument order must not reach the venue")
	assert.Equal(t, lowAddr, venue.roundCalls[0].x)
}

func TestAdapter_ClaimProceedsDropsRemainder(t *testing.T) {
	venue := &fakeVenue{round: big.NewInt(1), claimed: big.NewInt(40), remainder: big.NewInt(3)}
	adapter := NewAdapter(venue, slog.New(slog.DiscardHandler))

	claimed, err := adapter.ClaimProceeds(context.Background(), lowAddr, highAddr, big.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, int64(40), claimed.Int64())
}

func TestAdapter_WithdrawWrapsVenueError(t *testing.T) {
	venue := &fakeVenue{round: big.NewInt(1), withdrawErr: errors.New("nothing claimed")}
	adapter := NewAdapter(venue, slog.New(slog.DiscardHandler))

	err := adapter.Withdraw(context.Background(), lowAddr, big.NewInt(5))
	assert.ErrorIs(t, err, domain.ErrVenueWithdrawFailed)
}
