package notify

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

type fakeSender struct {
	name     string
	err      error
	titles   []string
	messages []string
}

func (f *fakeSender) Name() string { return f.name }

func (f *fakeSender) Send(ctx context.Context, title, message string) error {
	if f.err != nil {
		return f.err
	}
	f.titles = append(f.titles, title)
	f.messages = append(f.messages, message)
	return nil
}

func discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func TestNotifier_FiltersDisallowedEvents(t *testing.T) {
	sender := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{sender}, []string{EventOpportunityFailed}, discard())

	ctx := context.Background()
	require.NoError(t, n.Notify(ctx, EventOpportunityExecuted, "t", "m"))
	assert.Empty(t, sender.titles)

	require.NoError(t, n.Notify(ctx, EventOpportunityFailed, "t", "m"))
	assert.Len(t, sender.titles, 1)
}

func TestNotifier_EmptyFilterAllowsAll(t *testing.T) {
	sender := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{sender}, nil, discard())

	require.NoError(t, n.Notify(context.Background(), "anything", "t", "m"))
	assert.Len(t, sender.titles, 1)
}

func TestNotifier_OneFailingSenderDoesNotBlockOthers(t *testing.T) {
	bad := &fakeSender{name: "bad", err: errors.New("boom")}
	good := &fakeSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, nil, discard())

	err := n.Notify(context.Background(), EventError, "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Len(t, good.titles, 1)
}

func TestNotifier_EmitResult(t *testing.T) {
	sender := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{sender}, nil, discard())

	res := domain.OpportunityResult{
		ID:             "abc",
		Flow:           domain.FlowAuctionToAMM,
		Token:          common.HexToAddress("0xcc"),
		AmountIn:       big.NewInt(10),
		AmountReturned: big.NewInt(12),
		Succeeded:      true,
	}
	n.EmitResult(context.Background(), res)

	require.Len(t, sender.titles, 1)
	assert.Equal(t, "Opportunity executed", sender.titles[0])
	assert.Contains(t, sender.messages[0], "auction_to_amm")
	assert.Contains(t, sender.messages[0], "in=10")

	res.Succeeded = false
	res.Reason = "no profit"
	n.EmitResult(context.Background(), res)

	require.Len(t, sender.titles, 2)
	assert.Equal(t, "Opportunity failed", sender.titles[1])
	assert.Contains(t, sender.messages[1], "reason=no profit")
}
