package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyoncap/arbengine/internal/domain"
)

var (
	operatorAddr = common.HexToAddress("0x0000000000000000000000000000000000000001")
	tokenHex     = "0x00000000000000000000000000000000000000cc"
)

type fakeRunner struct {
	res    domain.OpportunityResult
	err    error
	caller common.Address
	amount *big.Int
}

func (f *fakeRunner) AuctionToAMM(ctx context.Context, caller, token common.Address, amount *big.Int) (domain.OpportunityResult, error) {
	f.caller = caller
	f.amount = amount
	return f.res, f.err
}

func (f *fakeRunner) AMMToAuction(ctx context.Context, caller, token common.Address, amount *big.Int) (domain.OpportunityResult, error) {
	f.caller = caller
	f.amount = amount
	return f.res, f.err
}

func postFlow(t *testing.T, h *ArbitrageHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/arbitrage/auction-to-amm", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.AuctionToAMM(rec, req)
	return rec
}

func TestArbitrageHandler_Success(t *testing.T) {
	runner := &fakeRunner{res: domain.OpportunityResult{
		ID:             "abc",
		Flow:           domain.FlowAuctionToAMM,
		Token:          common.HexToAddress(tokenHex),
		AmountIn:       big.NewInt(10),
		AmountReturned: big.NewInt(12),
		Succeeded:      true,
	}}
	h := NewArbitrageHandler(runner, operatorAddr, slog.New(slog.DiscardHandler))

	rec := postFlow(t, h, fmt.Sprintf(`{"token":%q,"amount":"10"}`, tokenHex))
	require.Equal(t, http.StatusOK, rec.Code)

	// The authenticated request always runs as the operator principal.
	assert.Equal(t, operatorAddr, runner.caller)
	assert.Equal(t, int64(10), runner.amount.Int64())

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "abc", payload["id"])
	assert.Equal(t, true, payload["succeeded"])
}

func TestArbitrageHandler_BadRequests(t *testing.T) {
	h := NewArbitrageHandler(&fakeRunner{}, operatorAddr, slog.New(slog.DiscardHandler))

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"bad token", `{"token":"zzz","amount":"10"}`},
		{"bad amount", fmt.Sprintf(`{"token":%q,"amount":"ten"}`, tokenHex)},
		{"zero amount", fmt.Sprintf(`{"token":%q,"amount":"0"}`, tokenHex)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postFlow(t, h, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestArbitrageHandler_DomainErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"unauthorized", domain.ErrUnauthorized, http.StatusForbidden},
		{"no profit", fmt.Errorf("orchestrator: %w", domain.ErrNoProfit), http.StatusUnprocessableEntity},
		{"lock held", fmt.Errorf("orchestrator: %w", domain.ErrLockHeld), http.StatusConflict},
		{"venue failure", fmt.Errorf("orchestrator: %w", domain.ErrVenueDepositFailed), http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewArbitrageHandler(&fakeRunner{err: tc.err}, operatorAddr, slog.New(slog.DiscardHandler))
			rec := postFlow(t, h, fmt.Sprintf(`{"token":%q,"amount":"10"}`, tokenHex))
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}
