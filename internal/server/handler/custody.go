package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
)

// TreasuryOps is the fund-custody surface the handler needs.
type TreasuryOps interface {
	TransferBaseOut(ctx context.Context, caller common.Address, amount *big.Int) error
	WithdrawWrappedOut(ctx context.Context, caller common.Address, amount *big.Int) error
	TransferTokenOut(ctx context.Context, caller, token common.Address, amount *big.Int) error
	DepositTokenIn(ctx context.Context, caller, token common.Address, amount *big.Int) error
	ClaimRound(ctx context.Context, caller, token common.Address, round *big.Int) (*big.Int, error)
}

// CustodyHandler exposes the operator-triggered fund movements over HTTP.
type CustodyHandler struct {
	treasury TreasuryOps
	operator common.Address
	logger   *slog.Logger
}

// NewCustodyHandler creates a CustodyHandler.
func NewCustodyHandler(treasury TreasuryOps, operator common.Address, logger *slog.Logger) *CustodyHandler {
	return &CustodyHandler{
		treasury: treasury,
		operator: operator,
		logger:   logger.With(slog.String("handler", "custody")),
	}
}

// custodyRequest is the JSON body for custody endpoints. Token and Round are
// only required by the endpoints that use them.
type custodyRequest struct {
	Token  string `json:"token,omitempty"`
	Amount string `json:"amount"`
	Round  string `json:"round,omitempty"`
}

// TransferBaseOut handles POST /api/v1/custody/base-out. A zero amount
// transfers the entire raw base balance to the operator.
func (h *CustodyHandler) TransferBaseOut(w http.ResponseWriter, r *http.Request) {
	_, amount, ok := h.decode(w, r)
	if !ok {
		return
	}
	h.finish(w, r, h.treasury.TransferBaseOut(r.Context(), h.operator, amount))
}

// WithdrawWrappedOut handles POST /api/v1/custody/wrapped-out.
func (h *CustodyHandler) WithdrawWrappedOut(w http.ResponseWriter, r *http.Request) {
	_, amount, ok := h.decode(w, r)
	if !ok {
		return
	}
	h.finish(w, r, h.treasury.WithdrawWrappedOut(r.Context(), h.operator, amount))
}

// TransferTokenOut handles POST /api/v1/custody/token-out.
func (h *CustodyHandler) TransferTokenOut(w http.ResponseWriter, r *http.Request) {
	req, amount, ok := h.decode(w, r)
	if !ok {
		return
	}
	token, err := parseAddress(req.Token, "token")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.finish(w, r, h.treasury.TransferTokenOut(r.Context(), h.operator, token, amount))
}

// DepositTokenIn handles POST /api/v1/custody/token-in.
func (h *CustodyHandler) DepositTokenIn(w http.ResponseWriter, r *http.Request) {
	req, amount, ok := h.decode(w, r)
	if !ok {
		return
	}
	token, err := parseAddress(req.Token, "token")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.finish(w, r, h.treasury.DepositTokenIn(r.Context(), h.operator, token, amount))
}

// ClaimRound handles POST /api/v1/custody/claim, recovering settled proceeds
// the automated flows did not sweep.
func (h *CustodyHandler) ClaimRound(w http.ResponseWriter, r *http.Request) {
	var req custodyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	token, err := parseAddress(req.Token, "token")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	round, err := parseAmount(req.Round, "round")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	claimed, err := h.treasury.ClaimRound(r.Context(), h.operator, token, round)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"claimed": claimed.String()})
}

// decode parses the common request body and amount field.
func (h *CustodyHandler) decode(w http.ResponseWriter, r *http.Request) (custodyRequest, *big.Int, bool) {
	var req custodyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return req, nil, false
	}
	amount, err := parseAmount(req.Amount, "amount")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, nil, false
	}
	return req, amount, true
}

// finish reports the operation outcome.
func (h *CustodyHandler) finish(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		h.logger.WarnContext(r.Context(), "custody operation failed", slog.String("error", err.Error()))
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
