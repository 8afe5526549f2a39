package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/halcyoncap/arbengine/internal/domain"
)

// ArbRunner is the orchestrator surface the handler needs.
type ArbRunner interface {
	AuctionToAMM(ctx context.Context, caller, arbToken common.Address, amount *big.Int) (domain.OpportunityResult, error)
	AMMToAuction(ctx context.Context, caller, arbToken common.Address, amount *big.Int) (domain.OpportunityResult, error)
}

// ArbitrageHandler exposes the two opportunity flows over HTTP. The auth
// middleware has already authenticated the request as the operator, so the
// handler invokes the orchestrator with the operator principal.
type ArbitrageHandler struct {
	runner   ArbRunner
	operator common.Address
	logger   *slog.Logger
}

// NewArbitrageHandler creates an ArbitrageHandler.
func NewArbitrageHandler(runner ArbRunner, operator common.Address, logger *slog.Logger) *ArbitrageHandler {
	return &ArbitrageHandler{
		runner:   runner,
		operator: operator,
		logger:   logger.With(slog.String("handler", "arbitrage")),
	}
}

// opportunityRequest is the JSON body for both flow endpoints.
type opportunityRequest struct {
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

// AuctionToAMM handles POST /api/v1/arbitrage/auction-to-amm.
func (h *ArbitrageHandler) AuctionToAMM(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.runner.AuctionToAMM)
}

// AMMToAuction handles POST /api/v1/arbitrage/amm-to-auction.
func (h *ArbitrageHandler) AMMToAuction(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.runner.AMMToAuction)
}

func (h *ArbitrageHandler) run(
	w http.ResponseWriter,
	r *http.Request,
	flow func(ctx context.Context, caller, token common.Address, amount *big.Int) (domain.OpportunityResult, error),
) {
	var req opportunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	token, err := parseAddress(req.Token, "token")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseAmount(req.Amount, "amount")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if amount.Sign() == 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	res, err := flow(r.Context(), h.operator, token, amount)
	if err != nil {
		h.logger.WarnContext(r.Context(), "opportunity flow failed",
			slog.String("token", token.Hex()),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPayload(res))
}
