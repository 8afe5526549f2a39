// Package handler implements the engine's HTTP API handlers.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/halcyoncap/arbengine/internal/domain"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps the engine's error taxonomy onto HTTP status codes
// and sends the originating reason verbatim.
func writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNoProfit):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrLockHeld):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	}
	writeError(w, status, err.Error())
}

// parseAddress validates and decodes an address-like identifier.
func parseAddress(raw, field string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%s: %q is not a valid address", field, raw)
	}
	return common.HexToAddress(raw), nil
}

// parseAmount decodes a non-negative base-10 integer amount.
func parseAmount(raw, field string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(raw, 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("%s: %q is not a non-negative integer", field, raw)
	}
	return n, nil
}

// parseLimit extracts a bounded limit query parameter (default 50, max 500).
func parseLimit(r *http.Request) int {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}
	return limit
}

// resultPayload is the JSON shape of an emitted opportunity record.
type resultPayload struct {
	ID             string `json:"id"`
	Flow           string `json:"flow"`
	Token          string `json:"token"`
	AmountIn       string `json:"amount_in"`
	AmountReturned string `json:"amount_returned"`
	Succeeded      bool   `json:"succeeded"`
	Reason         string `json:"reason,omitempty"`
	ExecutedAt     string `json:"executed_at"`
}

// toPayload converts a domain record to its JSON shape.
func toPayload(res domain.OpportunityResult) resultPayload {
	return resultPayload{
		ID:             res.ID,
		Flow:           string(res.Flow),
		Token:          res.Token.Hex(),
		AmountIn:       res.AmountIn.String(),
		AmountReturned: res.AmountReturned.String(),
		Succeeded:      res.Succeeded,
		Reason:         res.Reason,
		ExecutedAt:     res.ExecutedAt.Format("2006-01-02T15:04:05.000Z07:00"),
	}
}
