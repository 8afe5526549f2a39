package domain

import "github.com/ethereum/go-ethereum/common"

// Guard is the single authorization check wrapping every mutating entry
// point. The operator is set at construction and transferable only through
// the external access-control collaborator.
type Guard struct {
	operator common.Address
}

// NewGuard creates a Guard for the given operator principal.
func NewGuard(operator common.Address) Guard {
	return Guard{operator: operator}
}

// Check returns ErrUnauthorized unless caller is the configured operator.
func (g Guard) Check(caller common.Address) error {
	if caller != g.operator {
		return ErrUnauthorized
	}
	return nil
}

// Operator returns the configured operator principal.
func (g Guard) Operator() common.Address {
	return g.operator
}
