package chain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/halcyoncap/arbengine/internal/domain"
)

func TestMapDeadline(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		mapped bool
	}{
		{"deadline revert", errors.New("execution reverted: DEADLINE_PASSED"), true},
		{"expired revert", errors.New("execution reverted: order expired"), true},
		{"unrelated revert", errors.New("execution reverted: insufficient liquidity"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapDeadline(tc.err)
			if tc.mapped {
				assert.ErrorIs(t, got, domain.ErrDeadlineExceeded)
			} else {
				assert.NotErrorIs(t, got, domain.ErrDeadlineExceeded)
				assert.Equal(t, tc.err, got)
			}
		})
	}
}
