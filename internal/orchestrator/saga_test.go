package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSaga_UnwindsInReverseOrder(t *testing.T) {
	sg := newSaga(slog.New(slog.DiscardHandler))

	var order []string
	sg.push("first", func(ctx context.Context) error {
		order = append(order, "first")
		return nil
	})
	sg.push("second", func(ctx context.Context) error {
		order = append(order, "second")
		return nil
	})

	sg.unwind(context.Background())
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestSaga_FailedCompensatorDoesNotStopUnwind(t *testing.T) {
	sg := newSaga(slog.New(slog.DiscardHandler))

	ran := false
	sg.push("first", func(ctx context.Context) error {
		ran = true
		return nil
	})
	sg.push("second", func(ctx context.Context) error {
		return errors.New("already settled")
	})

	sg.unwind(context.Background())
	assert.True(t, ran, "remaining compensators must still run")
}

func TestSaga_ClearDropsCompensators(t *testing.T) {
	sg := newSaga(slog.New(slog.DiscardHandler))

	ran := false
	sg.push("step", func(ctx context.Context) error {
		ran = true
		return nil
	})
	sg.clear()

	sg.unwind(context.Background())
	assert.False(t, ran)
}
