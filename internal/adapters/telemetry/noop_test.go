package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/mops/internal/adapters/telemetry"
)

func TestNoOp_Record(t *testing.T) {
	ctx := context.Background()
	got, v := telemetry.NoOp{}.Record(ctx, "acquire base@0.10.2")

	assert.Equal(t, ctx, got)
	assert.NotPanics(t, func() {
		v.Cached()
		v.Complete(errors.New("ignored"))
	})
}
