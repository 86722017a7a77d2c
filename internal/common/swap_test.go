package common

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapWithProbeCommits(t *testing.T) {
	value := "old-key"
	err := SwapWithProbe(context.Background(), "api key", value, "new-key",
		func(v string) error { value = v; return nil },
		func(ctx context.Context) error { return nil },
		nil)
	require.NoError(t, err)
	assert.Equal(t, "new-key", value)
}

func TestSwapWithProbeRevertsOnProbeFailure(t *testing.T) {
	value := "old-key"
	err := SwapWithProbe(context.Background(), "api key", value, "broken-key",
		func(v string) error { value = v; return nil },
		func(ctx context.Context) error { return errors.New("401 unauthorized") },
		nil)
	require.Error(t, err)
	assert.Equal(t, "old-key", value, "failed probe restores the previous value")
}

func TestSwapWithProbeApplyFailure(t *testing.T) {
	err := SwapWithProbe(context.Background(), "model", "old", "new",
		func(v string) error { return errors.New("cannot apply") },
		func(ctx context.Context) error { return nil },
		nil)
	require.Error(t, err)
}
