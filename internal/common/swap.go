package common

import (
	"context"
	"log/slog"
)

// SwapWithProbe applies a new value for a swappable setting (API key, model
// name), runs a cheap validation probe, and reverts to the previous value if
// the probe fails. apply must be idempotent; probe must not mutate state.
func SwapWithProbe[T any](
	ctx context.Context,
	name string,
	current T,
	next T,
	apply func(T) error,
	probe func(context.Context) error,
	logger *slog.Logger,
) error {
	if logger == nil {
		logger = slog.Default()
	}

	if err := apply(next); err != nil {
		return WrapError(err, "apply new "+name)
	}

	if err := probe(ctx); err != nil {
		logger.Warn("config.swap.probe_failed", "setting", name, "error", err)
		if revertErr := apply(current); revertErr != nil {
			logger.Error("config.swap.revert_failed", "setting", name, "error", revertErr)
			return WrapError(revertErr, "revert "+name+" after failed probe")
		}
		return NewAppError("SWAP_REJECTED", "new "+name+" failed validation probe", err)
	}

	logger.Info("config.swap.ok", "setting", name)
	return nil
}
