package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cruciblehq/hoist/internal/config"
	"github.com/cruciblehq/hoist/internal/pipeline"
	"github.com/cruciblehq/hoist/internal/state"
)

// Represents the 'hoist verify' command.
type VerifyCmd struct{}

// Executes the verify command.
//
// Reads only the persisted run context; the pipeline file and provider are
// not needed. Each recorded failure is logged. Verify ends the run, so its
// state is removed once reported, whether or not the run is clean.
func (c *VerifyCmd) Run(ctx context.Context) error {
	if err := config.LoadDotenv(dotenvFile); err != nil {
		return err
	}
	settings, err := config.Resolve(flags(), nil)
	if err != nil {
		return err
	}
	runID := settings.RunID
	if runID == "" {
		runID = defaultRunID
	}

	store := state.NewStore(runStatePath(runID))
	rc, err := store.Load(runID)
	if err != nil {
		return err
	}

	err = pipeline.Verify(rc)
	var verr *pipeline.VerificationError
	if errors.As(err, &verr) {
		for _, pe := range verr.Errors {
			slog.Error(pe.Message, "run", runID, "phase", pe.Goal, "cause", pe.Cause)
		}
		err = pipeline.ErrVerification
	} else if err == nil {
		slog.Info("run verified", "run", runID)
	}
	return errors.Join(err, store.Remove())
}
