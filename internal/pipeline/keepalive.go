package pipeline

import (
	"context"
	"log/slog"
	"slices"
)

// Runs the phases before stop, blocks until ctx is cancelled, then runs
// stop and the phases after it.
//
// Stop runs even when an earlier phase failed, in which case the wait is
// skipped and the first error is returned. When phases does not include
// stop it is run anyway, so every started container is released.
func (r *Runner) RunWithKeepAlive(ctx context.Context, phases ...Phase) error {
	head, tail := phases, []Phase{PhaseStop}
	if i := slices.Index(phases, PhaseStop); i >= 0 {
		head, tail = phases[:i], phases[i:]
	}

	err := r.Run(ctx, head...)
	if err == nil {
		slog.Info("containers running, waiting for interrupt", runAttr(r.rc.RunID), slog.Int("containers", len(r.rc.Containers)))
		<-ctx.Done()
		slog.Info("interrupted, cleaning up", runAttr(r.rc.RunID))
	} else {
		tail = []Phase{PhaseStop}
	}

	if tailErr := r.Run(context.WithoutCancel(ctx), tail...); err == nil {
		err = tailErr
	}
	return err
}
