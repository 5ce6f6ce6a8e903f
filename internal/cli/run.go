package cli

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cruciblehq/hoist/internal/pipeline"
)

// Represents the 'hoist run' command.
type RunCmd struct {
	Wait bool `help:"Keep containers running after the build phases until interrupted."`
}

// Executes the run command.
//
// Runs every phase in one process under a fresh run id unless one is
// configured. With --wait the process blocks after the phases before stop
// until SIGINT or SIGTERM, then stops and verifies. The persisted run state
// is removed once verification passes.
func (c *RunCmd) Run(ctx context.Context) error {
	s, err := openSession(uuid.NewString, false)
	if err != nil {
		return err
	}
	slog.Info("run started", "run", s.runner.Context().RunID)

	if c.Wait {
		err = s.runner.RunWithKeepAlive(ctx, pipeline.Phases...)
	} else {
		err = s.runner.Run(ctx, pipeline.Phases...)
	}
	return errors.Join(err, s.close(err == nil))
}
