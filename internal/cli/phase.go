package cli

import (
	"context"
	"errors"

	"github.com/cruciblehq/hoist/internal/pipeline"
)

// Represents the 'hoist start' command.
type StartCmd struct {
	Wait bool `help:"Keep containers running until interrupted, then stop them."`
}

// Executes the start command.
//
// Start opens a new run: unless a run id is configured, state left on the
// default id by an earlier run is discarded. With --wait the containers are
// stopped and deleted once the process is interrupted.
func (c *StartCmd) Run(ctx context.Context) error {
	if !c.Wait {
		return runPhase(ctx, pipeline.PhaseStart)
	}

	s, err := openSession(phaseRunID, true)
	if err != nil {
		return err
	}
	err = s.runner.RunWithKeepAlive(ctx, pipeline.PhaseStart)
	return errors.Join(err, s.close(false))
}

// Represents the 'hoist build' command.
type BuildCmd struct{}

// Executes the build command.
func (c *BuildCmd) Run(ctx context.Context) error {
	return runPhase(ctx, pipeline.PhaseBuild)
}

// Represents the 'hoist commit' command.
type CommitCmd struct{}

// Executes the commit command.
func (c *CommitCmd) Run(ctx context.Context) error {
	return runPhase(ctx, pipeline.PhaseCommit)
}

// Represents the 'hoist tag' command.
type TagCmd struct{}

// Executes the tag command.
func (c *TagCmd) Run(ctx context.Context) error {
	return runPhase(ctx, pipeline.PhaseTag)
}

// Represents the 'hoist push' command.
type PushCmd struct{}

// Executes the push command.
func (c *PushCmd) Run(ctx context.Context) error {
	return runPhase(ctx, pipeline.PhasePush)
}

// Represents the 'hoist stop' command.
type StopCmd struct{}

// Executes the stop command.
//
// Stop is not interrupted by SIGINT or SIGTERM once it has begun.
func (c *StopCmd) Run(ctx context.Context) error {
	return runPhase(context.WithoutCancel(ctx), pipeline.PhaseStop)
}

// Runs a single phase against the persisted run context and saves it.
//
// The start phase begins a fresh context on the default run id.
func runPhase(ctx context.Context, p pipeline.Phase) error {
	s, err := openSession(phaseRunID, p == pipeline.PhaseStart)
	if err != nil {
		return err
	}
	err = s.runner.RunPhase(ctx, p)
	return errors.Join(err, s.close(false))
}
