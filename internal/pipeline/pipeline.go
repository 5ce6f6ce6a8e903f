package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/cruciblehq/hoist/internal/manifest"
	"github.com/cruciblehq/hoist/internal/metrics"
	"github.com/cruciblehq/hoist/internal/provider"
	"github.com/cruciblehq/hoist/internal/state"
)

// A pipeline phase.
type Phase string

const (
	PhaseStart  Phase = "start"
	PhaseBuild  Phase = "build"
	PhaseCommit Phase = "commit"
	PhaseTag    Phase = "tag"
	PhasePush   Phase = "push"
	PhaseStop   Phase = "stop"
	PhaseVerify Phase = "verify"
)

// Every phase in execution order.
var Phases = []Phase{PhaseStart, PhaseBuild, PhaseCommit, PhaseTag, PhasePush, PhaseStop, PhaseVerify}

// Parses a phase name.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !slices.Contains(Phases, p) {
		return "", fmt.Errorf("%w: %q", ErrUnknownPhase, s)
	}
	return p, nil
}

// Runs the phases of one pipeline against a provider.
//
// Every phase reads and writes the run context. Failures of individual
// items are recorded there and the phase moves on; a phase returns an error
// only when the run cannot continue.
type Runner struct {
	provider provider.Provider  // Container backend.
	pipeline *manifest.Pipeline // Declared containers, images, commits and tags.
	rc       *state.RunContext  // Correlation store of the run.
	recorder metrics.Recorder   // Phase and operation metrics.
	stdout   io.Writer          // Destination of dumped container stdout.
	stderr   io.Writer          // Destination of dumped container stderr.
}

// Configures a [Runner].
type Option func(*Runner)

// Sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(rn *Runner) { rn.recorder = r }
}

// Sets where container logs are dumped by the stop phase.
func WithLogOutput(stdout, stderr io.Writer) Option {
	return func(rn *Runner) { rn.stdout, rn.stderr = stdout, stderr }
}

// Creates a runner.
func New(p provider.Provider, pl *manifest.Pipeline, rc *state.RunContext, opts ...Option) *Runner {
	r := &Runner{
		provider: p,
		pipeline: pl,
		rc:       rc,
		recorder: metrics.Noop{},
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Returns the run context.
func (r *Runner) Context() *state.RunContext {
	return r.rc
}

// Runs the given phases in order.
//
// A fatal error ends the run, but when the stop phase was requested and the
// start phase has run, the stop phase still runs to release containers. The
// stop phase always runs with a context that is not cancelled.
func (r *Runner) Run(ctx context.Context, phases ...Phase) error {
	started := false
	for i, p := range phases {
		if p == PhaseStop {
			ctx = context.WithoutCancel(ctx)
		}
		if err := r.RunPhase(ctx, p); err != nil {
			if started && p != PhaseStop && slices.Contains(phases[i+1:], PhaseStop) {
				slog.Warn("run aborted, stopping containers", errAttr(err))
				_ = r.RunPhase(context.WithoutCancel(ctx), PhaseStop)
			}
			return err
		}
		if p == PhaseStart {
			started = true
		}
	}
	return nil
}

// Runs a single phase and records its duration and result.
func (r *Runner) RunPhase(ctx context.Context, p Phase) error {
	before := len(r.rc.Errors)
	begin := time.Now()
	slog.Info("phase started", phaseAttr(p), runAttr(r.rc.RunID))

	var err error
	switch p {
	case PhaseStart:
		err = r.Start(ctx)
	case PhaseBuild:
		err = r.Build(ctx)
	case PhaseCommit:
		err = r.Commit(ctx)
	case PhaseTag:
		err = r.Tag(ctx)
	case PhasePush:
		err = r.Push(ctx)
	case PhaseStop:
		err = r.Stop(ctx)
	case PhaseVerify:
		err = Verify(r.rc)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownPhase, p)
	}

	elapsed := time.Since(begin)
	r.recorder.ObservePhaseDuration(string(p), elapsed)

	recorded := len(r.rc.Errors) - before
	switch {
	case err != nil:
		r.recorder.IncPhaseResult(string(p), metrics.ResultFatal)
		slog.Error("phase failed", phaseAttr(p), slog.Duration(KeyDuration, elapsed), errAttr(err))
	case recorded > 0:
		r.recorder.IncPhaseResult(string(p), metrics.ResultErrors)
		slog.Warn("phase finished with errors", phaseAttr(p), slog.Duration(KeyDuration, elapsed), slog.Int(KeyErrors, recorded))
	default:
		r.recorder.IncPhaseResult(string(p), metrics.ResultSuccess)
		slog.Info("phase finished", phaseAttr(p), slog.Duration(KeyDuration, elapsed))
	}
	return err
}

// Records a non-fatal failure and logs it.
func (r *Runner) fail(p Phase, message string, cause error, attrs ...any) {
	pe := r.rc.AddError(string(p), message, cause)
	slog.Warn(pe.Message, append([]any{phaseAttr(p), errAttr(cause)}, attrs...)...)
}

// Counts a provider operation and passes its error through.
func (r *Runner) op(name string, err error) error {
	r.recorder.IncOperation(name, err == nil)
	return err
}
