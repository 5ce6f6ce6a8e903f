package cli

import (
	"errors"
	"log/slog"

	"github.com/cruciblehq/hoist/internal/config"
	"github.com/cruciblehq/hoist/internal/manifest"
	"github.com/cruciblehq/hoist/internal/metrics"
	"github.com/cruciblehq/hoist/internal/paths"
	"github.com/cruciblehq/hoist/internal/pipeline"
	"github.com/cruciblehq/hoist/internal/provider"
	"github.com/cruciblehq/hoist/internal/state"
)

// Run id used by phase commands when none is configured.
const defaultRunID = "default"

// Dotenv file loaded before the environment is read.
const dotenvFile = ".env"

// Returns the state file of a run.
var runStatePath = paths.RunState

// Everything one invocation needs to run phases.
type session struct {
	runner   *pipeline.Runner    // Runner bound to the provider and run context.
	provider provider.Provider   // Opened provider.
	store    *state.Store        // Persisted run context.
	metrics  *metrics.Prometheus // Nil unless --metrics-file is set.
}

// Returns the flags that override the pipeline file and environment.
func flags() config.Flags {
	return config.Flags{
		Provider: RootCmd.Provider,
		Host:     RootCmd.Host,
		Port:     RootCmd.Port,
		RunID:    RootCmd.RunID,
	}
}

// Loads the pipeline, opens the provider and restores the run context.
//
// fallbackRunID supplies the run id when neither a flag nor the environment
// sets one. With fresh set, a run on the fallback id starts from an empty
// context and overwrites whatever a previous run left behind.
func openSession(fallbackRunID func() string, fresh bool) (*session, error) {
	if err := config.LoadDotenv(dotenvFile); err != nil {
		return nil, err
	}

	pl, err := manifest.Load(RootCmd.File)
	if err != nil {
		return nil, err
	}

	settings, err := config.Resolve(flags(), pl)
	if err != nil {
		return nil, err
	}
	runID := settings.RunID
	if runID == "" {
		runID = fallbackRunID()
	}

	store := state.NewStore(runStatePath(runID))
	var rc *state.RunContext
	if fresh && settings.RunID == "" {
		rc = restart(store, runID)
	} else if rc, err = store.Load(runID); err != nil {
		return nil, err
	}

	p, err := provider.NewRegistry().Open(settings.Provider, settings.Daemon)
	if err != nil {
		return nil, err
	}
	if settings.Credentials != nil {
		p.SetCredentials(*settings.Credentials)
	}

	s := &session{provider: p, store: store}
	var opts []pipeline.Option
	if RootCmd.MetricsFile != "" {
		s.metrics = metrics.NewPrometheus()
		opts = append(opts, pipeline.WithRecorder(s.metrics))
	}
	s.runner = pipeline.New(p, pl, rc, opts...)

	slog.Debug("session opened", "run", runID, "provider", settings.Provider, "file", RootCmd.File)
	return s, nil
}

// Persists the run context, writes metrics and closes the provider.
//
// When remove is set the persisted state is deleted instead of saved.
func (s *session) close(remove bool) error {
	var errs []error
	if remove {
		errs = append(errs, s.store.Remove())
	} else {
		errs = append(errs, s.store.Save(s.runner.Context()))
	}
	if s.metrics != nil {
		errs = append(errs, s.metrics.WriteFile(RootCmd.MetricsFile))
	}
	errs = append(errs, s.provider.Close())
	return errors.Join(errs...)
}

// Returns an empty context for runID, warning about any containers a
// previous run on the same id left registered.
func restart(store *state.Store, runID string) *state.RunContext {
	if stale, err := store.Load(runID); err == nil && (len(stale.Containers) > 0 || stale.HasErrors()) {
		ids := make([]string, len(stale.Containers))
		for i, sc := range stale.Containers {
			ids[i] = sc.ContainerID
		}
		slog.Warn("discarding state of previous run", "run", runID, "containers", ids, "errors", len(stale.Errors))
	}
	return state.New(runID)
}

// Returns the default run id of phase commands.
func phaseRunID() string {
	return defaultRunID
}
