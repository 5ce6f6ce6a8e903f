// Package state holds the correlation store of a pipeline run.
//
// A [RunContext] is created when a run starts and is threaded explicitly
// through every phase. It records the containers the start phase created,
// the images the build and commit phases produced, the images queued for
// push, and every non-fatal failure. Phases never call each other; a later
// phase learns about an earlier phase's results only by looking them up here
// under the user-chosen id.
//
// All lists are append-only for the lifetime of a run. A [Store] persists the
// context between phase invocations that run as separate processes and is
// cleared once the run has been verified.
//
// Example usage:
//
//	store := state.NewStore(paths.RunState(runID))
//	rc, err := store.Load(runID)
//	if err != nil {
//	    return err
//	}
//	rc.AddImage(state.BuiltImage{StartID: "app", ImageID: id})
//	if err := store.Save(rc); err != nil {
//	    return err
//	}
package state
