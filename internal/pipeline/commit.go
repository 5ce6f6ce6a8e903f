package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cruciblehq/hoist/internal/manifest"
	"github.com/cruciblehq/hoist/internal/state"
)

// Commits started containers into images.
//
// The resulting image is registered under the commit id, so tag specs find
// it the same way they find built images.
func (r *Runner) Commit(ctx context.Context) error {
	for _, spec := range r.pipeline.Commits {
		r.commitContainer(ctx, spec)
	}
	return nil
}

func (r *Runner) commitContainer(ctx context.Context, spec manifest.Commit) {
	key := spec.Key()

	sc, ok := r.rc.Container(spec.Container)
	if !ok {
		r.fail(PhaseCommit, fmt.Sprintf("cannot commit %s: container %s was not started", key, spec.Container), nil, idAttr(key))
		return
	}

	id, err := r.provider.CommitContainer(ctx, sc.ContainerID, spec)
	r.op("commit_container", err)
	if err != nil {
		r.fail(PhaseCommit, fmt.Sprintf("failed to commit container %s", spec.Container), err, idAttr(key), containerAttr(sc.ContainerID))
		return
	}

	ref := spec.Reference()
	r.rc.AddImage(state.BuiltImage{
		StartID:  key,
		ImageID:  id,
		Name:     ref,
		Registry: spec.Registry,
		Keep:     spec.Keep,
	})
	slog.Info("container committed", idAttr(key), containerAttr(sc.ContainerID), imageAttr(id))

	if spec.Push {
		if ref == "" {
			r.fail(PhaseCommit, fmt.Sprintf("cannot push image %s: it has no repository", key), nil, idAttr(key), imageAttr(id))
			return
		}
		r.enqueue(ref, spec.Registry)
	}
}
