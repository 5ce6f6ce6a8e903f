package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cruciblehq/hoist/internal/manifest"
	"github.com/cruciblehq/hoist/internal/state"
)

// Builds every declared image in order.
//
// All specs are validated before the first build; a spec without a
// Dockerfile ends the run. A failed build is recorded and the next image is
// built.
func (r *Runner) Build(ctx context.Context) error {
	for _, spec := range r.pipeline.Images {
		if err := spec.Validate(); err != nil {
			return err
		}
	}

	for _, spec := range r.pipeline.Images {
		r.buildImage(ctx, spec)
	}
	return nil
}

func (r *Runner) buildImage(ctx context.Context, spec manifest.Image) {
	key := spec.Key()

	id, err := r.provider.BuildImage(ctx, spec)
	r.op("build_image", err)
	if err != nil {
		r.fail(PhaseBuild, fmt.Sprintf("failed to build image %s", key), err, idAttr(key))
		return
	}

	r.rc.AddImage(state.BuiltImage{
		StartID:  key,
		ImageID:  id,
		Name:     spec.Name,
		Registry: spec.Registry,
		Keep:     spec.Keep,
	})
	slog.Info("image built", idAttr(key), imageAttr(id), tagAttr(spec.Name))

	if spec.Push {
		if spec.Name == "" {
			r.fail(PhaseBuild, fmt.Sprintf("cannot push image %s: it has no name", key), nil, idAttr(key), imageAttr(id))
			return
		}
		r.enqueue(spec.Name, spec.Registry)
	}
}

// Queues an image for the push phase.
func (r *Runner) enqueue(image, registry string) {
	if r.rc.AddPushable(state.PushableImage{Image: image, Registry: registry}) {
		slog.Debug("image queued for push", imageAttr(image), registryAttr(registry))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
