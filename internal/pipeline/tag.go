package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cruciblehq/hoist/internal/manifest"
	"github.com/cruciblehq/hoist/internal/state"
)

// Effective source and registry of a tag spec.
type TagTarget struct {
	ImageID  string // Image the tags are applied to.
	Registry string // Registry tagged images are pushed to; empty for none.
}

// Resolves a tag spec against the images registered in the run.
//
// The image is the one registered under the spec id, or the id itself when
// nothing was registered under it. The spec's registry wins over the one
// inherited from the registered image.
func ResolveTag(rc *state.RunContext, spec manifest.Tag) TagTarget {
	t := TagTarget{ImageID: spec.ID, Registry: spec.Registry}
	if img, ok := rc.Image(spec.ID); ok {
		t.ImageID = img.ImageID
		if t.Registry == "" {
			t.Registry = img.Registry
		}
	}
	return t
}

// Applies every declared tag.
//
// A failed tag is recorded and the next tag of the same spec is still
// applied. Only successfully applied tags are queued for push.
func (r *Runner) Tag(ctx context.Context) error {
	for _, spec := range r.pipeline.Tags {
		r.applyTags(ctx, spec)
	}
	return nil
}

func (r *Runner) applyTags(ctx context.Context, spec manifest.Tag) {
	target := ResolveTag(r.rc, spec)

	for _, tag := range spec.Tags {
		err := r.op("tag_image", r.provider.TagImage(ctx, target.ImageID, tag))
		if err != nil {
			r.fail(PhaseTag, fmt.Sprintf("failed to tag %s as %s", spec.ID, tag), err, idAttr(spec.ID), tagAttr(tag))
			continue
		}
		slog.Info("image tagged", idAttr(spec.ID), imageAttr(target.ImageID), tagAttr(tag))

		if spec.Push {
			r.enqueue(tag, target.Registry)
		}
	}
}
