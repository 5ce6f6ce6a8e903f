package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/containerd/containerd/v2/core/images"
	"github.com/containerd/errdefs"
	"github.com/distribution/reference"
	"github.com/opencontainers/go-digest"
)

// Returns the fully qualified name containerd stores an image under, e.g.
// "redis" becomes "docker.io/library/redis:latest".
func normalize(ref string) (string, error) {
	named, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrRuntime, ref, err)
	}
	return reference.TagNameOnly(named).String(), nil
}

// Finds an image record by name or by target digest.
//
// A digest matches the first record, by name, whose target it is.
func (rt *Runtime) lookup(ctx context.Context, ref string) (images.Image, error) {
	is := rt.client.ImageService()

	if strings.HasPrefix(ref, "sha256:") {
		d, err := digest.Parse(ref)
		if err != nil {
			return images.Image{}, err
		}
		found, err := is.List(ctx, "target.digest=="+d.String())
		if err != nil {
			return images.Image{}, err
		}
		if len(found) == 0 {
			return images.Image{}, fmt.Errorf("image %s: %w", d, errdefs.ErrNotFound)
		}
		best := found[0]
		for _, img := range found[1:] {
			if img.Name < best.Name {
				best = img
			}
		}
		return best, nil
	}

	named, err := normalize(ref)
	if err != nil {
		return images.Image{}, err
	}
	return is.Get(ctx, named)
}
