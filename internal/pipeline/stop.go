package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cruciblehq/hoist/internal/state"
)

// Stops and deletes every started container, then removes images not
// marked keep.
//
// Containers are handled in registration order. Logs of containers that
// asked for them are dumped before the container is stopped. A container
// that could not be stopped is not deleted.
func (r *Runner) Stop(ctx context.Context) error {
	seen := make(map[string]bool, len(r.rc.Containers))
	for _, sc := range r.rc.Containers {
		if seen[sc.ContainerID] {
			continue
		}
		seen[sc.ContainerID] = true
		r.stopContainer(ctx, sc)
	}

	for _, img := range r.rc.LiveImages() {
		if img.Keep {
			continue
		}
		ref := firstNonEmpty(img.Name, img.ImageID)
		if err := r.op("remove_image", r.provider.RemoveImage(ctx, ref)); err != nil {
			r.fail(PhaseStop, fmt.Sprintf("failed to remove image %s", img.StartID), err, idAttr(img.StartID), imageAttr(ref))
			continue
		}
		slog.Info("image removed", idAttr(img.StartID), imageAttr(ref))
	}
	return nil
}

func (r *Runner) stopContainer(ctx context.Context, sc state.StartedContainer) {
	if sc.Logs {
		fmt.Fprintf(r.stdout, "--- logs of %s (%s) ---\n", sc.UserID, sc.ContainerID)
		if err := r.op("logs", r.provider.Logs(ctx, sc.ContainerID, r.stdout, r.stderr)); err != nil {
			r.fail(PhaseStop, fmt.Sprintf("failed to read logs of container %s", sc.UserID), err, idAttr(sc.UserID))
		}
	}

	if err := r.op("stop_container", r.provider.StopContainer(ctx, sc.ContainerID)); err != nil {
		r.fail(PhaseStop, fmt.Sprintf("failed to stop container %s", sc.UserID), err, idAttr(sc.UserID), containerAttr(sc.ContainerID))
		return
	}

	if err := r.op("delete_container", r.provider.DeleteContainer(ctx, sc.ContainerID)); err != nil {
		r.fail(PhaseStop, fmt.Sprintf("failed to delete container %s", sc.UserID), err, idAttr(sc.UserID), containerAttr(sc.ContainerID))
		return
	}
	slog.Info("container removed", idAttr(sc.UserID), containerAttr(sc.ContainerID))
}
