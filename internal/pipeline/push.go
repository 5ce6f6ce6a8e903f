package pipeline

import (
	"context"
	"fmt"
	"log/slog"
)

// Pushes every queued image in queue order.
func (r *Runner) Push(ctx context.Context) error {
	for _, p := range r.rc.Pushables {
		err := r.op("push_image", r.provider.PushImage(ctx, p.Image, p.Registry))
		if err != nil {
			r.fail(PhasePush, fmt.Sprintf("failed to push %s", p.Image), err, imageAttr(p.Image), registryAttr(p.Registry))
			continue
		}
		slog.Info("image pushed", imageAttr(p.Image), registryAttr(p.Registry))
	}
	return nil
}
