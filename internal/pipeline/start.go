package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cruciblehq/hoist/internal/manifest"
	"github.com/cruciblehq/hoist/internal/state"
)

// Starts every declared container in order.
//
// A container that fails to start, or whose links name a container this run
// did not start, is recorded as an error and skipped. When the provider
// reports an error but returns a container id, the container is stopped and
// removed. A started container whose network or ports cannot be read is
// still registered so the stop phase removes it. The exports file, when
// configured, is written last.
func (r *Runner) Start(ctx context.Context) error {
	for _, spec := range r.pipeline.Containers {
		r.startContainer(ctx, spec)
	}

	if r.pipeline.Exports != "" {
		if err := WriteExports(r.pipeline.Exports, r.rc.Containers); err != nil {
			r.fail(PhaseStart, "failed to write exports", err)
		}
	}
	return nil
}

func (r *Runner) startContainer(ctx context.Context, spec manifest.Container) {
	key := spec.Key()

	links, err := r.resolveLinks(spec.Links)
	if err != nil {
		r.fail(PhaseStart, fmt.Sprintf("cannot start container %s", key), err, idAttr(key))
		return
	}
	spec.Links = links

	started, err := r.provider.StartContainer(ctx, spec)
	r.op("start_container", err)
	if err != nil {
		r.fail(PhaseStart, fmt.Sprintf("failed to start container %s", key), err, idAttr(key), imageAttr(spec.Image))
		if started.ID != "" {
			r.discard(ctx, started.ID)
		}
		return
	}

	sc := state.StartedContainer{
		UserID:      key,
		ContainerID: started.ID,
		Image:       spec.Image,
		Name:        started.Name,
		Hostname:    started.Hostname,
		Logs:        spec.Logs,
	}

	if sc.Network, err = r.provider.NetworkInfo(ctx, started.ID); err != nil {
		r.fail(PhaseStart, fmt.Sprintf("failed to inspect network of container %s", key), err, idAttr(key))
	}
	if sc.Ports, err = r.provider.ExposedPorts(ctx, started.ID); err != nil {
		r.fail(PhaseStart, fmt.Sprintf("failed to inspect ports of container %s", key), err, idAttr(key))
	}

	r.rc.AddContainer(sc)
	slog.Info("container started",
		idAttr(key), containerAttr(started.ID), imageAttr(spec.Image),
		"ip", sc.Network.IPAddress,
	)
}

// Stops and removes a container the provider created but reported as failed.
//
// The container may be running, and daemons refuse to remove a running
// container, so it is stopped first.
func (r *Runner) discard(ctx context.Context, id string) {
	if err := r.op("stop_container", r.provider.StopContainer(ctx, id)); err != nil {
		slog.Warn("failed to stop container that did not start cleanly", containerAttr(id), errAttr(err))
	}
	if err := r.op("delete_container", r.provider.DeleteContainer(ctx, id)); err != nil {
		slog.Warn("failed to remove container that did not start cleanly", containerAttr(id), errAttr(err))
	}
}

// Rewrites "<user id>:<alias>" links to name the started containers.
func (r *Runner) resolveLinks(links []string) ([]string, error) {
	if len(links) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(links))
	for _, link := range links {
		id, alias := manifest.ParseLink(link)
		sc, ok := r.rc.Container(id)
		if !ok {
			return nil, fmt.Errorf("link %q names container %q, which was not started", link, id)
		}
		name := sc.Name
		if name == "" {
			name = sc.ContainerID
		}
		out = append(out, strings.TrimPrefix(name, "/")+":"+alias)
	}
	return out, nil
}
