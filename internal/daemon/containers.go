package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	dockererrdefs "github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
)

// Outcome of a single create attempt.
type CreateOutcome int

const (
	Created      CreateOutcome = iota // The container exists.
	ImageMissing                      // The daemon does not have the image.
	Failed                            // Any other failure.
)

func (o CreateOutcome) String() string {
	switch o {
	case Created:
		return "created"
	case ImageMissing:
		return "image missing"
	default:
		return "failed"
	}
}

// Result of a create attempt. ID is set for [Created], Err for [Failed] and
// [ImageMissing].
type CreateResult struct {
	Outcome  CreateOutcome
	ID       string
	Warnings []string
	Err      error
}

// Attempts to create a container once.
func (c *Client) CreateContainer(ctx context.Context, name string, cfg *container.Config, hc *container.HostConfig) CreateResult {
	resp, err := c.api.ContainerCreate(ctx, cfg, hc, nil, nil, name)
	switch {
	case err == nil:
		return CreateResult{Outcome: Created, ID: resp.ID, Warnings: resp.Warnings}
	case dockererrdefs.IsNotFound(err):
		return CreateResult{Outcome: ImageMissing, Err: fmt.Errorf("%w: %s: %w", ErrImageNotFound, cfg.Image, err)}
	default:
		return CreateResult{Outcome: Failed, Err: apiErr(err, "create", cfg.Image)}
	}
}

// Creates a container, pulling its image and retrying once if the daemon
// does not have it.
//
// A second image miss after the pull is fatal. Returns the container id.
func (c *Client) CreateWithPull(ctx context.Context, name string, cfg *container.Config, hc *container.HostConfig) (string, error) {
	res := c.CreateContainer(ctx, name, cfg, hc)

	if res.Outcome == ImageMissing {
		slog.Info("image not present, pulling", "image", cfg.Image)
		if err := c.PullImage(ctx, cfg.Image); err != nil {
			return "", err
		}
		res = c.CreateContainer(ctx, name, cfg, hc)
	}

	for _, w := range res.Warnings {
		slog.Warn("daemon warning", "image", cfg.Image, "warning", w)
	}

	switch res.Outcome {
	case Created:
		return res.ID, nil
	case ImageMissing:
		return "", fmt.Errorf("%w (still missing after pull)", res.Err)
	default:
		return "", res.Err
	}
}

// Starts a created container.
func (c *Client) StartContainer(ctx context.Context, id string) error {
	return containerErr(c.api.ContainerStart(ctx, id, container.StartOptions{}), "start", id)
}

// Returns inspection data for a container.
func (c *Client) InspectContainer(ctx context.Context, id string) (types.ContainerJSON, error) {
	info, err := c.api.ContainerInspect(ctx, id)
	if err != nil {
		return types.ContainerJSON{}, containerErr(err, "inspect", id)
	}
	return info, nil
}

// Kills a container.
//
// A container that is not running is already stopped and is not an error.
// A missing container wraps [ErrContainerNotFound].
func (c *Client) KillContainer(ctx context.Context, id string) error {
	err := c.api.ContainerKill(ctx, id, "")
	if dockererrdefs.IsConflict(err) {
		slog.Debug("container not running", "id", id, "error", err)
		return nil
	}
	return containerErr(err, "kill", id)
}

// Removes a container and its anonymous volumes.
func (c *Client) RemoveContainer(ctx context.Context, id string) error {
	return containerErr(c.api.ContainerRemove(ctx, id, container.RemoveOptions{RemoveVolumes: true}), "remove", id)
}

// Copies a container's stdout and stderr to the writers.
//
// Output of containers without a TTY is multiplexed by the daemon and split
// here; TTY output is a single raw stream written to stdout.
func (c *Client) ContainerLogs(ctx context.Context, id string, tty bool, stdout, stderr io.Writer) error {
	rc, err := c.api.ContainerLogs(ctx, id, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return containerErr(err, "logs", id)
	}
	defer rc.Close()

	if tty {
		_, err = io.Copy(stdout, rc)
	} else {
		_, err = stdcopy.StdCopy(stdout, stderr, rc)
	}
	if err != nil {
		return fmt.Errorf("%w: logs of %s: %w", ErrDaemon, id, err)
	}
	return nil
}

// Returns the container address and gateway.
//
// Daemons that attach containers to user-defined networks leave the
// top-level fields empty; the first network (by name) with an address is
// used instead.
func Address(ns *types.NetworkSettings) (ip, gateway string) {
	if ns == nil {
		return "", ""
	}
	if ns.IPAddress != "" {
		return ns.IPAddress, ns.Gateway
	}

	names := make([]string, 0, len(ns.Networks))
	for name, ep := range ns.Networks {
		if ep != nil && ep.IPAddress != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "", ns.Gateway
	}
	sort.Strings(names)
	ep := ns.Networks[names[0]]
	return ep.IPAddress, ep.Gateway
}
