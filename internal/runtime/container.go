package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/pkg/cio"
	"github.com/containerd/containerd/v2/pkg/oci"
	"github.com/containerd/errdefs"
	specs "github.com/opencontainers/runtime-spec/specs-go"
)

// Lifecycle state of a container.
type State string

const (
	StateNotCreated State = "not-created"
	StateRunning    State = "running"
	StateStopped    State = "stopped"
)

// Settings of a container started by [Runtime.StartContainer].
type StartOptions struct {
	ID         string   // Containerd container id.
	Image      string   // Image reference.
	Hostname   string   // Hostname inside the container.
	User       string   // "user[:group]" the process runs as.
	Memory     int64    // Memory limit in bytes; 0 for none.
	Env        []string // "KEY=VALUE" pairs added to the image environment.
	Args       []string // Overrides the image command when non-empty.
	Binds      []string // "host:container[:ro|rw]" bind mounts.
	Privileged bool     // Grant all capabilities.
}

// A container backed by containerd.
type Container struct {
	client      *containerd.Client // Containerd client for managing the container.
	id          string             // Containerd container id.
	platform    string             // OCI platform (e.g., "linux/amd64").
	snapshotter string             // Snapshotter holding the container filesystem.
	logPath     string             // File receiving the task's stdout and stderr.
}

// Returns the containerd container id.
func (c *Container) ID() string {
	return c.id
}

// Queries the current state of the container.
func (c *Container) Status(ctx context.Context) (State, error) {
	ctr, err := c.client.LoadContainer(ctx, c.id)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return StateNotCreated, nil
		}
		return "", fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	task, err := ctr.Task(ctx, nil)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return StateStopped, nil
		}
		return "", fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	status, err := task.Status(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	if status.Status == containerd.Running {
		return StateRunning, nil
	}
	return StateStopped, nil
}

// Stops the container's task.
//
// The running task is killed and deleted. The container metadata is preserved.
// Calling Stop on an already-stopped container is not an error; a missing
// container wraps [ErrContainerNotFound].
func (c *Container) Stop(ctx context.Context) error {
	ctr, err := c.client.LoadContainer(ctx, c.id)
	if err != nil {
		return c.wrap(err)
	}

	task, err := ctr.Task(ctx, nil)
	if err != nil {
		if errdefs.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	task.Kill(ctx, syscall.SIGKILL)
	if _, err := task.Delete(ctx, containerd.WithProcessKill); err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	return nil
}

// Removes the container and its resources.
//
// The task is killed and the container is removed from containerd along
// with its snapshot and log file. After destruction the handle is invalid.
func (c *Container) Destroy(ctx context.Context) error {
	ctr, err := c.client.LoadContainer(ctx, c.id)
	if err != nil {
		return c.wrap(err)
	}

	if task, err := ctr.Task(ctx, nil); err == nil {
		task.Kill(ctx, syscall.SIGKILL)
		task.Delete(ctx, containerd.WithProcessKill)
	}

	if err := ctr.Delete(ctx, containerd.WithSnapshotCleanup); err != nil && !errdefs.IsNotFound(err) {
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	if err := os.Remove(c.logPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to remove container log", "id", c.id, "error", err)
	}
	return nil
}

// Copies the container's output to w.
//
// Stdout and stderr share a single log file, so both arrive on w.
func (c *Container) Logs(ctx context.Context, w io.Writer) error {
	if _, err := c.client.LoadContainer(ctx, c.id); err != nil {
		return c.wrap(err)
	}

	f, err := os.Open(c.logPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}
	return nil
}

// Returns the ports the container's image exposes, as "port/proto" keys.
func (c *Container) ExposedPorts(ctx context.Context) ([]string, error) {
	ctr, err := c.client.LoadContainer(ctx, c.id)
	if err != nil {
		return nil, c.wrap(err)
	}

	image, err := ctr.Image(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	config, err := image.Spec(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	return portKeys(config.Config.ExposedPorts), nil
}

// Creates the containerd container.
//
// Containers share the host network namespace; there is no bridge to
// publish ports through.
func (c *Container) create(ctx context.Context, image containerd.Image, opts StartOptions) (containerd.Container, error) {
	mounts, err := bindMounts(opts.Binds)
	if err != nil {
		return nil, err
	}

	specOpts := []oci.SpecOpts{
		oci.WithDefaultSpecForPlatform(c.platform),
		oci.WithImageConfig(image),
		oci.WithHostNamespace(specs.NetworkNamespace),
		oci.WithHostResolvconf,
		oci.WithHostHostsFile,
		oci.WithEnv(opts.Env),
		oci.WithMounts(mounts),
	}
	if len(opts.Args) > 0 {
		specOpts = append(specOpts, oci.WithProcessArgs(opts.Args...))
	}
	if opts.Hostname != "" {
		specOpts = append(specOpts, oci.WithHostname(opts.Hostname))
	}
	if opts.User != "" {
		specOpts = append(specOpts, oci.WithUser(opts.User))
	}
	if opts.Memory > 0 {
		specOpts = append(specOpts, oci.WithMemoryLimit(uint64(opts.Memory)))
	}
	if opts.Privileged {
		specOpts = append(specOpts, oci.WithPrivileged)
	}

	return c.client.NewContainer(ctx, c.id,
		containerd.WithImage(image),
		containerd.WithSnapshotter(c.snapshotter),
		containerd.WithNewSnapshot(c.id, image),
		containerd.WithRuntime(ociRuntime, nil),
		containerd.WithNewSpec(specOpts...),
	)
}

// Starts the container's task with its output sent to the log file.
func (c *Container) startTask(ctx context.Context, ctr containerd.Container) error {
	task, err := ctr.NewTask(ctx, cio.LogFile(c.logPath))
	if err != nil {
		return err
	}
	if err := task.Start(ctx); err != nil {
		task.Delete(ctx)
		return err
	}
	return nil
}

// Removes an existing container with this ID, if one exists.
//
// Any running task is killed and the container is deleted along with its
// snapshot. This is a no-op when no container with the ID is found.
func (c *Container) remove(ctx context.Context) {
	existing, err := c.client.LoadContainer(ctx, c.id)
	if err != nil {
		return
	}
	if task, err := existing.Task(ctx, nil); err == nil {
		task.Kill(ctx, syscall.SIGKILL)
		task.Delete(ctx, containerd.WithProcessKill)
	}
	existing.Delete(ctx, containerd.WithSnapshotCleanup)
}

// Classifies a container lookup failure.
func (c *Container) wrap(err error) error {
	if errdefs.IsNotFound(err) {
		return fmt.Errorf("%w: %s", ErrContainerNotFound, c.id)
	}
	return fmt.Errorf("%w: %w", ErrRuntime, err)
}

// Converts "host:container[:ro|rw]" binds into OCI bind mounts.
func bindMounts(binds []string) ([]specs.Mount, error) {
	mounts := make([]specs.Mount, 0, len(binds))
	for _, b := range binds {
		parts := strings.Split(b, ":")
		if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidBind, b)
		}
		mode := "rw"
		if len(parts) == 3 {
			if parts[2] != "ro" && parts[2] != "rw" {
				return nil, fmt.Errorf("%w: %q", ErrInvalidBind, b)
			}
			mode = parts[2]
		}
		if !filepath.IsAbs(parts[0]) || !filepath.IsAbs(parts[1]) {
			return nil, fmt.Errorf("%w: %q: paths must be absolute", ErrInvalidBind, b)
		}
		mounts = append(mounts, specs.Mount{
			Type:        "bind",
			Source:      parts[0],
			Destination: parts[1],
			Options:     []string{"rbind", mode},
		})
	}
	return mounts, nil
}

// Returns the sorted keys of an image's exposed port set.
func portKeys(exposed map[string]struct{}) []string {
	keys := make([]string, 0, len(exposed))
	for k := range exposed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Path of a container's log file.
func logPath(dir, id string) string {
	return filepath.Join(dir, id+".log")
}
