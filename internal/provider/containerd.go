package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/cruciblehq/hoist/internal/daemon"
	"github.com/cruciblehq/hoist/internal/manifest"
	"github.com/cruciblehq/hoist/internal/paths"
	"github.com/cruciblehq/hoist/internal/runtime"
	"github.com/cruciblehq/hoist/internal/state"
)

const (

	// Default containerd socket.
	DefaultContainerdAddress = "/run/containerd/containerd.sock"

	// Default containerd namespace.
	DefaultContainerdNamespace = "hoist"

	// Address reported for containers sharing the host network.
	hostAddress = "127.0.0.1"
)

// Runs pipeline operations on a local containerd daemon.
//
// Containers share the host network namespace. Links, port remapping and
// network modes have no effect, and image builds are not supported.
type ContainerdProvider struct {
	rt *runtime.Runtime
}

// Creates a provider for a local containerd daemon.
func NewContainerd(cfg Config) (Provider, error) {
	opts := runtime.Options{
		Address:   cfg.ContainerdAddress,
		Namespace: cfg.ContainerdNamespace,
		LogDir:    cfg.LogDir,
	}
	if opts.Address == "" {
		opts.Address = DefaultContainerdAddress
	}
	if opts.Namespace == "" {
		opts.Namespace = DefaultContainerdNamespace
	}
	if opts.LogDir == "" {
		opts.LogDir = paths.ContainerLogs()
	}

	rt, err := runtime.New(opts)
	if err != nil {
		return nil, err
	}
	slog.Debug("using containerd", "address", opts.Address, "namespace", opts.Namespace)
	return &ContainerdProvider{rt: rt}, nil
}

// Creates and starts a task for the container spec.
func (p *ContainerdProvider) StartContainer(ctx context.Context, spec manifest.Container) (Started, error) {
	for _, ignored := range unsupportedStartOptions(spec) {
		slog.Warn("option has no effect on containerd", "container", spec.Key(), "option", ignored)
	}

	id := containerID(spec)
	ctr, err := p.rt.StartContainer(ctx, runtime.StartOptions{
		ID:         id,
		Image:      spec.Image,
		Hostname:   spec.Hostname,
		User:       spec.User,
		Memory:     spec.Memory,
		Env:        spec.Environ(),
		Args:       spec.Command,
		Binds:      spec.Binds,
		Privileged: spec.Privileged,
	})
	if err != nil {
		return Started{}, err
	}
	return Started{ID: ctr.ID(), Name: ctr.ID(), Hostname: spec.Hostname}, nil
}

// Reports the host network; containers share the host namespace.
func (p *ContainerdProvider) NetworkInfo(ctx context.Context, id string) (state.NetworkInfo, error) {
	if _, err := p.rt.Container(id).Status(ctx); err != nil {
		return state.NetworkInfo{}, err
	}
	return state.NetworkInfo{IPAddress: hostAddress, Gateway: hostAddress, Bridge: "host"}, nil
}

// Exposed ports are reachable on the host at the same number.
func (p *ContainerdProvider) ExposedPorts(ctx context.Context, id string) ([]state.PortMapping, error) {
	keys, err := p.rt.Container(id).ExposedPorts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]state.PortMapping, 0, len(keys))
	for _, k := range keys {
		port, _, _ := strings.Cut(k, "/")
		out = append(out, state.PortMapping{ContainerPort: k, HostIP: hostAddress, HostPort: port})
	}
	return out, nil
}

// Kills and deletes the container task, keeping the container.
func (p *ContainerdProvider) StopContainer(ctx context.Context, id string) error {
	return p.rt.Container(id).Stop(ctx)
}

// Removes the container with its snapshot and log file.
func (p *ContainerdProvider) DeleteContainer(ctx context.Context, id string) error {
	return p.rt.Container(id).Destroy(ctx)
}

// Stdout and stderr share one log, so stderr receives nothing.
func (p *ContainerdProvider) Logs(ctx context.Context, id string, stdout, _ io.Writer) error {
	return p.rt.Container(id).Logs(ctx, stdout)
}

// Always fails with [ErrUnsupported].
func (p *ContainerdProvider) BuildImage(_ context.Context, spec manifest.Image) (string, error) {
	return "", fmt.Errorf("%w: %s cannot build image %q", ErrUnsupported, Containerd, spec.Key())
}

// A commit without a repository is stored as hoist/<container id>:latest.
func (p *ContainerdProvider) CommitContainer(ctx context.Context, id string, spec manifest.Commit) (string, error) {
	ref := spec.Reference()
	if ref == "" {
		ref = "hoist/" + strings.ToLower(id)
	}
	return p.rt.Container(id).Commit(ctx, ref, runtime.CommitChange{Author: spec.Author, Comment: spec.Comment})
}

// Adds a reference to an image.
func (p *ContainerdProvider) TagImage(ctx context.Context, image, target string) error {
	return p.rt.TagImage(ctx, image, target)
}

// Pushes an image, first tagging it under the registry host when the
// reference names a different registry.
func (p *ContainerdProvider) PushImage(ctx context.Context, image, registryAddr string) error {
	ref, err := daemon.Qualify(image, registryAddr)
	if err != nil {
		return err
	}
	if ref != image {
		if err := p.rt.TagImage(ctx, image, ref); err != nil {
			return err
		}
	}
	return p.rt.PushImage(ctx, ref)
}

// Removes an image reference.
func (p *ContainerdProvider) RemoveImage(ctx context.Context, image string) error {
	return p.rt.RemoveImage(ctx, image)
}

// Sets the registry credentials used for pulls and pushes.
func (p *ContainerdProvider) SetCredentials(creds manifest.Credentials) {
	p.rt.SetCredentials(runtime.Credentials{
		Username: creds.Username,
		Password: creds.Password,
		Host:     credentialHost(creds.Server),
	})
}

// Closes the containerd connection.
func (p *ContainerdProvider) Close() error {
	return p.rt.Close()
}

// Returns the containerd id for a container spec: its name, or a fresh
// "hoist-<uuid>".
func containerID(spec manifest.Container) string {
	if spec.Name != "" {
		return spec.Name
	}
	return "hoist-" + uuid.NewString()
}

// Maps a credentials server address to the registry host containerd
// resolves. The Docker Hub index address maps to its registry host.
func credentialHost(server string) string {
	host := server
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	host, _, _ = strings.Cut(host, "/")
	switch host {
	case "index.docker.io", "docker.io":
		return "registry-1.docker.io"
	}
	return host
}

// Names the container options the host-network runtime ignores.
func unsupportedStartOptions(spec manifest.Container) []string {
	var out []string
	if len(spec.Links) > 0 {
		out = append(out, "links")
	}
	if spec.NetworkMode != "" && spec.NetworkMode != "host" {
		out = append(out, "network_mode")
	}
	if spec.MacAddress != "" {
		out = append(out, "mac_address")
	}
	if spec.PublishAllPorts {
		out = append(out, "publish_all_ports")
	}
	for _, port := range spec.Ports {
		if b, err := manifest.ParsePort(port); err == nil && b.HostPort != "" && b.HostPort != b.ContainerPort {
			out = append(out, "ports")
			break
		}
	}
	return out
}

var _ Provider = (*ContainerdProvider)(nil)
