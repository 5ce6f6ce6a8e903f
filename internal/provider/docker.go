package provider

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/go-connections/nat"

	"github.com/cruciblehq/hoist/internal/archive"
	"github.com/cruciblehq/hoist/internal/daemon"
	"github.com/cruciblehq/hoist/internal/manifest"
	"github.com/cruciblehq/hoist/internal/state"
)

const (

	// Default TCP port of a remote daemon.
	DefaultRemotePort = 2375

	// Default TCP port of a local daemon reached by host name.
	DefaultLocalPort = 4243

	// Default host of a remote daemon.
	DefaultRemoteHost = "localhost"

	// Default socket of a local daemon.
	DefaultSocket = "/var/run/docker.sock"
)

// Runs pipeline operations against a Docker Engine.
type Docker struct {
	client  *daemon.Client   // Daemon API client.
	builder *archive.Builder // Build context assembler.
}

// Creates a provider for a daemon reached over TCP.
//
// The host defaults to localhost and the port to 2375.
func NewRemote(cfg Config) (Provider, error) {
	dc := daemon.Config{Host: cfg.Host, Port: cfg.Port, TLS: cfg.TLS}
	if dc.Host == "" {
		dc.Host = DefaultRemoteHost
	}
	if dc.Port == 0 {
		dc.Port = DefaultRemotePort
	}
	return newDocker(dc, cfg)
}

// Creates a provider for the daemon on this machine.
//
// Without a host the daemon is reached through its Unix socket. With a host
// it is reached over TCP, on port 4243 unless configured.
func NewLocal(cfg Config) (Provider, error) {
	if cfg.Host != "" {
		dc := daemon.Config{Host: cfg.Host, Port: cfg.Port, TLS: cfg.TLS}
		if dc.Port == 0 {
			dc.Port = DefaultLocalPort
		}
		return newDocker(dc, cfg)
	}

	socket := cfg.Socket
	if socket == "" {
		socket = DefaultSocket
	}
	return newDocker(daemon.Config{Socket: socket}, cfg)
}

func newDocker(dc daemon.Config, cfg Config) (*Docker, error) {
	client, err := daemon.New(dc)
	if err != nil {
		return nil, err
	}
	return NewDocker(client, archive.NewLocalRepository(cfg.Repository)), nil
}

// Creates a provider around an existing client.
func NewDocker(client *daemon.Client, resolver archive.Resolver) *Docker {
	slog.Debug("using docker daemon", "host", client.Host())
	return &Docker{client: client, builder: archive.NewBuilder(resolver)}
}

// Creates and starts a container, then reads back its name and hostname.
func (d *Docker) StartContainer(ctx context.Context, spec manifest.Container) (Started, error) {
	cfg, hc, err := containerConfig(spec)
	if err != nil {
		return Started{}, err
	}

	id, err := d.client.CreateWithPull(ctx, spec.Name, cfg, hc)
	if err != nil {
		return Started{}, err
	}

	if err := d.client.StartContainer(ctx, id); err != nil {
		return Started{ID: id}, err
	}

	info, err := d.client.InspectContainer(ctx, id)
	if err != nil {
		return Started{ID: id}, err
	}

	started := Started{ID: id}
	if info.ContainerJSONBase != nil {
		started.Name = trimSlash(info.Name)
	}
	if info.Config != nil {
		started.Hostname = info.Config.Hostname
	}
	return started, nil
}

// Reads a container's address, gateway and bridge.
func (d *Docker) NetworkInfo(ctx context.Context, id string) (state.NetworkInfo, error) {
	info, err := d.client.InspectContainer(ctx, id)
	if err != nil {
		return state.NetworkInfo{}, err
	}
	ip, gateway := daemon.Address(info.NetworkSettings)
	out := state.NetworkInfo{IPAddress: ip, Gateway: gateway}
	if info.NetworkSettings != nil {
		out.Bridge = info.NetworkSettings.Bridge
	}
	return out, nil
}

// Lists a container's exposed ports and their host bindings.
func (d *Docker) ExposedPorts(ctx context.Context, id string) ([]state.PortMapping, error) {
	info, err := d.client.InspectContainer(ctx, id)
	if err != nil {
		return nil, err
	}
	return portMappings(info), nil
}

// Kills a container. A container that is not running is not an error.
func (d *Docker) StopContainer(ctx context.Context, id string) error {
	return d.client.KillContainer(ctx, id)
}

// Removes a container and its anonymous volumes.
func (d *Docker) DeleteContainer(ctx context.Context, id string) error {
	return d.client.RemoveContainer(ctx, id)
}

// Copies a container's output to the writers.
func (d *Docker) Logs(ctx context.Context, id string, stdout, stderr io.Writer) error {
	info, err := d.client.InspectContainer(ctx, id)
	if err != nil {
		return err
	}
	tty := info.Config != nil && info.Config.Tty
	return d.client.ContainerLogs(ctx, id, tty, stdout, stderr)
}

// Assembles the build context and submits it to the daemon.
//
// Every file and artifact is resolved before the daemon is contacted; a spec
// without a Dockerfile or with an unreadable source fails without a request.
func (d *Docker) BuildImage(ctx context.Context, spec manifest.Image) (string, error) {
	plan, err := d.builder.Plan(spec)
	if err != nil {
		return "", err
	}

	rc := d.builder.Open(plan)
	defer rc.Close()

	return d.client.BuildImage(ctx, rc, daemon.BuildOptions{
		Tag:       spec.Name,
		BuildArgs: spec.SortedBuildArgs(),
		NoCache:   spec.NoCache,
	})
}

// Snapshots a container into an image, pausing it for the duration.
func (d *Docker) CommitContainer(ctx context.Context, id string, spec manifest.Commit) (string, error) {
	return d.client.CommitContainer(ctx, id, container.CommitOptions{
		Reference: spec.Reference(),
		Comment:   spec.Comment,
		Author:    spec.Author,
		Pause:     true,
	})
}

// Adds a reference to an image.
func (d *Docker) TagImage(ctx context.Context, image, target string) error {
	return d.client.TagImage(ctx, image, target)
}

// Pushes an image, first tagging it under the registry host when the
// reference names a different registry.
func (d *Docker) PushImage(ctx context.Context, image, registryAddr string) error {
	ref, err := daemon.Qualify(image, registryAddr)
	if err != nil {
		return err
	}
	if ref != image {
		if err := d.client.TagImage(ctx, image, ref); err != nil {
			return err
		}
	}
	return d.client.PushImage(ctx, ref)
}

// Removes an image reference.
func (d *Docker) RemoveImage(ctx context.Context, image string) error {
	return d.client.RemoveImage(ctx, image)
}

// Sets the registry credentials used for pulls, builds and pushes.
func (d *Docker) SetCredentials(creds manifest.Credentials) {
	d.client.SetCredentials(registry.AuthConfig{
		Username:      creds.Username,
		Password:      creds.Password,
		Email:         creds.Email,
		ServerAddress: creds.Server,
	})
}

// Releases the daemon client's idle connections.
func (d *Docker) Close() error {
	return d.client.Close()
}

// Translates a container spec into a create request.
func containerConfig(spec manifest.Container) (*container.Config, *container.HostConfig, error) {
	hc := &container.HostConfig{
		Binds:           spec.Binds,
		Links:           spec.Links,
		NetworkMode:     container.NetworkMode(spec.NetworkMode),
		PublishAllPorts: spec.PublishAllPorts,
		Privileged:      spec.Privileged,
		Resources:       container.Resources{Memory: spec.Memory},
	}

	cfg := &container.Config{
		Hostname:   spec.Hostname,
		User:       spec.User,
		Env:        spec.Environ(),
		Cmd:        spec.Command,
		Image:      spec.Image,
		MacAddress: spec.MacAddress,
	}

	for _, p := range spec.Ports {
		binding, err := manifest.ParsePort(p)
		if err != nil {
			return nil, nil, err
		}
		key := nat.Port(binding.Key())
		if cfg.ExposedPorts == nil {
			cfg.ExposedPorts = make(nat.PortSet)
			hc.PortBindings = make(nat.PortMap)
		}
		cfg.ExposedPorts[key] = struct{}{}
		hc.PortBindings[key] = append(hc.PortBindings[key], nat.PortBinding{
			HostIP:   binding.HostIP,
			HostPort: binding.HostPort,
		})
	}

	return cfg, hc, nil
}

// Flattens the inspected port table into mappings, one per host binding.
//
// Exposed ports without a binding yield a single mapping with no host side.
func portMappings(info types.ContainerJSON) []state.PortMapping {
	var ports nat.PortMap
	if info.NetworkSettings != nil {
		ports = info.NetworkSettings.Ports
	}

	keys := make([]string, 0, len(ports))
	for k := range ports {
		keys = append(keys, string(k))
	}
	if info.Config != nil {
		for k := range info.Config.ExposedPorts {
			if _, ok := ports[k]; !ok {
				keys = append(keys, string(k))
			}
		}
	}
	slices.SortFunc(keys, comparePortKeys)

	var out []state.PortMapping
	for _, k := range keys {
		bindings := ports[nat.Port(k)]
		if len(bindings) == 0 {
			out = append(out, state.PortMapping{ContainerPort: k})
			continue
		}
		for _, b := range bindings {
			out = append(out, state.PortMapping{ContainerPort: k, HostIP: b.HostIP, HostPort: b.HostPort})
		}
	}
	return out
}

// Orders "port/proto" keys numerically by port, then by protocol.
func comparePortKeys(a, b string) int {
	pa, protoA := splitPortKey(a)
	pb, protoB := splitPortKey(b)
	if pa != pb {
		return pa - pb
	}
	switch {
	case protoA < protoB:
		return -1
	case protoA > protoB:
		return 1
	}
	return 0
}

func splitPortKey(key string) (int, string) {
	port, proto, _ := strings.Cut(key, "/")
	n, _ := strconv.Atoi(port)
	return n, proto
}

// Daemons report container names with a leading slash.
func trimSlash(name string) string {
	return strings.TrimPrefix(name, "/")
}

var _ Provider = (*Docker)(nil)
