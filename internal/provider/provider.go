package provider

import (
	"context"
	"io"

	"github.com/cruciblehq/hoist/internal/manifest"
	"github.com/cruciblehq/hoist/internal/state"
)

// Names of the built-in providers.
const (
	Remote     = "remote"     // Docker Engine API over TCP.
	Local      = "local"      // Docker Engine API over the local Unix socket.
	Containerd = "containerd" // Local containerd daemon.
)

// Default provider when neither the pipeline file nor the environment names one.
const Default = Local

// Runs pipeline operations against one container backend.
//
// Container ids passed to the methods are the backend ids returned by
// StartContainer. Image arguments accept whatever the backend returned from
// BuildImage or CommitContainer, or a plain image reference.
type Provider interface {

	// Creates and starts a container, pulling its image when the backend
	// does not have it. Links must already name backend containers.
	StartContainer(ctx context.Context, spec manifest.Container) (Started, error)

	// Returns the network settings of a running container.
	NetworkInfo(ctx context.Context, id string) (state.NetworkInfo, error)

	// Returns the exposed ports of a running container and their host side.
	ExposedPorts(ctx context.Context, id string) ([]state.PortMapping, error)

	// Stops a container. Stopping a stopped container is not an error.
	StopContainer(ctx context.Context, id string) error

	// Deletes a stopped container and its anonymous volumes.
	DeleteContainer(ctx context.Context, id string) error

	// Copies a container's output to the writers.
	Logs(ctx context.Context, id string, stdout, stderr io.Writer) error

	// Builds an image from a build spec and returns its id.
	BuildImage(ctx context.Context, spec manifest.Image) (string, error)

	// Commits a container's filesystem into an image and returns its id.
	CommitContainer(ctx context.Context, id string, spec manifest.Commit) (string, error)

	// Adds the reference target ("name[:tag]") to an image.
	TagImage(ctx context.Context, image, target string) error

	// Pushes an image reference, to registry when it is not empty.
	PushImage(ctx context.Context, image, registry string) error

	// Removes an image.
	RemoveImage(ctx context.Context, image string) error

	// Sets the registry credentials used for pull and push.
	SetCredentials(creds manifest.Credentials)

	// Releases the backend connection.
	Close() error
}

// Identity of a started container.
type Started struct {
	ID       string // Backend container id.
	Name     string // Backend container name.
	Hostname string // Hostname inside the container.
}

// Connection settings handed to a provider factory.
//
// Zero values select the provider's own defaults.
type Config struct {
	Host                string // Daemon TCP host.
	Port                int    // Daemon TCP port.
	Socket              string // Daemon Unix socket.
	TLS                 bool   // Use https for TCP connections.
	ContainerdAddress   string // Containerd socket.
	ContainerdNamespace string // Containerd namespace.
	Repository          string // Local artifact repository root.
	LogDir              string // Directory for container logs, where the backend keeps them.
}

// Creates a provider from its configuration.
type Factory func(cfg Config) (Provider, error)
