package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	goruntime "runtime"
	"syscall"

	containerd "github.com/containerd/containerd/v2/client"
	"github.com/containerd/containerd/v2/core/images"
	"github.com/containerd/containerd/v2/core/remotes"
	"github.com/containerd/containerd/v2/core/remotes/docker"
	"github.com/containerd/errdefs"
	"github.com/containerd/platforms"
)

const (

	// Snapshotter used for container filesystems when none is configured.
	defaultSnapshotter = "overlayfs"

	// OCI runtime shim for running containers.
	ociRuntime = "io.containerd.runc.v2"
)

// Connection and storage settings of a [Runtime].
type Options struct {
	Address     string // Path to the containerd socket.
	Namespace   string // Containerd namespace scoping every operation.
	Snapshotter string // Snapshotter name; empty uses overlayfs.
	LogDir      string // Directory receiving container output files.
}

// Registry credentials used for pull and push.
type Credentials struct {
	Username string
	Password string
	Host     string // Registry host the credentials apply to; empty matches any.
}

// Manages the containerd client and provides image and container operations.
type Runtime struct {
	client      *containerd.Client // Containerd client for managing containers and images.
	snapshotter string             // Snapshotter for container filesystems.
	logDir      string             // Directory receiving container output.
	platform    string             // Platform of pulled images and created containers.
	creds       Credentials        // Registry credentials.
}

// Creates a runtime connected to the containerd socket in opts.
//
// The namespace scopes all containerd operations to a single tenant. The
// runtime must be closed when no longer needed.
func New(opts Options) (*Runtime, error) {
	client, err := containerd.New(opts.Address, containerd.WithDefaultNamespace(opts.Namespace))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	snapshotter := opts.Snapshotter
	if snapshotter == "" {
		snapshotter = defaultSnapshotter
	}

	return &Runtime{
		client:      client,
		snapshotter: snapshotter,
		logDir:      opts.LogDir,
		platform:    defaultPlatform(),
	}, nil
}

// Closes the containerd client connection.
func (rt *Runtime) Close() error {
	return rt.client.Close()
}

// Sets the registry credentials used for pull and push.
func (rt *Runtime) SetCredentials(creds Credentials) {
	rt.creds = creds
}

// Returns an image ready to run, pulling and unpacking it when containerd
// does not have it yet.
//
// The lookup is retried once after the pull; a second miss is an error.
func (rt *Runtime) ensureImage(ctx context.Context, ref string) (containerd.Image, error) {
	image, err := rt.resolveImage(ctx, ref)
	if err == nil {
		if err := rt.unpack(ctx, image); err != nil {
			return nil, err
		}
		return image, nil
	}
	if !errdefs.IsNotFound(err) {
		return nil, err
	}

	slog.Info("image not present, pulling", "image", ref)
	if _, err := rt.pull(ctx, ref); err != nil {
		return nil, err
	}
	return rt.resolveImage(ctx, ref)
}

// Pulls and unpacks an image for the runtime platform.
func (rt *Runtime) pull(ctx context.Context, ref string) (containerd.Image, error) {
	named, err := normalize(ref)
	if err != nil {
		return nil, err
	}
	return rt.client.Pull(ctx, named,
		containerd.WithPullUnpack,
		containerd.WithPullSnapshotter(rt.snapshotter),
		containerd.WithPlatform(rt.platform),
		containerd.WithResolver(rt.resolver()),
	)
}

// Unpacks the image layers into the snapshotter unless already present.
func (rt *Runtime) unpack(ctx context.Context, image containerd.Image) error {
	ok, err := image.IsUnpacked(ctx, rt.snapshotter)
	if err != nil || ok {
		return err
	}
	return image.Unpack(ctx, rt.snapshotter)
}

// Looks up an image and selects the manifest for the runtime platform.
//
// Multi-platform images contain manifests for multiple architectures. This
// method selects one, so that subsequent operations target the correct
// architecture.
func (rt *Runtime) resolveImage(ctx context.Context, ref string) (containerd.Image, error) {
	p, err := platforms.Parse(rt.platform)
	if err != nil {
		return nil, err
	}

	named, err := normalize(ref)
	if err != nil {
		return nil, err
	}

	img, err := rt.client.ImageService().Get(ctx, named)
	if err != nil {
		return nil, err
	}

	return containerd.NewImageWithPlatform(rt.client, img, platforms.Only(p)), nil
}

// Starts a container from an image reference.
//
// Any stale container with the same id is removed first. The task's stdout
// and stderr go to a file under the log directory.
func (rt *Runtime) StartContainer(ctx context.Context, opts StartOptions) (*Container, error) {
	image, err := rt.ensureImage(ctx, opts.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRuntime, opts.Image, err)
	}

	c := rt.Container(opts.ID)
	c.remove(ctx)

	if err := os.MkdirAll(rt.logDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	ctr, err := c.create(ctx, image, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	if err := c.startTask(ctx, ctr); err != nil {
		ctr.Delete(ctx, containerd.WithSnapshotCleanup)
		return nil, fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	slog.Debug("container started", "id", opts.ID, "image", opts.Image)
	return c, nil
}

// Adds a name to an existing image.
//
// Updates the name if it already exists.
func (rt *Runtime) TagImage(ctx context.Context, source, target string) error {
	dst, err := normalize(target)
	if err != nil {
		return err
	}

	img, err := rt.lookup(ctx, source)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRuntime, source, err)
	}

	is := rt.client.ImageService()

	tagged := images.Image{Name: dst, Target: img.Target, Labels: img.Labels}
	if _, err := is.Create(ctx, tagged); err != nil {
		if !errdefs.IsAlreadyExists(err) {
			return fmt.Errorf("%w: %w", ErrRuntime, err)
		}
		if _, err := is.Update(ctx, tagged, "target"); err != nil {
			return fmt.Errorf("%w: %w", ErrRuntime, err)
		}
	}
	return nil
}

// Pushes an image to the registry named by its reference.
func (rt *Runtime) PushImage(ctx context.Context, ref string) error {
	img, err := rt.lookup(ctx, ref)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRuntime, ref, err)
	}

	p, err := platforms.Parse(rt.platform)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	if err := rt.client.Push(ctx, img.Name, img.Target,
		containerd.WithResolver(rt.resolver()),
		containerd.WithPlatformMatcher(platforms.Only(p)),
	); err != nil {
		return fmt.Errorf("%w: push %s: %w", ErrRuntime, ref, err)
	}
	return nil
}

// Removes an image and all containers created from it.
//
// Containers are discovered by querying containerd for records whose image
// field matches the reference. Each container's task is killed before the
// container and its snapshot are deleted.
func (rt *Runtime) RemoveImage(ctx context.Context, ref string) error {
	img, err := rt.lookup(ctx, ref)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRuntime, ref, err)
	}

	ctrs, err := rt.client.Containers(ctx, fmt.Sprintf("image==%s", img.Name))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRuntime, err)
	}

	for _, ctr := range ctrs {
		if task, taskErr := ctr.Task(ctx, nil); taskErr == nil {
			task.Kill(ctx, syscall.SIGKILL)
			task.Delete(ctx, containerd.WithProcessKill)
		}
		if err := ctr.Delete(ctx, containerd.WithSnapshotCleanup); err != nil && !errdefs.IsNotFound(err) {
			return fmt.Errorf("%w: %w", ErrRuntime, err)
		}
	}

	if err := rt.client.ImageService().Delete(ctx, img.Name); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRuntime, ref, err)
	}

	slog.Debug("image removed", "image", ref)
	return nil
}

// Returns a handle for an existing container.
//
// The container is not loaded or verified; the handle is a lightweight
// reference that resolves the container lazily on subsequent calls.
func (rt *Runtime) Container(id string) *Container {
	return &Container{
		client:      rt.client,
		id:          id,
		platform:    rt.platform,
		snapshotter: rt.snapshotter,
		logPath:     logPath(rt.logDir, id),
	}
}

// Builds a registry resolver carrying the configured credentials.
//
// Plain HTTP is allowed for localhost registries only.
func (rt *Runtime) resolver() remotes.Resolver {
	creds := rt.creds
	authorizer := docker.NewDockerAuthorizer(docker.WithAuthCreds(func(host string) (string, string, error) {
		if creds.Username == "" || (creds.Host != "" && creds.Host != host) {
			return "", "", nil
		}
		return creds.Username, creds.Password, nil
	}))

	return docker.NewResolver(docker.ResolverOptions{
		Hosts: docker.ConfigureDefaultRegistries(
			docker.WithAuthorizer(authorizer),
			docker.WithPlainHTTP(docker.MatchLocalhost),
		),
	})
}

// Returns the default OCI platform for the host architecture.
func defaultPlatform() string {
	return "linux/" + goruntime.GOARCH
}
