package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/distribution/reference"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/opencontainers/go-digest"
)

// Index server used when credentials do not name one.
const DefaultServer = "https://index.docker.io/v1/"

var (
	successfullyBuilt = regexp.MustCompile(`Successfully built ([0-9a-f]{12,64})`)
	hexID             = regexp.MustCompile(`^[0-9a-f]{12,64}$`)
)

// Options of an image build.
type BuildOptions struct {
	Tag       string      // "name:tag" for the resulting image.
	BuildArgs [][2]string // Dockerfile ARG values.
	NoCache   bool        // Disable the build cache.
}

// Pulls an image, blocking until the daemon has finished.
//
// Errors reported inside the progress stream wrap [ErrDaemon].
func (c *Client) PullImage(ctx context.Context, image string) error {
	if _, err := parseReference(image); err != nil {
		return err
	}

	auth, err := c.encodedAuth("")
	if err != nil {
		return err
	}

	rc, err := c.api.ImagePull(ctx, image, types.ImagePullOptions{RegistryAuth: auth})
	if err != nil {
		return imageErr(err, "pull", image)
	}
	defer rc.Close()

	out, err := readStream(rc, nil)
	logOutput("pull", image, out)
	return apiErr(err, "pull", image)
}

// Builds an image from a tar build context and returns the image id.
//
// The daemon's output must confirm the build; a stream that ends without an
// image id wraps [ErrBuildOutput] and a stream that reports an error wraps
// [ErrBuildFailed].
func (c *Client) BuildImage(ctx context.Context, buildContext io.Reader, opts BuildOptions) (string, error) {
	build := types.ImageBuildOptions{
		SuppressOutput: true,
		Remove:         true,
		NoCache:        opts.NoCache,
		AuthConfigs:    c.buildAuth(),
	}
	if opts.Tag != "" {
		if _, err := parseReference(opts.Tag); err != nil {
			return "", err
		}
		build.Tags = []string{opts.Tag}
	}
	if len(opts.BuildArgs) > 0 {
		build.BuildArgs = make(map[string]*string, len(opts.BuildArgs))
		for _, kv := range opts.BuildArgs {
			v := kv[1]
			build.BuildArgs[kv[0]] = &v
		}
	}

	resp, err := c.api.ImageBuild(ctx, buildContext, build)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBuildFailed, apiErr(err, "build", opts.Tag))
	}
	defer resp.Body.Close()

	var id string
	out, err := readStream(resp.Body, func(m jsonmessage.JSONMessage) {
		if found := auxID(m); found != "" {
			id = found
		}
	})
	logOutput("build", opts.Tag, out)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBuildFailed, apiErr(err, "build", opts.Tag))
	}

	if id == "" {
		id = outputID(out)
	}
	if id == "" {
		return "", ErrBuildOutput
	}
	return id, nil
}

// Extracts the image id carried by an aux build message.
func auxID(m jsonmessage.JSONMessage) string {
	if m.Aux == nil {
		return ""
	}
	var aux struct {
		ID string `json:"ID"`
	}
	if json.Unmarshal(*m.Aux, &aux) != nil {
		return ""
	}
	id, _ := validID(aux.ID)
	return id
}

// Extracts an image id from build output text: the classic builder's
// success line, or the bare id printed by a quiet build.
func outputID(out string) string {
	if match := successfullyBuilt.FindAllStringSubmatch(out, -1); match != nil {
		return match[len(match)-1][1]
	}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "sha256:") {
			continue
		}
		if id, ok := validID(line); ok {
			return id
		}
	}
	return ""
}

// Reports whether s is a digest or a hex image id and returns it normalized.
func validID(s string) (string, bool) {
	if strings.Contains(s, ":") {
		d, err := digest.Parse(s)
		if err != nil {
			return "", false
		}
		return d.String(), true
	}
	if hexID.MatchString(s) {
		return s, true
	}
	return "", false
}

// Creates an image from a container's filesystem and returns its id.
func (c *Client) CommitContainer(ctx context.Context, id string, opts container.CommitOptions) (string, error) {
	if opts.Reference != "" {
		if _, err := parseReference(opts.Reference); err != nil {
			return "", err
		}
	}

	resp, err := c.api.ContainerCommit(ctx, id, opts)
	if err != nil {
		return "", containerErr(err, "commit", id)
	}
	return resp.ID, nil
}

// Adds a reference to an image. The target is "[registry/]repo[:tag]"; a
// missing tag means latest.
func (c *Client) TagImage(ctx context.Context, image, target string) error {
	if _, err := parseReference(target); err != nil {
		return err
	}
	return imageErr(c.api.ImageTag(ctx, image, target), "tag", image)
}

// Pushes an image reference to its registry.
//
// The registry is taken from the reference itself; see [Qualify].
func (c *Client) PushImage(ctx context.Context, image string) error {
	named, err := parseReference(image)
	if err != nil {
		return err
	}

	server := ""
	if domain := reference.Domain(named); domain != "docker.io" {
		server = domain
	}
	auth, err := c.encodedAuth(server)
	if err != nil {
		return err
	}

	rc, err := c.api.ImagePush(ctx, image, types.ImagePushOptions{RegistryAuth: auth})
	if err != nil {
		return imageErr(err, "push", image)
	}
	defer rc.Close()

	out, err := readStream(rc, nil)
	logOutput("push", image, out)
	return apiErr(err, "push", image)
}

// Removes an image reference, deleting the image when it was the last one.
func (c *Client) RemoveImage(ctx context.Context, image string) error {
	_, err := c.api.ImageRemove(ctx, image, types.ImageRemoveOptions{PruneChildren: true})
	return imageErr(err, "remove", image)
}

// Returns image prefixed with the registry host, unless it already names
// that registry. An empty registry returns the image unchanged.
//
// The registry may be given as a URL; only its host is used.
func Qualify(image, registryAddr string) (string, error) {
	named, err := parseReference(image)
	if err != nil {
		return "", err
	}

	host := registryHost(registryAddr)
	if host == "" || reference.Domain(named) == host {
		return image, nil
	}

	path := reference.Path(named)
	if reference.Domain(named) == "docker.io" {
		path = strings.TrimPrefix(path, "library/")
	}

	out := host + "/" + path
	if tagged, ok := named.(reference.Tagged); ok {
		out += ":" + tagged.Tag()
	}
	if _, err := parseReference(out); err != nil {
		return "", err
	}
	return out, nil
}

// Strips the scheme and any path from a registry address.
func registryHost(addr string) string {
	addr = strings.TrimSpace(addr)
	if i := strings.Index(addr, "://"); i >= 0 {
		addr = addr[i+3:]
	}
	if i := strings.Index(addr, "/"); i >= 0 {
		addr = addr[:i]
	}
	return addr
}

// Returns the credentials for a registry server. An empty server falls back
// to the configured one, then to [DefaultServer].
func (c *Client) auth(server string) registry.AuthConfig {
	auth := c.credentials
	if server != "" && auth.ServerAddress == "" {
		auth.ServerAddress = server
	}
	if auth.ServerAddress == "" {
		auth.ServerAddress = DefaultServer
	}
	return auth
}

// Returns the X-Registry-Auth value for a registry server.
func (c *Client) encodedAuth(server string) (string, error) {
	encoded, err := registry.EncodeAuthConfig(c.auth(server))
	if err != nil {
		return "", fmt.Errorf("%w: encode credentials: %w", ErrConfig, err)
	}
	return encoded, nil
}

// Returns the registry credentials a build may use to pull base images, or
// nil when none are configured.
func (c *Client) buildAuth() map[string]registry.AuthConfig {
	if c.credentials.Username == "" && c.credentials.IdentityToken == "" {
		return nil
	}
	auth := c.auth("")
	return map[string]registry.AuthConfig{auth.ServerAddress: auth}
}

func parseReference(s string) (reference.Named, error) {
	named, err := reference.ParseNormalizedNamed(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidReference, s, err)
	}
	return named, nil
}

// Drains a JSON message stream and returns its rendered text output.
//
// Aux messages go to aux, if set. The first message that carries an error
// ends the stream with a [*jsonmessage.JSONError].
func readStream(r io.Reader, aux func(jsonmessage.JSONMessage)) (string, error) {
	var out bytes.Buffer
	err := jsonmessage.DisplayJSONMessagesStream(r, &out, 0, false, aux)
	return out.String(), err
}

func logOutput(op, object, out string) {
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			slog.Debug(op, "object", object, "output", line)
		}
	}
}
