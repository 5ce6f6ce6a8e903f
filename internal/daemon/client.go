package daemon

import (
	"fmt"
	"net"
	"strconv"

	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"

	"github.com/cruciblehq/hoist/internal"
)

// Connection settings. Exactly one of Socket or Host is used; Socket wins
// when both are set.
type Config struct {
	Host   string // TCP host name or address.
	Port   int    // TCP port.
	Socket string // Path to a Unix domain socket.
	TLS    bool   // Use https for TCP connections.
}

// Talks to a single daemon.
type Client struct {
	api         *client.Client      // Engine API client.
	credentials registry.AuthConfig // Registry credentials for pull and push.
}

// Creates a client for the daemon described by cfg.
func New(cfg Config) (*Client, error) {
	if cfg.Socket != "" {
		return NewWithHost("unix://" + cfg.Socket)
	}

	if cfg.Host == "" || cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("%w: host %q port %d", ErrConfig, cfg.Host, cfg.Port)
	}

	host := "tcp://" + net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	if cfg.TLS {
		return newClient(host, client.WithScheme("https"))
	}
	return newClient(host)
}

// Creates a client for a daemon host URL such as "unix:///var/run/docker.sock"
// or "tcp://127.0.0.1:2375".
func NewWithHost(host string) (*Client, error) {
	return newClient(host)
}

func newClient(host string, opts ...client.Opt) (*Client, error) {
	opts = append([]client.Opt{
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
		client.WithUserAgent(internal.UserAgent()),
	}, opts...)

	api, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return &Client{api: api}, nil
}

// Returns the daemon host requests are sent to.
func (c *Client) Host() string {
	return c.api.DaemonHost()
}

// Sets the registry credentials sent with pull, build and push requests.
func (c *Client) SetCredentials(auth registry.AuthConfig) {
	c.credentials = auth
}

// Releases idle connections.
func (c *Client) Close() error {
	return c.api.Close()
}
