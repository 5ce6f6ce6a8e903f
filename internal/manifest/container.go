package manifest

import (
	"sort"
	"strings"
)

// Declares a container started by the start phase.
type Container struct {
	ID              string            `yaml:"id,omitempty"`               // User id; defaults to the image reference.
	Image           string            `yaml:"image"`                      // Image reference to create the container from.
	Name            string            `yaml:"name,omitempty"`             // Daemon-side container name.
	Hostname        string            `yaml:"hostname,omitempty"`         // Container hostname.
	MacAddress      string            `yaml:"mac_address,omitempty"`      // Container MAC address.
	User            string            `yaml:"user,omitempty"`             // User the process runs as.
	Memory          int64             `yaml:"memory,omitempty"`           // Memory limit in bytes.
	Command         []string          `yaml:"command,omitempty"`          // Command overriding the image default.
	Env             map[string]string `yaml:"env,omitempty"`              // Environment variables.
	Links           []string          `yaml:"links,omitempty"`            // Links as "<container id>:<alias>".
	Binds           []string          `yaml:"binds,omitempty"`            // Volume binds as "host:container[:mode]".
	Ports           []string          `yaml:"ports,omitempty"`            // Port bindings as "[ip:][host:]container[/proto]".
	NetworkMode     string            `yaml:"network_mode,omitempty"`     // Network mode (e.g., "bridge", "host").
	PublishAllPorts bool              `yaml:"publish_all_ports,omitempty"` // Publish every exposed port on a random host port.
	Privileged      bool              `yaml:"privileged,omitempty"`       // Run privileged.
	Logs            bool              `yaml:"logs,omitempty"`             // Dump container logs before stopping.
}

// Returns the identifier later phases use to find this container.
func (c Container) Key() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Image
}

// Formats the environment as sorted "KEY=VALUE" strings.
func (c Container) Environ() []string {
	env := make([]string, 0, len(c.Env))
	for k, v := range c.Env {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}

// Splits a "<container id>:<alias>" link. A link without an alias uses the
// container id as the alias.
func ParseLink(link string) (id, alias string) {
	id, alias, ok := strings.Cut(link, ":")
	if !ok || alias == "" {
		return id, id
	}
	return id, alias
}
