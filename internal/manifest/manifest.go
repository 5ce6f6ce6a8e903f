package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Root of a pipeline file.
type Pipeline struct {
	Provider    string       `yaml:"provider,omitempty"`    // Provider name; empty defers to config.
	Daemon      Daemon       `yaml:"daemon,omitempty"`      // Daemon connection overrides.
	Credentials *Credentials `yaml:"credentials,omitempty"` // Registry credentials for push.
	Repository  string       `yaml:"repository,omitempty"`  // Root of the local artifact repository.
	Exports     string       `yaml:"exports,omitempty"`     // Dotenv file receiving started container network info.
	Containers  []Container  `yaml:"containers,omitempty"`  // Containers started by the start phase.
	Images      []Image      `yaml:"images,omitempty"`      // Images built by the build phase.
	Commits     []Commit     `yaml:"commits,omitempty"`     // Containers committed by the commit phase.
	Tags        []Tag        `yaml:"tags,omitempty"`        // Tags applied by the tag phase.
}

// Daemon connection settings declared in the pipeline file.
//
// Zero values defer to the environment and then to the provider default.
type Daemon struct {
	Host                string `yaml:"host,omitempty"`
	Port                int    `yaml:"port,omitempty"`
	Socket              string `yaml:"socket,omitempty"`
	ContainerdAddress   string `yaml:"containerd_address,omitempty"`
	ContainerdNamespace string `yaml:"containerd_namespace,omitempty"`
}

// Registry credentials.
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Email    string `yaml:"email,omitempty"`
	Server   string `yaml:"server,omitempty"`
}

// Reads and decodes a pipeline file.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifest, err)
	}
	return Parse(data)
}

// Decodes a pipeline from YAML and validates its structure.
//
// Image build specs are not validated here; an image without a Dockerfile is
// rejected by the build phase before it contacts the daemon.
func Parse(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifest, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Checks structural requirements that every phase depends on.
func (p *Pipeline) Validate() error {
	seen := make(map[string]bool, len(p.Containers))
	for i, c := range p.Containers {
		if c.Image == "" {
			return fmt.Errorf("%w: container %d has no image", ErrManifest, i+1)
		}
		if seen[c.Key()] {
			return fmt.Errorf("%w: duplicate container id %q", ErrManifest, c.Key())
		}
		seen[c.Key()] = true
		for _, port := range c.Ports {
			if _, err := ParsePort(port); err != nil {
				return fmt.Errorf("%w: container %q: %w", ErrManifest, c.Key(), err)
			}
		}
	}
	for i, img := range p.Images {
		if img.Key() == "" {
			return fmt.Errorf("%w: image %d has neither id nor name", ErrManifest, i+1)
		}
		if img.Push && img.Name == "" {
			return fmt.Errorf("%w: image %q is pushed but has no name", ErrManifest, img.Key())
		}
	}
	for i, c := range p.Commits {
		if c.Container == "" {
			return fmt.Errorf("%w: commit %d has no container", ErrManifest, i+1)
		}
		if c.Push && c.Repo == "" {
			return fmt.Errorf("%w: commit %q is pushed but has no repo", ErrManifest, c.Key())
		}
	}
	for i, t := range p.Tags {
		if t.ID == "" {
			return fmt.Errorf("%w: tag %d has no id", ErrManifest, i+1)
		}
	}
	return nil
}
