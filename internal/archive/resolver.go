package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cruciblehq/hoist/internal/paths"
)

// Default artifact type when a coordinate does not name one.
const defaultArtifactType = "jar"

// Resolves an artifact coordinate to a file on the local filesystem.
type Resolver interface {
	Resolve(coordinate string) (string, error)
}

// A parsed "group:artifact:version[:type[:classifier]]" coordinate.
type Coordinate struct {
	Group      string
	Artifact   string
	Version    string
	Type       string
	Classifier string
}

// Parses an artifact coordinate.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 3 || len(parts) > 5 {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
	}
	for _, p := range parts {
		if p == "" {
			return Coordinate{}, fmt.Errorf("%w: %q has an empty segment", ErrInvalidCoordinate, s)
		}
	}

	c := Coordinate{Group: parts[0], Artifact: parts[1], Version: parts[2], Type: defaultArtifactType}
	if len(parts) > 3 {
		c.Type = parts[3]
	}
	if len(parts) > 4 {
		c.Classifier = parts[4]
	}
	return c, nil
}

// Returns the repository-relative path of the artifact file.
func (c Coordinate) Path() string {
	file := c.Artifact + "-" + c.Version
	if c.Classifier != "" {
		file += "-" + c.Classifier
	}
	file += "." + c.Type

	group := strings.ReplaceAll(c.Group, ".", string(filepath.Separator))
	return filepath.Join(group, c.Artifact, c.Version, file)
}

// Resolves coordinates against a local repository directory laid out as
// "<group path>/<artifact>/<version>/<artifact>-<version>[-<classifier>].<type>".
type LocalRepository struct {
	root string
}

// Creates a resolver rooted at dir, or at the default repository when dir is
// empty.
func NewLocalRepository(dir string) *LocalRepository {
	if dir == "" {
		dir = paths.ArtifactRepository()
	}
	return &LocalRepository{root: dir}
}

// Returns the absolute path of the artifact file.
func (r *LocalRepository) Resolve(coordinate string) (string, error) {
	c, err := ParseCoordinate(coordinate)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrArtifactNotFound, err)
	}

	p := filepath.Join(r.root, c.Path())
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s (looked in %s)", ErrArtifactNotFound, coordinate, p)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrArtifactNotFound, coordinate, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s resolves to directory %s", ErrArtifactNotFound, coordinate, p)
	}
	return p, nil
}
