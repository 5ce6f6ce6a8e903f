package manifest

import (
	"fmt"
	"path/filepath"
	"sort"
)

// Name of the build file that every image build spec must contain.
const Dockerfile = "Dockerfile"

// Declares an image built by the build phase.
type Image struct {
	ID        string            `yaml:"id,omitempty"`         // User id; defaults to Name.
	Name      string            `yaml:"name,omitempty"`       // Resulting "name:tag", optional.
	Files     []File            `yaml:"files"`                // Local files and directories.
	Artifacts []Artifact        `yaml:"artifacts,omitempty"`  // Repository artifacts.
	BuildArgs map[string]string `yaml:"build_args,omitempty"` // Dockerfile ARG values.
	Push      bool              `yaml:"push,omitempty"`       // Queue the image for push.
	Keep      bool              `yaml:"keep,omitempty"`       // Keep the image after the stop phase.
	Registry  string            `yaml:"registry,omitempty"`   // Registry the image is pushed to.
	NoCache   bool              `yaml:"no_cache,omitempty"`   // Disable the daemon build cache.
}

// A local file or directory placed into the build context.
type File struct {
	Source string `yaml:"source"`         // Path on the local filesystem.
	Dest   string `yaml:"dest,omitempty"` // Path inside the build context; defaults to the base name.
}

// A repository artifact placed into the build context.
type Artifact struct {
	Coordinate string `yaml:"coordinate"`     // "group:artifact:version[:type[:classifier]]".
	Dest       string `yaml:"dest,omitempty"` // Path inside the build context; defaults to the resolved base name.
}

// Returns the name of the entry inside the build context.
func (f File) ArchiveName() string {
	if f.Dest != "" {
		return filepath.ToSlash(filepath.Clean(f.Dest))
	}
	return filepath.Base(f.Source)
}

// Returns the identifier later phases use to find this image.
func (i Image) Key() string {
	if i.ID != "" {
		return i.ID
	}
	return i.Name
}

// Reports whether the spec contains an entry named exactly "Dockerfile".
func (i Image) IsValid() bool {
	_, ok := i.Dockerfile()
	return ok
}

// Returns the Dockerfile entry, if any.
func (i Image) Dockerfile() (File, bool) {
	for _, f := range i.Files {
		if f.ArchiveName() == Dockerfile {
			return f, true
		}
	}
	return File{}, false
}

// Returns an error wrapping [ErrInvalidImage] if the spec cannot be built.
func (i Image) Validate() error {
	if !i.IsValid() {
		return fmt.Errorf("%w: image %q has no %s", ErrInvalidImage, i.Key(), Dockerfile)
	}
	return nil
}

// Formats build arguments in key order.
func (i Image) SortedBuildArgs() [][2]string {
	keys := make([]string, 0, len(i.BuildArgs))
	for k := range i.BuildArgs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([][2]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, [2]string{k, i.BuildArgs[k]})
	}
	return args
}
