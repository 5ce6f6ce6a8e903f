package manifest

// Declares a container committed into an image by the commit phase.
type Commit struct {
	ID        string `yaml:"id,omitempty"`       // User id the resulting image is registered under; defaults to Container.
	Container string `yaml:"container"`          // User id of a started container.
	Repo      string `yaml:"repo,omitempty"`     // Repository of the new image.
	Tag       string `yaml:"tag,omitempty"`      // Tag of the new image.
	Comment   string `yaml:"comment,omitempty"`  // Commit message.
	Author    string `yaml:"author,omitempty"`   // Commit author.
	Push      bool   `yaml:"push,omitempty"`     // Queue the image for push.
	Keep      bool   `yaml:"keep,omitempty"`     // Keep the image after the stop phase.
	Registry  string `yaml:"registry,omitempty"` // Registry the image is pushed to.
}

// Returns the identifier later phases use to find the committed image.
func (c Commit) Key() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Container
}

// Returns "repo:tag", "repo", or empty when no repository is set.
func (c Commit) Reference() string {
	if c.Repo == "" {
		return ""
	}
	if c.Tag == "" {
		return c.Repo
	}
	return c.Repo + ":" + c.Tag
}

// Declares tags applied to an image by the tag phase.
type Tag struct {
	ID       string   `yaml:"id"`                 // Id of a built or committed image, or a plain image reference.
	Tags     []string `yaml:"tags"`               // "name:tag" values, applied in order.
	Push     bool     `yaml:"push,omitempty"`     // Queue each applied tag for push.
	Registry string   `yaml:"registry,omitempty"` // Overrides the registry inherited from the build.
}
