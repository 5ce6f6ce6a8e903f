package state

import (
	"fmt"
	"time"
)

// Records a container created and started by the start phase.
//
// The inspection snapshot is taken immediately after start and never updated.
type StartedContainer struct {
	UserID      string        `json:"user_id"`      // Id from the pipeline file.
	ContainerID string        `json:"container_id"` // Daemon-assigned id.
	Image       string        `json:"image"`        // Image the container was created from.
	Name        string        `json:"name,omitempty"`
	Hostname    string        `json:"hostname,omitempty"`
	Network     NetworkInfo   `json:"network"`
	Ports       []PortMapping `json:"ports,omitempty"`
	Logs        bool          `json:"logs,omitempty"` // Dump logs before stopping.
}

// Network settings of a started container.
type NetworkInfo struct {
	IPAddress string `json:"ip_address,omitempty"`
	Gateway   string `json:"gateway,omitempty"`
	Bridge    string `json:"bridge,omitempty"`
}

// An exposed container port and where it is published on the host.
type PortMapping struct {
	ContainerPort string `json:"container_port"` // Port key, e.g. "8080/tcp".
	HostIP        string `json:"host_ip,omitempty"`
	HostPort      string `json:"host_port,omitempty"` // Empty when the port is exposed but not published.
}

// Links a user build id to the image the daemon produced for it.
type BuiltImage struct {
	StartID  string `json:"start_id"`           // Id from the pipeline file.
	ImageID  string `json:"image_id"`           // Daemon-assigned image id.
	Name     string `json:"name,omitempty"`     // "name:tag" given to the image, if any.
	Registry string `json:"registry,omitempty"` // Registry inherited by tag specs.
	Keep     bool   `json:"keep,omitempty"`     // Survives the stop phase.
}

// An image queued for push.
//
// Two values are the same pushable image when both fields are equal.
type PushableImage struct {
	Image    string `json:"image"`              // Image reference or id to push.
	Registry string `json:"registry,omitempty"` // Target registry; empty uses the reference's own domain.
}

// A failure recorded by a phase without aborting the run.
type PluginError struct {
	Goal    string    `json:"goal"`            // Phase that recorded the failure.
	Message string    `json:"message"`         // Human-readable description.
	Cause   string    `json:"cause,omitempty"` // Underlying error text, if any.
	Time    time.Time `json:"time"`
}

// Returns "goal: message: cause".
func (e PluginError) Error() string {
	if e.Cause == "" {
		return fmt.Sprintf("%s: %s", e.Goal, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Goal, e.Message, e.Cause)
}
