package state

import (
	"slices"
	"time"
)

// Correlation store of a single pipeline run.
//
// The zero value is ready to use. Every list starts empty and only grows.
type RunContext struct {
	RunID      string             `json:"run_id"`
	Created    time.Time          `json:"created"`
	Containers []StartedContainer `json:"containers,omitempty"`
	Images     []BuiltImage       `json:"images,omitempty"`
	Pushables  []PushableImage    `json:"pushables,omitempty"`
	Errors     []PluginError      `json:"errors,omitempty"`
}

// Creates a run context for the given run id.
func New(runID string) *RunContext {
	return &RunContext{RunID: runID, Created: time.Now().UTC()}
}

// Registers a started container.
func (rc *RunContext) AddContainer(c StartedContainer) {
	rc.Containers = append(rc.Containers, c)
}

// Returns the most recently registered container with the given user id.
func (rc *RunContext) Container(userID string) (StartedContainer, bool) {
	for i := len(rc.Containers) - 1; i >= 0; i-- {
		if rc.Containers[i].UserID == userID {
			return rc.Containers[i], true
		}
	}
	return StartedContainer{}, false
}

// Registers a built or committed image.
//
// A later registration for the same start id supersedes the earlier one for
// lookups; the earlier record stays in the list.
func (rc *RunContext) AddImage(img BuiltImage) {
	rc.Images = append(rc.Images, img)
}

// Returns the live image record for a start id.
func (rc *RunContext) Image(startID string) (BuiltImage, bool) {
	for i := len(rc.Images) - 1; i >= 0; i-- {
		if rc.Images[i].StartID == startID {
			return rc.Images[i], true
		}
	}
	return BuiltImage{}, false
}

// Returns the live image record of every start id, in first-registration
// order.
func (rc *RunContext) LiveImages() []BuiltImage {
	var live []BuiltImage
	seen := make(map[string]int)
	for _, img := range rc.Images {
		if i, ok := seen[img.StartID]; ok {
			live[i] = img
			continue
		}
		seen[img.StartID] = len(live)
		live = append(live, img)
	}
	return live
}

// Queues an image for push. Returns false if an equal image is already
// queued.
func (rc *RunContext) AddPushable(p PushableImage) bool {
	if slices.Contains(rc.Pushables, p) {
		return false
	}
	rc.Pushables = append(rc.Pushables, p)
	return true
}

// Records a non-fatal failure of a phase.
func (rc *RunContext) AddError(goal, message string, cause error) PluginError {
	e := PluginError{Goal: goal, Message: message, Time: time.Now().UTC()}
	if cause != nil {
		e.Cause = cause.Error()
	}
	rc.Errors = append(rc.Errors, e)
	return e
}

// Reports whether any failure has been recorded.
func (rc *RunContext) HasErrors() bool {
	return len(rc.Errors) > 0
}
