package daemon

import (
	"errors"
	"fmt"

	"github.com/containerd/errdefs"
	dockererrdefs "github.com/docker/docker/errdefs"
)

var (
	ErrDaemon            = errors.New("daemon request failed")
	ErrImageNotFound     = fmt.Errorf("image %w", errdefs.ErrNotFound)
	ErrContainerNotFound = fmt.Errorf("container %w", errdefs.ErrNotFound)
	ErrBuildOutput       = errors.New("build output did not confirm success")
	ErrBuildFailed       = errors.New("image build failed")
	ErrInvalidReference  = errors.New("invalid image reference")
	ErrConfig            = errors.New("invalid daemon configuration")
)

// Wraps a failed API call as [ErrDaemon], naming the operation and object.
//
// The engine error stays in the chain, so the docker errdefs predicates
// still apply to the result.
func apiErr(err error, op, object string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s %s: %w", ErrDaemon, op, object, err)
}

// Classifies a missing container as [ErrContainerNotFound].
func containerErr(err error, op, id string) error {
	if err == nil {
		return nil
	}
	if dockererrdefs.IsNotFound(err) {
		return fmt.Errorf("%w: %s: %w", ErrContainerNotFound, id, apiErr(err, op, id))
	}
	return apiErr(err, op, id)
}

// Classifies a missing image as [ErrImageNotFound].
func imageErr(err error, op, image string) error {
	if err == nil {
		return nil
	}
	if dockererrdefs.IsNotFound(err) {
		return fmt.Errorf("%w: %s: %w", ErrImageNotFound, image, apiErr(err, op, image))
	}
	return apiErr(err, op, image)
}
