package runtime

import (
	"errors"
	"fmt"

	"github.com/containerd/errdefs"
)

var (
	ErrRuntime           = errors.New("runtime error")
	ErrEmptyIndex        = errors.New("empty image index")
	ErrInvalidBind       = errors.New("invalid bind mount")
	ErrContainerNotFound = fmt.Errorf("container %w", errdefs.ErrNotFound)
)
