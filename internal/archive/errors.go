package archive

import "errors"

var (
	ErrArchiveIO         = errors.New("build context file unavailable")
	ErrArtifactNotFound  = errors.New("artifact not found")
	ErrInvalidCoordinate = errors.New("invalid artifact coordinate")
)
