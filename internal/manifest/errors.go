package manifest

import "errors"

var (
	ErrManifest     = errors.New("invalid pipeline manifest")
	ErrInvalidImage = errors.New("invalid image build spec")
	ErrInvalidPort  = errors.New("invalid port binding")
)
