package provider

import "errors"

var (
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrDuplicateProvider = errors.New("provider already registered")
	ErrUnsupported       = errors.New("operation not supported by provider")
	ErrProvider          = errors.New("provider error")
)
