package pipeline

import "errors"

var (
	ErrVerification = errors.New("pipeline verification failed")
	ErrUnknownPhase = errors.New("unknown phase")
)
