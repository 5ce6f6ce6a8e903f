package state

import "errors"

var (
	ErrStore = errors.New("run state store failed")
)
