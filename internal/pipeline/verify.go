package pipeline

import (
	"fmt"
	"strings"

	"github.com/cruciblehq/hoist/internal/state"
)

// Accumulated failures of a run that failed verification.
type VerificationError struct {
	Errors []state.PluginError
}

func (e *VerificationError) Error() string {
	details := make([]string, len(e.Errors))
	for i, pe := range e.Errors {
		details[i] = pe.Error()
	}
	return fmt.Sprintf("%s: %d error(s): %s", ErrVerification, len(e.Errors), strings.Join(details, "; "))
}

// Matches [ErrVerification].
func (e *VerificationError) Unwrap() error {
	return ErrVerification
}

// Returns the recorded failure messages, in order, without their phase or
// cause.
func (e *VerificationError) Messages() []string {
	msgs := make([]string, len(e.Errors))
	for i, pe := range e.Errors {
		msgs[i] = pe.Message
	}
	return msgs
}

// Fails when the run recorded any error.
//
// Returns nil for a clean run and a [*VerificationError] otherwise. Verify
// does not modify the run context, so repeated calls agree.
func Verify(rc *state.RunContext) error {
	if !rc.HasErrors() {
		return nil
	}
	return &VerificationError{Errors: append([]state.PluginError(nil), rc.Errors...)}
}
