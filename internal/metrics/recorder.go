package metrics

import "time"

// Result of one phase or operation.
type Result string

const (
	ResultSuccess Result = "success" // Completed without recorded errors.
	ResultErrors  Result = "errors"  // Completed, with errors recorded for verification.
	ResultFatal   Result = "fatal"   // Aborted the run.
)

// Observability hooks for pipeline phases and daemon operations.
type Recorder interface {
	ObservePhaseDuration(phase string, d time.Duration)
	IncPhaseResult(phase string, result Result)
	IncOperation(op string, success bool)
}

// Discards all observations.
type Noop struct{}

func (Noop) ObservePhaseDuration(string, time.Duration) {}
func (Noop) IncPhaseResult(string, Result)              {}
func (Noop) IncOperation(string, bool)                  {}
