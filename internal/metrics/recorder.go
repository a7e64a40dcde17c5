// Package metrics records step and build outcomes.
package metrics

import "time"

// Recorder defines observability hooks for step and build metrics.
type Recorder interface {
	ObserveStepDuration(d time.Duration)
	IncStepOutcome(outcome string)
	IncBuildResult(result string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStepDuration(time.Duration) {}
func (NoopRecorder) IncStepOutcome(string)             {}
func (NoopRecorder) IncBuildResult(string)             {}
