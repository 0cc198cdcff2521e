package metrics

import "time"

// Outcome labels for IncBuildOutcome.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeCanceled = "canceled"
)

// Recorder defines observability hooks for site builds. Implementations may
// forward to Prometheus; NoopRecorder is the default.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome string)
	IncPagesRendered(n int)
	// IncDiagram counts one diagram fence by outcome (rendered, raw, skipped).
	IncDiagram(outcome string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
func (NoopRecorder) IncPagesRendered(int)                       {}
func (NoopRecorder) IncDiagram(string)                          {}
