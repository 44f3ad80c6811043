package domain

import "time"

// CallStatus labels the outcome of a fetch or tool call.
type CallStatus string

const (
	// CallStatusSuccess indicates the call completed.
	CallStatusSuccess CallStatus = "success"
	// CallStatusError indicates the call failed.
	CallStatusError CallStatus = "error"
	// CallStatusNotFound indicates a handled absence (missing item or snapshot).
	CallStatusNotFound CallStatus = "not_found"
)

// Metrics receives observations from the fetcher, the stores and the tool surface.
type Metrics interface {
	ObserveFetch(duration time.Duration, err error)
	ObserveSnapshotSave(backend SnapshotBackend, err error)
	ObserveToolCall(tool string, status CallStatus, duration time.Duration)
}

// NoopMetrics discards every observation.
type NoopMetrics struct{}

func (NoopMetrics) ObserveFetch(time.Duration, error) {}
func (NoopMetrics) ObserveSnapshotSave(SnapshotBackend, error) {}
func (NoopMetrics) ObserveToolCall(string, CallStatus, time.Duration) {}

var _ Metrics = NoopMetrics{}
