package telemetry

import (
	"time"

	"go.uber.org/zap"
)

const (
	FieldTool       = "tool"
	FieldStatus     = "status"
	FieldDurationMs = "duration_ms"
	FieldRequestID  = "request_id"
	FieldSnapshot   = "snapshot"
)

func DurationField(duration time.Duration) zap.Field {
	return zap.Int64(FieldDurationMs, duration.Milliseconds())
}
