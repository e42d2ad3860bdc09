package mylog

import "context"

type Severity string

const (
	SeverityDebug Severity = "DEBUG"
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARNING"
	SeverityError Severity = "ERROR"
)

// New creates a logger for a named component. The backend is chosen at init-time:
// structured json for Cloud Logging when running on GCP, plain text otherwise.
var New func(componentName string) Logger

type Logger interface {
	// Log writes a single entry; traceLabel groups entries of the same aggregate (session, checkout, order)
	Log(c context.Context, traceLabel string, severity Severity, format string, a ...any)
}
