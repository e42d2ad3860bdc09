package mycontext

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// CtxTraceContext is a context key for the trace context (used by mylog)
type CtxTraceContext struct{}

// ContextFromHTTPRequest derives a request context that carries the Cloud Trace id of the incoming request.
func ContextFromHTTPRequest(r *http.Request) context.Context {
	return WithTrace(r.Context(), traceFromHeader(r.Header.Get("X-Cloud-Trace-Context")))
}

func WithTrace(c context.Context, trace string) context.Context {
	return context.WithValue(c, CtxTraceContext{}, trace)
}

func TraceFromContext(c context.Context) string {
	trace, ok := c.Value(CtxTraceContext{}).(string)
	if !ok {
		return ""
	}
	return trace
}

func traceFromHeader(traceContext string) string {
	traceParts := strings.Split(traceContext, "/")
	if len(traceParts) == 0 || len(traceParts[0]) == 0 {
		return ""
	}
	return fmt.Sprintf("projects/%s/traces/%s", os.Getenv("GOOGLE_CLOUD_PROJECT"), traceParts[0])
}
