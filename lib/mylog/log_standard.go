package mylog

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") == "" {
		New = newStandardLogger
	}
}

type standardLogger struct {
	componentName string
	out           io.Writer
}

func newStandardLogger(componentName string) Logger {
	return NewWriterLogger(componentName, os.Stderr)
}

// NewWriterLogger writes plain text lines to w
func NewWriterLogger(componentName string, w io.Writer) Logger {
	return standardLogger{
		componentName: componentName,
		out:           w,
	}
}

func (l standardLogger) Log(c context.Context, traceLabel string, severity Severity, format string, a ...any) {
	fmt.Fprintf(l.out, "%s - %s - %s - %s - %s\n", time.Now().Format(time.RFC3339), l.componentName, traceLabel, string(severity), fmt.Sprintf(format, a...))
}
