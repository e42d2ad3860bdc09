package mycontext

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextFromHTTPRequest(t *testing.T) {
	t.Run("With trace header", func(t *testing.T) {
		t.Setenv("GOOGLE_CLOUD_PROJECT", "my-project")
		r, _ := http.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Cloud-Trace-Context", "abc123/456;o=1")

		c := ContextFromHTTPRequest(r)

		assert.Equal(t, "projects/my-project/traces/abc123", TraceFromContext(c))
	})

	t.Run("Without trace header", func(t *testing.T) {
		r, _ := http.NewRequest(http.MethodGet, "/", nil)

		c := ContextFromHTTPRequest(r)

		assert.Equal(t, "", TraceFromContext(c))
	})

	t.Run("Plain context", func(t *testing.T) {
		assert.Equal(t, "", TraceFromContext(context.Background()))
	})
}
