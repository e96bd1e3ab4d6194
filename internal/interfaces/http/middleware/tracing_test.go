package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer sets up a test tracer provider and returns the span recorder.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(prev)
	})
	return sr
}

func tracedRouter(cfg TracingConfig, status int) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), Tracing(cfg), SpanAttributes())
	router.GET("/api/cart", func(c *gin.Context) {
		c.Status(status)
	})
	return router
}

func TestTracing_Disabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sr := setupTestTracer(t)

	w := httptest.NewRecorder()
	tracedRouter(TracingConfig{Enabled: false}, http.StatusOK).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracing_Enabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("span carries route and request id", func(t *testing.T) {
		sr := setupTestTracer(t)
		req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
		req.Header.Set(RequestIDHeader, "req-1")
		w := httptest.NewRecorder()
		tracedRouter(TracingConfig{Enabled: true, ServiceName: "shop"}, http.StatusOK).ServeHTTP(w, req)

		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.Contains(t, spans[0].Name(), "/api/cart")
		assert.Contains(t, spans[0].Attributes(), attribute.String("request_id", "req-1"))
		assert.NotEqual(t, codes.Error, spans[0].Status().Code)
	})

	t.Run("server errors mark the span", func(t *testing.T) {
		sr := setupTestTracer(t)
		w := httptest.NewRecorder()
		tracedRouter(TracingConfig{Enabled: true, ServiceName: "shop"}, http.StatusInternalServerError).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cart", nil))

		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
	})
}
