package tracing

import (
	"context"
	"errors"
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

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func TestStartAndEndSpan(t *testing.T) {
	rec := withRecorder(t)

	_, span := StartSpan(context.Background(), "sync.reconcile", attribute.String("sync.user", "malcolm"))
	EndSpan(span, errors.New("remote unavailable"))

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "sync.reconcile", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.String("sync.user", "malcolm"))
}

func TestGinMiddleware(t *testing.T) {
	rec := withRecorder(t)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/api/progress/:subject/:moduleId", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/progress/math/money", "/metrics"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "GET /api/progress/:subject/:moduleId", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("practice.module", "money"))
}
