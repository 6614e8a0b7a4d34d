package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestTrace_ContinuesCallerTrace(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	var inHandler trace.SpanContext
	r := gin.New()
	r.Use(Trace(tp.Tracer("test"), propagation.TraceContext{}))
	r.GET("/orders/:id", func(c *gin.Context) {
		inHandler = trace.SpanContextFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	req := httptest.NewRequest(http.MethodGet, "/orders/42", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if got := inHandler.TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("handler trace id=%s", got)
	}
	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("spans=%d, expected 1", len(spans))
	}
	s := spans[0]
	if s.Name() != "GET /orders/:id" || s.SpanKind() != trace.SpanKindServer {
		t.Fatalf("span name=%q kind=%v", s.Name(), s.SpanKind())
	}
	if s.Parent().SpanID().String() != "00f067aa0ba902b7" {
		t.Fatalf("parent=%s", s.Parent().SpanID())
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	spans = rec.Ended()
	if len(spans) != 2 || spans[1].Status().Code != codes.Error {
		t.Fatalf("5xx span not marked as error: %+v", spans[len(spans)-1].Status())
	}
	if spans[1].Parent().IsValid() {
		t.Fatalf("request without traceparent got a remote parent")
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	if spans = rec.Ended(); spans[len(spans)-1].Name() != "GET unmatched" {
		t.Fatalf("unmatched route span=%q", spans[len(spans)-1].Name())
	}
}
