package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)

	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = provider.Shutdown(context.Background())
	})

	return recorder
}

func statusAttr(span sdktrace.ReadOnlySpan) (int64, bool) {
	for _, attr := range span.Attributes() {
		if attr.Key == "http.status_code" {
			return attr.Value.AsInt64(), true
		}
	}

	return 0, false
}

func TestInstrumentResty_Statuses(t *testing.T) {
	recorder := setupTestTracer(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := resty.New()
	InstrumentResty(client, "test")

	_, err := client.R().Get(server.URL + "/ok")
	require.NoError(t, err)

	_, err = client.R().Get(server.URL + "/missing")
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	assert.Equal(t, "http GET", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	code, ok := statusAttr(spans[0])
	require.True(t, ok)
	assert.Equal(t, int64(http.StatusOK), code)

	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestInstrumentResty_TransportError(t *testing.T) {
	recorder := setupTestTracer(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	client := resty.New()
	InstrumentResty(client, "test")

	_, err := client.R().Post(serverURL)
	require.Error(t, err)

	spans := recorder.Ended()
	require.NotEmpty(t, spans)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.NotEmpty(t, spans[0].Events())
}

func TestInstrumentResty_ChildOfCallerSpan(t *testing.T) {
	recorder := setupTestTracer(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	client := resty.New()
	InstrumentResty(client, "test")

	ctx, parent := otel.Tracer("test").Start(context.Background(), "run")
	_, err := client.R().SetContext(ctx).Get(server.URL)
	require.NoError(t, err)
	parent.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, parent.SpanContext().TraceID(), spans[0].SpanContext().TraceID())
	assert.Equal(t, parent.SpanContext().SpanID(), spans[0].Parent().SpanID())
}
