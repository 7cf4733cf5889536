package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{ServiceName: "virtuefeed-test", Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestTraceLayer_Spans(t *testing.T) {
	layer := GetTraceLayer()

	ctx, span := layer.TraceRepositoryMethod(context.Background(), "ListPosts", "posts")
	RecordErrorInContext(ctx, errors.New("boom"))
	span.End()

	_, span = layer.TraceOutboundCall(context.Background(), "identity-provider", "GetUser")
	span.End()
}

func TestTrackQuery(t *testing.T) {
	done := TrackQuery("select", "posts")
	assert.NotPanics(t, done)
}

func TestInitTracing_UnknownExporter(t *testing.T) {
	_, err := InitTracing(TracingConfig{ServiceName: "virtuefeed-test", Enabled: true, Exporter: "zipkin"})
	assert.Error(t, err)
}

func TestNewSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), newSampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), newSampler(0).Description())
	assert.Contains(t, newSampler(0.25).Description(), "ParentBased")
}
