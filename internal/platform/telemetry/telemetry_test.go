package telemetry

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/georgemunganga/storefront-backend/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestObservation_RecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.New(reg, "test")
	tracer := noop.NewTracerProvider().Tracer("test")

	_, obs := Start(context.Background(), tracer, rec, "create_order")
	obs.End(nil)
	_, obs = Start(context.Background(), tracer, rec, "create_order")
	obs.End(errors.New("boom"))
	_, obs = Start(context.Background(), tracer, rec, "verify_payment")
	obs.Outcome("already_processed")
	obs.End(nil)

	expected := `
# HELP test_usecase_requests_total Use case executions by operation and outcome.
# TYPE test_usecase_requests_total counter
test_usecase_requests_total{operation="create_order",outcome="error"} 1
test_usecase_requests_total{operation="create_order",outcome="success"} 1
test_usecase_requests_total{operation="verify_payment",outcome="already_processed"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "test_usecase_requests_total"))
}

func TestObservation_NilRecorder(t *testing.T) {
	_, obs := Start(context.Background(), noop.NewTracerProvider().Tracer("test"), nil, "op")
	assert.NotPanics(t, func() { obs.End(nil) })
}
