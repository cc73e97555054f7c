package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_CountsByOutcome(t *testing.T) {
	r := New(prometheus.NewRegistry(), "storefront")

	r.UseCase("create_order", "success", 10*time.Millisecond)
	r.UseCase("create_order", "success", 12*time.Millisecond)
	r.UseCase("create_order", "conflict", time.Millisecond)
	r.External("razorpay", "create_order", errors.New("boom"), time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.usecaseRequests.WithLabelValues("create_order", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.usecaseRequests.WithLabelValues("create_order", "conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.externalRequests.WithLabelValues("razorpay", "create_order", "error")))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.UseCase("x", "success", time.Second)
		r.External("x", "y", nil, time.Second)
	})
}
