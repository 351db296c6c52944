package prometrics

import (
	"testing"

	"github.com/adityaanikam/ecommerce-site-sub000/internal/observability"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_InstrumentsAreRegisteredOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "shop")

	counters, histograms := r.Instruments()
	require.Contains(t, counters, observability.MCheckoutCompensations)
	require.Contains(t, histograms, observability.MHTTPRequestDuration)

	// a second call reuses the vectors instead of panicking on re-registration
	again, _ := r.Instruments()

	counters[observability.MCheckoutCompensations].Add(1, observability.L("step", "credit"), observability.L("outcome", "success"))
	again[observability.MCheckoutCompensations].Add(1, observability.L("step", "credit"), observability.L("outcome", "success"))

	v, ok := r.counters.Load(observability.MCheckoutCompensations)
	require.True(t, ok)
	cv := v.(*prometheus.CounterVec)
	assert.Equal(t, float64(2), testutil.ToFloat64(cv.WithLabelValues("credit", "success")))
}

func TestRegistry_Histogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg, "")
	_, histograms := r.Instruments()

	histograms[observability.MUsecaseDuration].Observe(0.2, observability.L("use_case", "order.checkout"))

	n, err := testutil.GatherAndCount(reg, "usecase_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
