package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordCycle("ok", 20*time.Millisecond)
	r.RecordCycle("ok", 30*time.Millisecond)
	r.RecordCycle("failed", time.Millisecond)
	r.RecordNotification("vix_high", "sent")
	r.RecordNotification("vix_high", "suppressed")
	r.RecordNotification("vix_high", "suppressed")
	r.RecordSignalsFound(3)
	r.RecordLastPrice("0050.TW", 150.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.cycles.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.cycles.WithLabelValues("failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.notifications.WithLabelValues("vix_high", "suppressed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.signalsFound))
	assert.Equal(t, 150.5, testutil.ToFloat64(r.lastPrice.WithLabelValues("0050.TW")))
}
