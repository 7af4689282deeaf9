package indicators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"SignalWatch/internal/domain"
	"SignalWatch/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatedSourceRanges(t *testing.T) {
	src := NewSimulatedSource(42)
	for i := 0; i < 500; i++ {
		s, err := src.Snapshot(context.Background())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, s.VIX, 12.0)
		assert.Less(t, s.VIX, 35.0)
		assert.GreaterOrEqual(t, s.PBRatio, 1.4)
		assert.Less(t, s.PBRatio, 2.4)
		assert.Contains(t, []models.BusinessCycle{
			models.BusinessCycleContraction, models.BusinessCycleEarlyContraction, models.BusinessCycleExpansion,
		}, s.CycleState)
		// lights below green share the draw that ends the hiking cycle
		if s.CycleState != models.BusinessCycleExpansion {
			assert.Equal(t, models.PolicyCycleTighteningEnding, s.PolicyCycle)
		}
	}
}

func TestSimulatedSourceSeeded(t *testing.T) {
	a, _ := NewSimulatedSource(7).Snapshot(context.Background())
	b, _ := NewSimulatedSource(7).Snapshot(context.Background())
	a.ObservedAt, b.ObservedAt = time.Time{}, time.Time{}
	assert.Equal(t, a, b)
}

func TestSimulatedSourceHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSimulatedSource(1).Snapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPSourceDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/indicators/snapshot", r.URL.Path)
		_, _ = w.Write([]byte(`{"cycleState":"contraction","vix":30,"pbRatio":1.5,"policyCycle":"tightening-ending"}`))
	}))
	defer srv.Close()

	s, err := NewHTTPSource(srv.URL, time.Second).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.BusinessCycleContraction, s.CycleState)
	assert.Equal(t, 30.0, s.VIX)
	assert.Equal(t, models.PolicyCycleTighteningEnding, s.PolicyCycle)
}

func TestHTTPSourceRejectsUnknownState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cycleState":"purple","vix":30,"pbRatio":1.5,"policyCycle":"steady"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, time.Second).Snapshot(context.Background())
	assert.ErrorIs(t, err, domain.ErrUpstreamFetch)
}

func TestHTTPSourceRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"cycleState":"expansion","vix":15,"pbRatio":1.9,"policyCycle":"steady"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, time.Second).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPSourceFailsFastOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewHTTPSource(srv.URL, time.Second).Snapshot(context.Background())
	assert.ErrorIs(t, err, domain.ErrUpstreamFetch)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
