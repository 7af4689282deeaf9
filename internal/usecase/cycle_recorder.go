package usecase

import (
	"context"
	"fmt"
	"time"

	"SignalWatch/internal/domain/models"
	drepo "SignalWatch/internal/domain/repository"
)

const (
	HistoryBackendNone       = "none"
	HistoryBackendKafka      = "kafka"
	HistoryBackendClickHouse = "clickhouse"
)

// CycleRecorder routes reports to the configured history backend.
type CycleRecorder struct {
	backend string
	sink    drepo.ReportSink
	metrics drepo.Metrics
}

func NewCycleRecorder(backend string, sink drepo.ReportSink, metrics drepo.Metrics) *CycleRecorder {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if sink == nil {
		backend = HistoryBackendNone
	}
	return &CycleRecorder{backend: backend, sink: sink, metrics: metrics}
}

func (r *CycleRecorder) Backend() string { return r.backend }

func (r *CycleRecorder) Record(ctx context.Context, report *models.CycleReport) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}

	start := time.Now()
	var err error
	switch r.backend {
	case HistoryBackendNone, "":
		return nil
	case HistoryBackendKafka, HistoryBackendClickHouse:
		err = r.sink.StoreReport(ctx, report)
	default:
		err = fmt.Errorf("unknown backend: %s", r.backend)
	}

	if err != nil {
		r.metrics.RecordError("record")
		return fmt.Errorf("record cycle %s: %w", report.RunID, err)
	}
	r.metrics.RecordLatency("record_"+r.backend, time.Since(start))
	return nil
}

var _ drepo.CycleRecorder = (*CycleRecorder)(nil)
