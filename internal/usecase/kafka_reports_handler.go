package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SignalWatch/internal/domain/models"
	drepo "SignalWatch/internal/domain/repository"
	pkgkafka "SignalWatch/pkg/kafka"
)

// KafkaReportsHandler consumes cycle reports and writes them to the history store.
type KafkaReportsHandler struct {
	topic   string
	store   drepo.ReportSink
	metrics drepo.Metrics
}

func NewKafkaReportsHandler(topic string, store drepo.ReportSink, metrics drepo.Metrics) *KafkaReportsHandler {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &KafkaReportsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaReportsHandler) Topic() string { return h.topic }

func (h *KafkaReportsHandler) Handle(ctx context.Context, b []byte) error {
	var report models.CycleReport
	if err := json.Unmarshal(b, &report); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode report: %w", err)
	}
	if report.RunID == "" {
		h.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("report without run id")
	}
	if !report.FinishedAt.IsZero() {
		h.metrics.RecordLatency("history_e2e", time.Since(report.FinishedAt))
	}

	start := time.Now()
	err := h.store.StoreReport(ctx, &report)
	h.metrics.RecordLatency("history_insert", time.Since(start))
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaReportsHandler)(nil)
