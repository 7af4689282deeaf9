package repository

import (
	"context"
	"time"

	"SignalWatch/internal/domain/models"
)

// IndicatorSource produces the readings for one evaluation cycle.
type IndicatorSource interface {
	Snapshot(ctx context.Context) (models.IndicatorSnapshot, error)
}

// DedupStore remembers which signal ids were notified within their cooldown.
type DedupStore interface {
	HasRecentNotification(ctx context.Context, signalID string) (bool, error)
	MarkNotified(ctx context.Context, signalID string, cooldown time.Duration) error
}

// SignalStore holds the most recently published signal set.
type SignalStore interface {
	Publish(ctx context.Context, signals []models.Signal, ttl time.Duration) error
	Clear(ctx context.Context) error
	ReadLatest(ctx context.Context) ([]models.Signal, error)
}

type Notifier interface {
	Send(ctx context.Context, text string) error
}

// QuoteSource fetches current quotes keyed by app symbol.
type QuoteSource interface {
	FetchQuotes(ctx context.Context) (models.MarketData, error)
}

// CycleRecorder receives a report after every cycle, successful or not.
type CycleRecorder interface {
	Record(ctx context.Context, report *models.CycleReport) error
}

// ReportSink accepts finished cycle reports (Kafka topic or history table).
type ReportSink interface {
	StoreReport(ctx context.Context, report *models.CycleReport) error
}

type HistoryStore interface {
	ReportSink
	Recent(ctx context.Context, signalID string, since time.Time, limit int) ([]models.SignalHistoryEntry, error)
}

type Metrics interface {
	RecordCycle(outcome string, d time.Duration)
	RecordSignalsFound(n int)
	RecordNotification(signalID, outcome string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, d time.Duration)
}
