package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"SignalWatch/internal/domain/models"
	domrepo "SignalWatch/internal/domain/repository"
	pkgkafka "SignalWatch/pkg/kafka"
	applogger "SignalWatch/pkg/logger"
)

const DefaultHistoryTable = "signal_history"

// HistorySchema returns the DDL for the history table.
func HistorySchema(table string) []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    run_id       String,
    signal_id    LowCardinality(String),
    indicator    String,
    value        String,
    outcome      LowCardinality(String),
    evaluated_at DateTime64(3, 'UTC')
) ENGINE = MergeTree
ORDER BY (signal_id, evaluated_at)
TTL toDateTime(evaluated_at) + INTERVAL 180 DAY`, table)}
}

// ClickHouseHistoryStore persists one row per candidate signal per cycle.
type ClickHouseHistoryStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewClickHouseHistoryStore(db *sql.DB, table string, l *applogger.Logger) *ClickHouseHistoryStore {
	if table == "" {
		table = DefaultHistoryTable
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &ClickHouseHistoryStore{db: db, table: table, l: l}
}

// StoreReport writes the report's rows in one multi-row insert. Reports without
// candidates are skipped.
func (s *ClickHouseHistoryStore) StoreReport(ctx context.Context, report *models.CycleReport) error {
	if report == nil {
		return nil
	}
	rows := report.HistoryEntries()
	if len(rows) == 0 {
		return nil
	}

	values := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*6)
	for _, r := range rows {
		values = append(values, "(?, ?, ?, ?, ?, ?)")
		args = append(args, r.RunID, r.SignalID, r.Indicator, r.Value, string(r.Outcome), r.EvaluatedAt.UTC())
	}
	q := fmt.Sprintf("INSERT INTO %s (run_id, signal_id, indicator, value, outcome, evaluated_at) VALUES %s",
		s.table, strings.Join(values, ","))
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		s.l.Error("clickhouse store_report error",
			applogger.String("table", s.table),
			applogger.String("run_id", report.RunID),
			applogger.Error(err),
		)
		return fmt.Errorf("store report: %w", err)
	}
	return nil
}

// Recent returns rows newest first. An empty signalID matches every signal.
func (s *ClickHouseHistoryStore) Recent(ctx context.Context, signalID string, since time.Time, limit int) ([]models.SignalHistoryEntry, error) {
	start := time.Now()
	q := fmt.Sprintf(`SELECT run_id, signal_id, indicator, value, outcome, evaluated_at
        FROM %s
        WHERE (? = '' OR signal_id = ?) AND evaluated_at >= ?
        ORDER BY evaluated_at DESC
        LIMIT ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, signalID, signalID, since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]models.SignalHistoryEntry, 0, limit)
	for rows.Next() {
		var e models.SignalHistoryEntry
		var outcome string
		if err := rows.Scan(&e.RunID, &e.SignalID, &e.Indicator, &e.Value, &outcome, &e.EvaluatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Outcome = models.NotificationOutcome(outcome)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("clickhouse history ok",
		applogger.String("signal_id", signalID),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

// reportPublisher is the slice of *pkgkafka.Producer used here.
type reportPublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
}

// KafkaReportPublisher ships whole cycle reports, keyed by run id.
type KafkaReportPublisher struct {
	producer reportPublisher
	topic    string
}

func NewKafkaReportPublisher(producer *pkgkafka.Producer, topic string) *KafkaReportPublisher {
	return &KafkaReportPublisher{producer: producer, topic: topic}
}

func (p *KafkaReportPublisher) StoreReport(ctx context.Context, report *models.CycleReport) error {
	if report == nil {
		return nil
	}
	if err := p.producer.Publish(ctx, p.topic, []byte(report.RunID), report); err != nil {
		return fmt.Errorf("publish report %s: %w", report.RunID, err)
	}
	return nil
}

var _ domrepo.HistoryStore = (*ClickHouseHistoryStore)(nil)
