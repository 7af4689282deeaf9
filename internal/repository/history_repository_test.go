package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"SignalWatch/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *models.CycleReport {
	at := time.Date(2026, 3, 2, 1, 30, 0, 0, time.UTC)
	return &models.CycleReport{
		RunID:      "run-1",
		StartedAt:  at.Add(-time.Second),
		FinishedAt: at,
		Decisions: []models.SignalDecision{
			{Signal: models.Signal{ID: "vix_high", Indicator: "VIX恐慌指數", Value: "> 25 (現值: 30.00)"}, Outcome: models.OutcomeSent},
			{Signal: models.Signal{ID: "pbr_low", Indicator: "大盤股價淨值比", Value: "< 1.6 (現值: 1.40)"}, Outcome: models.OutcomeSuppressed},
		},
	}
}

func TestClickHouseHistoryStoreReport(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := sampleReport()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO signal_history (run_id, signal_id, indicator, value, outcome, evaluated_at) VALUES (?, ?, ?, ?, ?, ?),(?, ?, ?, ?, ?, ?)")).
		WithArgs("run-1", "vix_high", "VIX恐慌指數", "> 25 (現值: 30.00)", "sent", r.FinishedAt,
			"run-1", "pbr_low", "大盤股價淨值比", "< 1.6 (現值: 1.40)", "suppressed", r.FinishedAt).
		WillReturnResult(sqlmock.NewResult(0, 2))

	s := NewClickHouseHistoryStore(db, "", nil)
	require.NoError(t, s.StoreReport(context.Background(), r))
	require.NoError(t, s.StoreReport(context.Background(), &models.CycleReport{RunID: "empty"}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseHistoryStoreRecent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 3, 2, 1, 30, 0, 0, time.UTC)
	since := at.Add(-24 * time.Hour)
	rows := sqlmock.NewRows([]string{"run_id", "signal_id", "indicator", "value", "outcome", "evaluated_at"}).
		AddRow("run-2", "vix_high", "VIX恐慌指數", "> 25 (現值: 31.00)", "suppressed", at).
		AddRow("run-1", "vix_high", "VIX恐慌指數", "> 25 (現值: 30.00)", "sent", at.Add(-time.Hour))
	mock.ExpectQuery("SELECT run_id, signal_id").
		WithArgs("vix_high", "vix_high", since, 10).
		WillReturnRows(rows)

	got, err := NewClickHouseHistoryStore(db, "", nil).Recent(context.Background(), "vix_high", since, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "run-2", got[0].RunID)
	assert.Equal(t, models.OutcomeSent, got[1].Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClickHouseHistoryStoreQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT run_id").WillReturnError(errors.New("down"))
	_, err = NewClickHouseHistoryStore(db, "", nil).Recent(context.Background(), "", time.Time{}, 5)
	assert.Error(t, err)
}

type capturePublisher struct {
	topic string
	key   []byte
	value interface{}
}

func (c *capturePublisher) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	c.topic, c.key, c.value = topic, key, value
	return nil
}

func TestKafkaReportPublisher(t *testing.T) {
	cp := &capturePublisher{}
	p := &KafkaReportPublisher{producer: cp, topic: "signalwatch.cycles"}

	r := sampleReport()
	require.NoError(t, p.StoreReport(context.Background(), r))
	assert.Equal(t, "signalwatch.cycles", cp.topic)
	assert.Equal(t, []byte("run-1"), cp.key)
	assert.Same(t, r, cp.value)
}
