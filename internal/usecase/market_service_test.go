package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"SignalWatch/internal/domain"
	"SignalWatch/internal/domain/models"
	"SignalWatch/internal/service/market"
	applogger "SignalWatch/pkg/logger"
	"SignalWatch/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQuotes struct {
	calls int
	data  models.MarketData
	err   error
}

func (s *stubQuotes) FetchQuotes(context.Context) (models.MarketData, error) {
	s.calls++
	return s.data, s.err
}

func newMarketService(t *testing.T, q *stubQuotes) *MarketService {
	t.Helper()
	session, err := util.TaipeiSession()
	require.NoError(t, err)
	c := market.NewCache([]string{"^TWII", "0050.TW"}, "^TWII")
	return NewMarketService(q, c, session, nil, applogger.Nop())
}

func TestMarketDataUsesCacheWithinMaxAge(t *testing.T) {
	q := &stubQuotes{data: models.MarketData{"^TWII": {Price: 17000, Change: -150}}}
	s := newMarketService(t, q)

	data, err := s.MarketData(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 17000.0, data["^TWII"].Price)
	assert.Contains(t, data, "0050.TW")

	_, err = s.MarketData(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, q.calls)

	_, err = s.MarketData(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, q.calls)
}

func TestMarketDataUpstreamFailure(t *testing.T) {
	q := &stubQuotes{err: errors.New("timeout")}
	s := newMarketService(t, q)

	_, err := s.MarketData(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrUpstreamFetch)

	st := s.Status(time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC))
	assert.Equal(t, models.ServiceStatusError, st.Status)
}

func TestStatusFollowsSession(t *testing.T) {
	q := &stubQuotes{data: models.MarketData{"^TWII": {Price: 17000, Change: -150}}}
	s := newMarketService(t, q)
	_, err := s.MarketData(context.Background(), 0)
	require.NoError(t, err)

	// Monday 10:00 Taipei
	open := s.Status(time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC))
	assert.Equal(t, models.ServiceStatusActive, open.Status)
	assert.True(t, open.MarketOpen)
	assert.Equal(t, -150.0, open.CumulativeDrop)

	// Monday 14:00 Taipei
	closed := s.Status(time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC))
	assert.Equal(t, models.ServiceStatusInactive, closed.Status)
	assert.False(t, closed.MarketOpen)

	// Saturday
	weekend := s.Status(time.Date(2026, 3, 7, 2, 0, 0, 0, time.UTC))
	assert.Equal(t, models.ServiceStatusInactive, weekend.Status)
}
