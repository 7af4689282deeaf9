package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SignalWatch/internal/domain"
	"SignalWatch/internal/domain/models"
	drepo "SignalWatch/internal/domain/repository"
	"SignalWatch/internal/service/market"
	applogger "SignalWatch/pkg/logger"
	"SignalWatch/pkg/util"
)

// MarketService serves dashboard quotes from a cache refreshed on demand.
type MarketService struct {
	quotes  drepo.QuoteSource
	cache   *market.Cache
	session util.TradingSession
	metrics drepo.Metrics
	logger  *applogger.Logger

	refresh sync.Mutex
}

func NewMarketService(quotes drepo.QuoteSource, cache *market.Cache, session util.TradingSession, metrics drepo.Metrics, l *applogger.Logger) *MarketService {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &MarketService{quotes: quotes, cache: cache, session: session, metrics: metrics, logger: l}
}

// MarketData returns cached quotes younger than maxAge, fetching otherwise.
// Concurrent callers share one fetch.
func (s *MarketService) MarketData(ctx context.Context, maxAge time.Duration) (models.MarketData, error) {
	if s.cache.Fresh(maxAge) {
		data, _ := s.cache.Snapshot()
		return data, nil
	}

	s.refresh.Lock()
	defer s.refresh.Unlock()
	if s.cache.Fresh(maxAge) {
		data, _ := s.cache.Snapshot()
		return data, nil
	}

	start := time.Now()
	update, err := s.quotes.FetchQuotes(ctx)
	s.metrics.RecordLatency("quotes", time.Since(start))
	if err != nil {
		s.cache.Fail(err)
		s.metrics.RecordError("quotes")
		s.logger.Error("fetch market data", applogger.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamFetch, err)
	}

	s.cache.Merge(update)
	for sym, t := range update {
		s.metrics.RecordLastPrice(sym, t.Price)
	}
	data, _ := s.cache.Snapshot()
	return data, nil
}

// Status reports ACTIVE inside the trading session, INACTIVE outside it and ERROR
// while the last fetch is failing.
func (s *MarketService) Status(now time.Time) models.StatusData {
	open := s.session.IsOpen(now)
	status := models.ServiceStatusInactive
	if open {
		status = models.ServiceStatusActive
	}
	if s.cache.LastError() != nil {
		status = models.ServiceStatusError
	}
	return models.StatusData{
		Status:         status,
		LastChecked:    now,
		MarketOpen:     open,
		CumulativeDrop: s.cache.CumulativeDrop(),
	}
}
