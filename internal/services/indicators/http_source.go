package indicators

import (
	"context"
	"fmt"
	"math"
	"time"

	"SignalWatch/internal/domain"
	"SignalWatch/internal/domain/models"
	drepo "SignalWatch/internal/domain/repository"
)

// HTTPSource asks a remote provider for the current readings.
type HTTPSource struct {
	base     *HTTPServiceBase
	attempts int
	now      func() time.Time
}

func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{base: NewHTTPServiceBase(baseURL, timeout), attempts: 3, now: time.Now}
}

type snapshotRequest struct {
	Indicators []string `json:"indicators"`
}

type snapshotResponse struct {
	CycleState  string   `json:"cycleState"`
	VIX         *float64 `json:"vix"`
	PBRatio     *float64 `json:"pbRatio"`
	PolicyCycle string   `json:"policyCycle"`
}

// Snapshot fails with domain.ErrUpstreamFetch on transport errors, bad statuses,
// missing numbers or unknown categorical states.
func (s *HTTPSource) Snapshot(ctx context.Context) (models.IndicatorSnapshot, error) {
	var resp snapshotResponse
	req := snapshotRequest{Indicators: []string{"cycleState", "vix", "pbRatio", "policyCycle"}}
	if err := s.base.PostJSONWithRetry(ctx, "/indicators/snapshot", req, &resp, s.attempts); err != nil {
		return models.IndicatorSnapshot{}, fmt.Errorf("%w: %v", domain.ErrUpstreamFetch, err)
	}

	if resp.VIX == nil || resp.PBRatio == nil || math.IsNaN(*resp.VIX) || math.IsNaN(*resp.PBRatio) {
		return models.IndicatorSnapshot{}, fmt.Errorf("%w: indicator response missing vix or pbRatio", domain.ErrUpstreamFetch)
	}
	cycle := models.ParseBusinessCycle(resp.CycleState)
	if cycle == models.BusinessCycleUnknown {
		return models.IndicatorSnapshot{}, fmt.Errorf("%w: unknown cycleState %q", domain.ErrUpstreamFetch, resp.CycleState)
	}
	policy := models.ParsePolicyCycle(resp.PolicyCycle)
	if policy == models.PolicyCycleUnknown {
		return models.IndicatorSnapshot{}, fmt.Errorf("%w: unknown policyCycle %q", domain.ErrUpstreamFetch, resp.PolicyCycle)
	}

	return models.IndicatorSnapshot{
		CycleState:  cycle,
		VIX:         *resp.VIX,
		PBRatio:     *resp.PBRatio,
		PolicyCycle: policy,
		ObservedAt:  s.now(),
	}, nil
}

var _ drepo.IndicatorSource = (*HTTPSource)(nil)
