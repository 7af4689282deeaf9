package indicators

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"SignalWatch/internal/domain/models"
	drepo "SignalWatch/internal/domain/repository"
)

// SimulatedSource draws illustrative readings. One uniform draw decides both the
// business-cycle light and the policy phase, so a blue light always comes with
// the end of a hiking cycle.
type SimulatedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewSimulatedSource seeds from seed, or from the clock when seed is 0.
func NewSimulatedSource(seed int64) *SimulatedSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedSource{rng: rand.New(rand.NewSource(seed)), now: time.Now}
}

func (s *SimulatedSource) Snapshot(ctx context.Context) (models.IndicatorSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.IndicatorSnapshot{}, err
	}

	s.mu.Lock()
	r := s.rng.Float64()
	vix := 12 + s.rng.Float64()*23
	pb := 1.4 + s.rng.Float64()
	s.mu.Unlock()

	cycle := models.BusinessCycleExpansion
	switch {
	case r < 0.10:
		cycle = models.BusinessCycleContraction
	case r < 0.25:
		cycle = models.BusinessCycleEarlyContraction
	}

	policy := models.PolicyCycleSteady
	if r < 0.30 {
		policy = models.PolicyCycleTighteningEnding
	}

	return models.IndicatorSnapshot{
		CycleState:  cycle,
		VIX:         vix,
		PBRatio:     pb,
		PolicyCycle: policy,
		ObservedAt:  s.now(),
	}, nil
}

var _ drepo.IndicatorSource = (*SimulatedSource)(nil)
