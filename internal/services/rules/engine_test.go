package rules

import (
	"math"
	"testing"

	"SignalWatch/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allFire() models.IndicatorSnapshot {
	return models.IndicatorSnapshot{
		CycleState:  models.BusinessCycleContraction,
		VIX:         30.00,
		PBRatio:     1.50,
		PolicyCycle: models.PolicyCycleTighteningEnding,
	}
}

func TestEvaluateAllRulesFireInOrder(t *testing.T) {
	e := NewEngine(nil, nil)
	got := e.Evaluate(allFire())

	require.Len(t, got, 4)
	assert.Equal(t, []string{IDBusinessCycleLow, IDVolatilityHigh, IDValuationLow, IDPolicyEndHike}, models.SignalIDs(got))
	assert.Equal(t, "藍燈", got[0].Value)
	assert.Equal(t, "> 25 (現值: 30.00)", got[1].Value)
	assert.Contains(t, got[1].Value, "30.00")
	assert.Equal(t, "< 1.6 (現值: 1.50)", got[2].Value)
	assert.Equal(t, DefaultEquityBasket, got[0].ApplicableTo)
	assert.Equal(t, DefaultBondBasket, got[3].ApplicableTo)
}

func quiet() models.IndicatorSnapshot {
	return models.IndicatorSnapshot{
		CycleState:  models.BusinessCycleExpansion,
		VIX:         15.00,
		PBRatio:     1.90,
		PolicyCycle: models.PolicyCycleSteady,
	}
}

func TestEvaluateQuietMarket(t *testing.T) {
	e := NewEngine(nil, nil)
	got := e.Evaluate(quiet())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	e := NewEngine(nil, nil)
	assert.Equal(t, e.Evaluate(allFire()), e.Evaluate(allFire()))
}

func TestSignalIDIgnoresReading(t *testing.T) {
	e := NewEngine(nil, nil)
	low, high := quiet(), quiet()
	low.VIX = 26
	high.VIX = 34.99
	a := e.Evaluate(low)
	b := e.Evaluate(high)

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0].ID, b[0].ID)
	assert.NotEqual(t, a[0].Value, b[0].Value)
}

func TestThresholdBoundaries(t *testing.T) {
	e := NewEngine(nil, nil)
	got := e.Evaluate(models.IndicatorSnapshot{VIX: 25, PBRatio: 1.6})
	assert.Empty(t, got)
}

func TestNonPositivePBRatioMatchesNothing(t *testing.T) {
	e := NewEngine(nil, nil)
	for _, pb := range []float64{0, -1.2, math.Inf(-1)} {
		snap := quiet()
		snap.PBRatio = pb
		assert.Empty(t, e.Evaluate(snap), "pb=%v", pb)
	}
}

func TestEarlyContractionFires(t *testing.T) {
	e := NewEngine(nil, nil)
	got := e.Evaluate(models.IndicatorSnapshot{CycleState: models.BusinessCycleEarlyContraction, PBRatio: 2})
	require.Len(t, got, 1)
	assert.Equal(t, IDBusinessCycleLow, got[0].ID)
	assert.Equal(t, "黃藍燈", got[0].Value)
}

func TestMalformedInputMatchesNothing(t *testing.T) {
	e := NewEngine(nil, nil)
	got := e.Evaluate(models.IndicatorSnapshot{
		CycleState:  models.ParseBusinessCycle("purple"),
		VIX:         math.NaN(),
		PBRatio:     math.NaN(),
		PolicyCycle: models.ParsePolicyCycle(""),
	})
	assert.Empty(t, got)
}

func TestEvaluateReturnsFreshSlices(t *testing.T) {
	e := NewEngine([]string{"A"}, []string{"B"})
	first := e.Evaluate(allFire())
	first[0].ApplicableTo[0] = "mutated"
	first[1].ID = "mutated"

	second := e.Evaluate(allFire())
	assert.Equal(t, []string{"A"}, second[0].ApplicableTo)
	assert.Equal(t, IDVolatilityHigh, second[1].ID)
}
