package rules

import (
	"fmt"

	"SignalWatch/internal/domain/models"
)

// Rule ids. They identify the rule, not the occurrence, and key the dedup store.
const (
	IDBusinessCycleLow = "gdp_low"
	IDVolatilityHigh   = "vix_high"
	IDValuationLow     = "pbr_low"
	IDPolicyEndHike    = "fed_end_hike"
)

const (
	VIXThreshold     = 25.0
	PBRatioThreshold = 1.6
)

var (
	DefaultEquityBasket = []string{"0050.TW", "00646.TW", "00878.TW"}
	DefaultBondBasket   = []string{"00933B.TW"}
)

// Engine maps a snapshot to the ordered list of signals it triggers.
// It holds no state beyond the instrument baskets and is safe for concurrent use.
type Engine struct {
	equity []string
	bond   []string
}

// NewEngine copies the baskets; empty baskets fall back to the defaults.
func NewEngine(equity, bond []string) *Engine {
	if len(equity) == 0 {
		equity = DefaultEquityBasket
	}
	if len(bond) == 0 {
		bond = DefaultBondBasket
	}
	return &Engine{
		equity: append([]string(nil), equity...),
		bond:   append([]string(nil), bond...),
	}
}

// Evaluate applies the four rules in fixed order. Each rule is independent.
// The returned slice and its baskets are freshly allocated.
func (e *Engine) Evaluate(s models.IndicatorSnapshot) []models.Signal {
	out := make([]models.Signal, 0, 4)

	if cycleIsLow(s.CycleState) {
		out = append(out, models.Signal{
			ID:           IDBusinessCycleLow,
			Indicator:    "國發會景氣對策信號",
			Value:        s.CycleState.Label(),
			Title:        "景氣低迷，浮現長線佈局價值",
			Description:  "景氣燈號顯示經濟活動放緩，股市通常處於相對低檔，適合長期投資者分批佈局。",
			ApplicableTo: e.basket(e.equity),
		})
	}

	// NaN compares false on both sides
	if s.VIX > VIXThreshold {
		out = append(out, models.Signal{
			ID:           IDVolatilityHigh,
			Indicator:    "VIX恐慌指數",
			Value:        fmt.Sprintf("> 25 (現值: %.2f)", s.VIX),
			Title:        "市場極度恐慌，逆向投資機會",
			Description:  "VIX 指數飆升代表市場充滿恐懼，往往是股市的相對底部，符合「別人恐懼我貪婪」的投資原則。",
			ApplicableTo: e.basket(e.equity),
		})
	}

	// a non-positive ratio is not a valid reading
	if s.PBRatio > 0 && s.PBRatio < PBRatioThreshold {
		out = append(out, models.Signal{
			ID:           IDValuationLow,
			Indicator:    "大盤股價淨值比",
			Value:        fmt.Sprintf("< 1.6 (現值: %.2f)", s.PBRatio),
			Title:        "整體市場價值被低估",
			Description:  "大盤股價淨值比處於歷史低位，代表整體股市價格便宜，提供了具吸引力的長期安全邊際。",
			ApplicableTo: e.basket(e.equity),
		})
	}

	if policyEndsHikes(s.PolicyCycle) {
		out = append(out, models.Signal{
			ID:           IDPolicyEndHike,
			Indicator:    "Fed利率政策週期",
			Value:        "升息循環末期",
			Title:        "鎖定高殖利率，迎接降息資本利得",
			Description:  "市場預期聯準會即將停止升息並轉向降息，此時佈局長天期債券，可鎖定較高殖利率，並賺取未來價格上漲的空間。",
			ApplicableTo: e.basket(e.bond),
		})
	}

	return out
}

func (e *Engine) basket(b []string) []string {
	return append([]string(nil), b...)
}

func cycleIsLow(c models.BusinessCycle) bool {
	switch c {
	case models.BusinessCycleContraction, models.BusinessCycleEarlyContraction:
		return true
	case models.BusinessCycleBooming, models.BusinessCycleHeating, models.BusinessCycleExpansion,
		models.BusinessCycleUnknown:
		return false
	default:
		return false
	}
}

func policyEndsHikes(p models.PolicyCycle) bool {
	switch p {
	case models.PolicyCycleTighteningEnding:
		return true
	case models.PolicyCycleSteady, models.PolicyCycleEasingStarting, models.PolicyCycleUnknown:
		return false
	default:
		return false
	}
}
