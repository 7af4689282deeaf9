package models

import (
	"strings"
	"time"
)

// BusinessCycle is the NDC monitoring light.
type BusinessCycle string

const (
	BusinessCycleBooming          BusinessCycle = "booming"           // red
	BusinessCycleHeating          BusinessCycle = "heating"           // yellow-red
	BusinessCycleExpansion        BusinessCycle = "expansion"         // green
	BusinessCycleEarlyContraction BusinessCycle = "early-contraction" // yellow-blue
	BusinessCycleContraction      BusinessCycle = "contraction"       // blue
	BusinessCycleUnknown          BusinessCycle = "unknown"
)

// ParseBusinessCycle maps free text to a light. Unrecognised text is BusinessCycleUnknown.
func ParseBusinessCycle(s string) BusinessCycle {
	c := BusinessCycle(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case BusinessCycleBooming, BusinessCycleHeating, BusinessCycleExpansion,
		BusinessCycleEarlyContraction, BusinessCycleContraction:
		return c
	default:
		return BusinessCycleUnknown
	}
}

// Label is the light name as shown to users.
func (c BusinessCycle) Label() string {
	switch c {
	case BusinessCycleBooming:
		return "紅燈"
	case BusinessCycleHeating:
		return "黃紅燈"
	case BusinessCycleExpansion:
		return "綠燈"
	case BusinessCycleEarlyContraction:
		return "黃藍燈"
	case BusinessCycleContraction:
		return "藍燈"
	default:
		return "未知"
	}
}

// PolicyCycle is the central-bank rate phase.
type PolicyCycle string

const (
	PolicyCycleTighteningEnding PolicyCycle = "tightening-ending"
	PolicyCycleSteady           PolicyCycle = "steady"
	PolicyCycleEasingStarting   PolicyCycle = "easing-starting"
	PolicyCycleUnknown          PolicyCycle = "unknown"
)

func ParsePolicyCycle(s string) PolicyCycle {
	p := PolicyCycle(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PolicyCycleTighteningEnding, PolicyCycleSteady, PolicyCycleEasingStarting:
		return p
	default:
		return PolicyCycleUnknown
	}
}

// IndicatorSnapshot is one cycle's set of readings. Treat as a value.
type IndicatorSnapshot struct {
	CycleState  BusinessCycle `json:"cycleState"`
	VIX         float64       `json:"vix"`
	PBRatio     float64       `json:"pbRatio"`
	PolicyCycle PolicyCycle   `json:"policyCycle"`
	ObservedAt  time.Time     `json:"observedAt"`
}
