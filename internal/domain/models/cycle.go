package models

import "time"

// NotificationOutcome is what happened to one candidate signal during a cycle.
type NotificationOutcome string

const (
	OutcomeSent         NotificationOutcome = "sent"
	OutcomeSuppressed   NotificationOutcome = "suppressed"
	OutcomeFailed       NotificationOutcome = "failed"
	OutcomeUnconfigured NotificationOutcome = "unconfigured"
)

// SignalDecision pairs a candidate with its notification outcome.
type SignalDecision struct {
	Signal  Signal              `json:"signal"`
	Outcome NotificationOutcome `json:"outcome"`
}

// CycleReport records one evaluation cycle for the history sinks.
type CycleReport struct {
	RunID      string            `json:"runId"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt"`
	Snapshot   IndicatorSnapshot `json:"snapshot"`
	Decisions  []SignalDecision  `json:"decisions"`
	Error      string            `json:"error,omitempty"`
}

// Count returns how many decisions had outcome o.
func (r *CycleReport) Count(o NotificationOutcome) int {
	n := 0
	for _, d := range r.Decisions {
		if d.Outcome == o {
			n++
		}
	}
	return n
}

// HistoryEntries flattens the report into one row per candidate.
func (r *CycleReport) HistoryEntries() []SignalHistoryEntry {
	rows := make([]SignalHistoryEntry, 0, len(r.Decisions))
	for _, d := range r.Decisions {
		rows = append(rows, SignalHistoryEntry{
			RunID:       r.RunID,
			SignalID:    d.Signal.ID,
			Indicator:   d.Signal.Indicator,
			Value:       d.Signal.Value,
			Outcome:     d.Outcome,
			EvaluatedAt: r.FinishedAt,
		})
	}
	return rows
}

// SignalHistoryEntry is one persisted history row.
type SignalHistoryEntry struct {
	RunID       string              `json:"runId"`
	SignalID    string              `json:"signalId"`
	Indicator   string              `json:"indicator"`
	Value       string              `json:"value"`
	Outcome     NotificationOutcome `json:"outcome"`
	EvaluatedAt time.Time           `json:"evaluatedAt"`
}
