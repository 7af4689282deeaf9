package models

import "time"

type TickerData struct {
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// MarketData is keyed by app symbol (e.g. "0050.TW", "^TWII").
type MarketData map[string]TickerData

// Clone returns an independent copy.
func (m MarketData) Clone() MarketData {
	out := make(MarketData, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type ServiceStatus string

const (
	ServiceStatusActive   ServiceStatus = "ACTIVE"
	ServiceStatusInactive ServiceStatus = "INACTIVE"
	ServiceStatusError    ServiceStatus = "ERROR"
)

type StatusData struct {
	Status         ServiceStatus `json:"status"`
	LastChecked    time.Time     `json:"lastChecked"`
	MarketOpen     bool          `json:"marketOpen"`
	CumulativeDrop float64       `json:"cumulativeDrop"`
}
