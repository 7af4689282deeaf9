package models

// Requests for the HTTP read endpoints.

type MarketRequest struct {
	MaxAge int `query:"max_age" json:"max_age" default:"5" validate:"gte=0,lte=3600"`
}

type HistoryRequest struct {
	SignalID string `query:"signal_id" json:"signal_id" validate:"omitempty,oneof=gdp_low vix_high pbr_low fed_end_hike"`
	Limit    int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
	Since    string `query:"since" json:"since"`
}

// CronResponse is the trigger endpoint's success body.
type CronResponse struct {
	Message      string   `json:"message"`
	FoundSignals int      `json:"foundSignals"`
	Signals      []string `json:"signals"`
}
