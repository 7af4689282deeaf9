package models

// Signal is a rule-triggered advisory. ID is fixed per rule, so repeated firings
// across cycles share it.
type Signal struct {
	ID           string   `json:"id"`
	Indicator    string   `json:"indicator"`
	Value        string   `json:"value"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	ApplicableTo []string `json:"applicableTo"`
}

// SignalIDs returns the ids in order.
func SignalIDs(signals []Signal) []string {
	ids := make([]string, len(signals))
	for i, s := range signals {
		ids[i] = s.ID
	}
	return ids
}
