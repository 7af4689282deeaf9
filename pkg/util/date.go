package util

import (
	"fmt"
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// TradingSession is a weekday trading window in a fixed exchange time zone.
type TradingSession struct {
	Location *time.Location
	Open     time.Duration // offset from local midnight
	Close    time.Duration
}

// TaipeiSession returns the TWSE regular session, Mon-Fri 09:00-13:30 Asia/Taipei.
func TaipeiSession() (TradingSession, error) {
	return NewTradingSession("Asia/Taipei", 9*time.Hour, 13*time.Hour+30*time.Minute)
}

func NewTradingSession(location string, open, close time.Duration) (TradingSession, error) {
	loc, err := time.LoadLocation(location)
	if err != nil {
		// tzdata may be missing in minimal images; Taipei has no DST
		if location != "Asia/Taipei" {
			return TradingSession{}, fmt.Errorf("load location %q: %w", location, err)
		}
		loc = time.FixedZone("CST", 8*60*60)
	}
	return TradingSession{Location: loc, Open: open, Close: close}, nil
}

// IsOpen reports whether t falls inside the session, both bounds inclusive.
func (s TradingSession) IsOpen(t time.Time) bool {
	local := t.In(s.Location)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	y, m, d := local.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, s.Location)
	offset := local.Sub(midnight)
	return offset >= s.Open && offset <= s.Close
}
