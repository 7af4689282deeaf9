package domain

import "errors"

// Error kinds. Components wrap these with fmt.Errorf("...: %w", ...) and callers
// branch with errors.Is.
var (
	// ErrConfiguration means a credential is missing; only delivery is affected.
	ErrConfiguration = errors.New("configuration missing")
	// ErrUpstreamFetch means an indicator or quote source was unreachable or malformed.
	ErrUpstreamFetch = errors.New("upstream fetch failed")
	// ErrStoreUnavailable means the key/value store could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrDelivery means the push API rejected or never answered a message.
	ErrDelivery = errors.New("delivery failed")
)
