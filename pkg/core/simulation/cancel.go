package simulation

import "sync/atomic"

// CancelToken is the shared stop flag for one run. The caller creates it,
// hands it to Run, and may flip it from any goroutine; the orchestrator
// polls it at trial boundaries only, so an in-flight trial always finishes
// or is discarded whole.
type CancelToken struct {
	requested atomic.Bool
}

func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

// Cancel requests a stop at the next trial boundary
func (t *CancelToken) Cancel() {
	t.requested.Store(true)
}

// Requested reports whether a stop has been asked for. A nil token never
// cancels, so callers without cancellation needs can pass nil.
func (t *CancelToken) Requested() bool {
	return t != nil && t.requested.Load()
}
