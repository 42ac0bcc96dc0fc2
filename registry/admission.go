package registry

import (
	"errors"
	"time"
)

// ErrRateLimited is returned when an IP has created too many intake
// sessions inside the admission window.
var ErrRateLimited = errors.New("too many sessions from this address")

// AdmissionConfig is the per-IP admission policy for anonymous intake
// session creation.
type AdmissionConfig struct {
	Cap    int
	Window time.Duration
}

// DefaultAdmission allows 5 intake sessions per IP per hour.
func DefaultAdmission() AdmissionConfig {
	return AdmissionConfig{Cap: 5, Window: time.Hour}
}

// ipWindow is the fixed-window bookkeeping for one remote address. The
// window resets lazily when a check arrives past resetAt.
type ipWindow struct {
	count   int
	resetAt time.Time
}

// admitLocked checks and updates the window for remoteIP. Caller must
// hold r.mu.
func (r *Registry) admitLocked(remoteIP string) error {
	now := r.now()

	window, ok := r.windows[remoteIP]
	if !ok || now.After(window.resetAt) {
		window = &ipWindow{resetAt: now.Add(r.admission.Window)}
		r.windows[remoteIP] = window
	}

	if window.count >= r.admission.Cap {
		return ErrRateLimited
	}
	window.count++
	return nil
}
