package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/caseway/agent-core/audio"
	"github.com/caseway/agent-core/document"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// IntakeTTL is how long an intake session may stay idle before the
	// sweeper removes it.
	IntakeTTL = 5 * time.Minute

	// SweepInterval is how often the background sweeper runs.
	SweepInterval = 60 * time.Second

	// IntakeTurnQuota caps user messages per intake session.
	IntakeTurnQuota = 20
)

// ErrTurnQuotaExceeded is returned when an intake session has used all
// of its allowed turns. Distinct from ErrRateLimited so the user-facing
// message can tell the two apart.
var ErrTurnQuotaExceeded = errors.New("too many turns in this session")

// Registry is the in-memory store of active sessions. It owns the
// per-IP admission windows and the idle sweep; both share the registry
// mutex so concurrent intake creation cannot lose updates.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	windows  map[string]*ipWindow

	admission AdmissionConfig
	now       func() time.Time
}

// NewRegistry creates a registry with the given admission policy.
func NewRegistry(admission AdmissionConfig) *Registry {
	return &Registry{
		sessions:  make(map[string]*Session),
		windows:   make(map[string]*ipWindow),
		admission: admission,
		now:       time.Now,
	}
}

// CreateInterview registers an interview session for a persisted case.
// If a session for the case already exists it is returned unchanged.
func (r *Registry) CreateInterview(caseID int64, caseContext string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := InterviewSessionID(caseID)
	if existing, ok := r.sessions[id]; ok {
		existing.LastActivityAt = r.now()
		return existing
	}

	session := &Session{
		ID:             id,
		Kind:           KindInterview,
		CaseID:         caseID,
		Document:       document.New(document.KindInterview),
		CaseContext:    caseContext,
		LastActivityAt: r.now(),
		Audio:          audio.NewPipeline(true),
	}
	r.sessions[id] = session
	return session
}

// CreateIntake registers an anonymous intake session after passing the
// per-IP admission window. Returns ErrRateLimited when the window cap
// is reached.
func (r *Registry) CreateIntake(remoteIP string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.admitLocked(remoteIP); err != nil {
		return nil, err
	}

	session := &Session{
		ID:             uuid.New().String(),
		Kind:           KindIntake,
		Document:       document.New(document.KindIntake),
		LastActivityAt: r.now(),
		Audio:          audio.NewPipeline(false),
	}
	r.sessions[session.ID] = session
	return session, nil
}

// Get returns the session for id and refreshes its activity timestamp.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	session.LastActivityAt = r.now()
	return session, true
}

// Touch refreshes a session's activity timestamp. Every inbound
// transport event counts as activity; a session receiving events
// never expires.
func (r *Registry) Touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[id]; ok {
		session.LastActivityAt = r.now()
	}
}

// Delete removes a session from the registry.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Count reports the number of active sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes intake sessions idle past the TTL and returns their
// ids. Interview sessions are bound to their transport connection and
// are never swept.
func (r *Registry) Sweep(now time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string
	for id, session := range r.sessions {
		if session.Kind != KindIntake {
			continue
		}
		if now.Sub(session.LastActivityAt) > IntakeTTL {
			delete(r.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// StartSweeper runs the idle sweep on a fixed interval until the
// context is cancelled.
func (r *Registry) StartSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if removed := r.Sweep(now); len(removed) > 0 {
				logger.Info("Swept idle intake sessions",
					zap.Int("count", len(removed)),
					zap.Strings("sessionIds", removed))
			}
		}
	}
}
