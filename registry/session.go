package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/caseway/agent-core/audio"
	"github.com/caseway/agent-core/document"
	"github.com/caseway/agent-core/llm"
)

// Kind distinguishes authenticated interview sessions from anonymous
// intake sessions.
type Kind string

const (
	KindInterview Kind = "interview"
	KindIntake    Kind = "intake"
)

// Session is the in-memory state of one conversational engagement. The
// history and document are owned exclusively by the session; all turns
// must run under the session's turn lock.
type Session struct {
	ID     string
	Kind   Kind
	CaseID int64 // interview only, the externally persisted case record

	History     []llm.Message
	Document    *document.Document
	CaseContext string

	TurnCount      int
	LastActivityAt time.Time

	Audio *audio.Pipeline

	// turnMu serializes turns for this session. A second user message
	// arriving while a turn is in flight blocks here rather than racing
	// on History and Document.
	turnMu sync.Mutex
}

// LockTurn acquires the per-session turn lock. Callers queue in
// arrival order under contention.
func (s *Session) LockTurn() { s.turnMu.Lock() }

// UnlockTurn releases the per-session turn lock.
func (s *Session) UnlockTurn() { s.turnMu.Unlock() }

// DocumentKind maps the session kind to its document enumeration.
func (k Kind) DocumentKind() document.Kind {
	if k == KindIntake {
		return document.KindIntake
	}
	return document.KindInterview
}

// InterviewSessionID derives the registry key for a persisted case id.
func InterviewSessionID(caseID int64) string {
	return fmt.Sprintf("interview-%d", caseID)
}
