package registry

import (
	"testing"
	"time"

	"github.com/caseway/agent-core/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(cap int, window time.Duration) (*Registry, *time.Time) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r := NewRegistry(AdmissionConfig{Cap: cap, Window: window})
	r.now = func() time.Time { return now }
	return r, &now
}

func TestCreateIntake_AdmissionCap(t *testing.T) {
	r, now := newTestRegistry(3, time.Hour)

	for i := 0; i < 3; i++ {
		_, err := r.CreateIntake("10.0.0.1")
		require.NoError(t, err)
	}

	// (CAP+1)th attempt inside the window is rejected.
	_, err := r.CreateIntake("10.0.0.1")
	assert.ErrorIs(t, err, ErrRateLimited)

	// Other addresses keep their own window.
	_, err = r.CreateIntake("10.0.0.2")
	assert.NoError(t, err)

	// Permitted again after the window resets.
	*now = now.Add(time.Hour + time.Minute)
	_, err = r.CreateIntake("10.0.0.1")
	assert.NoError(t, err)
}

func TestGet_RefreshesActivity(t *testing.T) {
	r, now := newTestRegistry(5, time.Hour)
	session, err := r.CreateIntake("10.0.0.1")
	require.NoError(t, err)

	created := session.LastActivityAt
	*now = now.Add(2 * time.Minute)

	got, ok := r.Get(session.ID)
	require.True(t, ok)
	assert.True(t, got.LastActivityAt.After(created))

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestTouch_KeepsActiveSessionAliveAcrossSweeps(t *testing.T) {
	r, now := newTestRegistry(5, time.Hour)
	session, err := r.CreateIntake("10.0.0.1")
	require.NoError(t, err)

	// A session touched within the TTL survives every sweep, even long
	// past its creation time.
	for i := 0; i < 3; i++ {
		r.Touch(session.ID)
		*now = now.Add(4 * time.Minute)
		assert.Empty(t, r.Sweep(*now))
	}

	// Unknown ids are a no-op.
	r.Touch("missing")

	*now = now.Add(IntakeTTL + time.Minute)
	assert.Equal(t, []string{session.ID}, r.Sweep(*now))
}

func TestSweep_RemovesIdleIntakeOnly(t *testing.T) {
	r, now := newTestRegistry(5, time.Hour)

	idle, err := r.CreateIntake("10.0.0.1")
	require.NoError(t, err)
	interview := r.CreateInterview(42, "case context")

	*now = now.Add(2 * time.Minute)
	active, err := r.CreateIntake("10.0.0.1")
	require.NoError(t, err)

	removed := r.Sweep(now.Add(4 * time.Minute))
	assert.Equal(t, []string{idle.ID}, removed)

	_, ok := r.Get(active.ID)
	assert.True(t, ok, "intake active within the TTL must survive")
	_, ok = r.Get(interview.ID)
	assert.True(t, ok, "interview sessions are never swept")
}

func TestCreateInterview_Idempotent(t *testing.T) {
	r, _ := newTestRegistry(5, time.Hour)

	first := r.CreateInterview(7, "ctx")
	first.History = append(first.History, llm.Message{Role: "user", Content: "hello"})

	second := r.CreateInterview(7, "ctx")
	assert.Same(t, first, second)
	assert.Len(t, second.History, 1)
}

func TestSessionKinds(t *testing.T) {
	r, _ := newTestRegistry(5, time.Hour)

	interview := r.CreateInterview(1, "")
	assert.Equal(t, KindInterview, interview.Kind)
	assert.Equal(t, "interview-1", interview.ID)
	assert.NotNil(t, interview.Audio)

	intake, err := r.CreateIntake("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, KindIntake, intake.Kind)
	assert.NotEmpty(t, intake.ID)
}
